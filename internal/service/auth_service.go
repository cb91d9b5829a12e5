package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/mailer"
	"github.com/ShubhamMishra2526/Travease-App/internal/metrics"
	"github.com/ShubhamMishra2526/Travease-App/internal/repository"
	"github.com/ShubhamMishra2526/Travease-App/internal/token"
	"github.com/ShubhamMishra2526/Travease-App/pkg/logger"
	"github.com/ShubhamMishra2526/Travease-App/pkg/telemetry"
)

// SignupRequest carries the only fields signup accepts. Role and other
// privileged attributes in the request body are ignored by design of the
// binding itself.
type SignupRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdatePasswordRequest carries a password change for a logged-in user.
type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

// ResetPasswordRequest carries the new password for a reset token.
type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

// AuthService owns the account credential lifecycle: signup, login,
// password reset and password change. Every success returns a fresh
// session token so older tokens invalidated by a password change are
// replaced immediately.
type AuthService interface {
	Signup(ctx context.Context, req *SignupRequest) (*domain.User, string, error)
	Login(ctx context.Context, req *LoginRequest) (*domain.User, string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken string, req *ResetPasswordRequest) (*domain.User, string, error)
	UpdatePassword(ctx context.Context, user *domain.User, req *UpdatePasswordRequest) (string, error)
}

// authService implements AuthService.
type authService struct {
	users   repository.UserRepository
	tokens  *token.Service
	mail    mailer.Mailer
	metrics *metrics.App
	baseURL string
	now     func() time.Time
}

// NewAuthService creates a new AuthService. baseURL is the public origin
// reset links are built against.
func NewAuthService(users repository.UserRepository, tokens *token.Service, mail mailer.Mailer, m *metrics.App, baseURL string) AuthService {
	return &authService{
		users:   users,
		tokens:  tokens,
		mail:    mail,
		metrics: m,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Signup creates an account and logs it in. Only name, email and the
// password pair are taken from the request; every new account starts as
// a regular user.
func (s *authService) Signup(ctx context.Context, req *SignupRequest) (*domain.User, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.signup")
	defer span.End()
	span.SetAttributes(attribute.String("email", req.Email))

	if req.Password != req.PasswordConfirm {
		return nil, "", apperror.BadRequest("Passwords are not the same!")
	}

	user := &domain.User{
		Name:  req.Name,
		Email: domain.NormalizeEmail(req.Email),
		Role:  domain.RoleUser,
	}
	if err := user.SetPassword(req.Password); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	if err := s.users.Create(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	// Welcome email failures never fail the signup
	if err := s.mail.Send(ctx, mailer.WelcomeEmail(user.Email, user.Name)); err != nil {
		logger.Get().Warn("welcome email failed", zap.String("email", user.Email), zap.Error(err))
	}

	s.metrics.Signups.Inc(ctx)
	return user, tok, nil
}

// Login verifies credentials. Unknown email and wrong password produce
// the same error so the response never confirms whether an account
// exists.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*domain.User, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.login")
	defer span.End()
	span.SetAttributes(attribute.String("email", req.Email))

	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}
	if user == nil || !user.CorrectPassword(req.Password) {
		span.SetStatus(codes.Error, "credentials rejected")
		return nil, "", apperror.Unauthenticated("Incorrect email or password")
	}

	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	s.metrics.Logins.Inc(ctx)
	return user, tok, nil
}

// ForgotPassword stores a hashed single-use reset token and emails the
// raw token to the account. When the email cannot be delivered the token
// is cleared again so no orphaned token stays live.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.forgot_password")
	defer span.End()

	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if user == nil {
		return apperror.NotFound("There is no user with email address.")
	}

	raw, hash, err := token.NewResetToken()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	expires := s.now().Add(token.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, hash, expires); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	resetURL := fmt.Sprintf("%s/api/v1/users/resetPassword/%s", s.baseURL, raw)
	if err := s.mail.Send(ctx, mailer.PasswordResetEmail(user.Email, user.Name, resetURL)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			logger.Get().Error("failed to clear reset token after email failure",
				zap.String("user_id", user.ID), zap.Error(clearErr))
		}
		return apperror.Internal("There was an error sending the email. Try again later!")
	}

	return nil
}

// ResetPassword redeems a raw reset token. The token is matched by its
// hash and only accepted before expiry; a successful reset consumes it
// and logs the user in.
func (s *authService) ResetPassword(ctx context.Context, rawToken string, req *ResetPasswordRequest) (*domain.User, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.reset_password")
	defer span.End()

	if req.Password != req.PasswordConfirm {
		return nil, "", apperror.BadRequest("Passwords are not the same!")
	}

	user, err := s.users.FindByResetToken(ctx, token.HashForLookup(rawToken))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}
	if user == nil {
		return nil, "", apperror.BadRequest("Token is invalid or has expired")
	}

	if err := user.SetPassword(req.Password); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}
	user.MarkPasswordChanged(s.now())

	if err := s.users.UpdatePassword(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	s.metrics.PasswordResets.Inc(ctx)
	return user, tok, nil
}

// UpdatePassword changes a logged-in user's password after verifying the
// current one, then issues a fresh token.
func (s *authService) UpdatePassword(ctx context.Context, user *domain.User, req *UpdatePasswordRequest) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.update_password")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", user.ID))

	if !user.CorrectPassword(req.PasswordCurrent) {
		return "", apperror.Unauthenticated("Your current password is wrong.")
	}
	if req.Password != req.PasswordConfirm {
		return "", apperror.BadRequest("Passwords are not the same!")
	}

	if err := user.SetPassword(req.Password); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	user.MarkPasswordChanged(s.now())

	if err := s.users.UpdatePassword(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return s.tokens.Issue(user.ID)
}
