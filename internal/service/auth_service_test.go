package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/mailer"
	"github.com/ShubhamMishra2526/Travease-App/internal/metrics"
	"github.com/ShubhamMishra2526/Travease-App/internal/query"
	"github.com/ShubhamMishra2526/Travease-App/internal/token"
)

// mockUserRepo is an in-memory UserRepository.
type mockUserRepo struct {
	byID map[string]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byID: map[string]*domain.User{}}
}

func (m *mockUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range m.byID {
		if u.Email == user.Email {
			return apperror.Conflict("Duplicate field value: users_email_key. Please use another value!")
		}
	}
	user.ID = uuid.NewString()
	user.Active = true
	user.CreatedAt = time.Now()
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string, _ ...string) (*domain.User, error) {
	u, ok := m.byID[id]
	if !ok || !u.Active {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email && u.Active {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByResetToken(_ context.Context, tokenHash string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.PasswordResetToken == tokenHash && u.ResetTokenValid(time.Now()) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Find(context.Context, *query.Query) ([]domain.User, int, error) {
	return nil, 0, nil
}

func (m *mockUserRepo) UpdateByID(_ context.Context, id string, _ map[string]interface{}) (*domain.User, error) {
	return m.byID[id], nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, user *domain.User) error {
	stored, ok := m.byID[user.ID]
	if !ok {
		return errors.New("not found")
	}
	stored.PasswordHash = user.PasswordHash
	stored.PasswordChangedAt = user.PasswordChangedAt
	stored.ClearResetToken()
	return nil
}

func (m *mockUserRepo) SetResetToken(_ context.Context, id, tokenHash string, expires time.Time) error {
	u, ok := m.byID[id]
	if !ok {
		return errors.New("not found")
	}
	u.PasswordResetToken = tokenHash
	u.PasswordResetExpires = &expires
	return nil
}

func (m *mockUserRepo) ClearResetToken(_ context.Context, id string) error {
	if u, ok := m.byID[id]; ok {
		u.ClearResetToken()
	}
	return nil
}

func (m *mockUserRepo) Deactivate(_ context.Context, id string) error {
	u, ok := m.byID[id]
	if !ok {
		return errors.New("not found")
	}
	u.Active = false
	return nil
}

// mockMailer records sent messages and can be told to fail.
type mockMailer struct {
	sent []mailer.Message
	err  error
}

func (m *mockMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newAuthFixture(t *testing.T) (*mockUserRepo, *mockMailer, AuthService) {
	t.Helper()
	repo := newMockUserRepo()
	mail := &mockMailer{}
	tokens := token.NewService(&token.Config{Secret: "test-secret", TokenTTL: time.Hour})
	m, err := metrics.New()
	require.NoError(t, err)
	svc := NewAuthService(repo, tokens, mail, m, "http://localhost:8080")
	return repo, mail, svc
}

func signupReq() *SignupRequest {
	return &SignupRequest{
		Name:            "Ada",
		Email:           "ada@example.com",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	}
}

func TestSignup(t *testing.T) {
	repo, mail, svc := newAuthFixture(t)

	user, tok, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEmpty(t, user.ID)
	assert.True(t, user.CorrectPassword("pass1234"))
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "ada@example.com", mail.sent[0].To)
	assert.Len(t, repo.byID, 1)
}

func TestSignupPasswordMismatch(t *testing.T) {
	_, _, svc := newAuthFixture(t)

	req := signupReq()
	req.PasswordConfirm = "different1"
	_, _, err := svc.Signup(context.Background(), req)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "Passwords are not the same!", appErr.Message)
}

func TestSignupSurvivesMailFailure(t *testing.T) {
	_, mail, svc := newAuthFixture(t)
	mail.err = errors.New("relay down")

	_, tok, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
}

func TestSignupNormalizesEmail(t *testing.T) {
	repo, _, svc := newAuthFixture(t)

	req := signupReq()
	req.Email = "Ada@Example.COM"
	user, _, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	// A differently cased signup is the same account, not a new one
	req = signupReq()
	req.Email = "ADA@EXAMPLE.COM"
	_, _, err = svc.Signup(context.Background(), req)
	require.Error(t, err)
	assert.Len(t, repo.byID, 1)
}

func TestLoginEmailCaseInsensitive(t *testing.T) {
	_, _, svc := newAuthFixture(t)
	req := signupReq()
	req.Email = "Ada@Example.COM"
	_, _, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)

	user, tok, err := svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "pass1234"})
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestForgotPasswordEmailCaseInsensitive(t *testing.T) {
	repo, mail, svc := newAuthFixture(t)
	user, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)
	mail.sent = nil

	require.NoError(t, svc.ForgotPassword(context.Background(), "ADA@example.com"))
	assert.NotEmpty(t, repo.byID[user.ID].PasswordResetToken)
	require.Len(t, mail.sent, 1)
}

func TestLogin(t *testing.T) {
	_, _, svc := newAuthFixture(t)
	_, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	user, tok, err := svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "pass1234"})
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, _, svc := newAuthFixture(t)
	_, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	// Wrong password and unknown email produce the exact same message
	for _, req := range []*LoginRequest{
		{Email: "ada@example.com", Password: "wrongpass"},
		{Email: "nobody@example.com", Password: "pass1234"},
	} {
		_, _, err := svc.Login(context.Background(), req)
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
		assert.Equal(t, "Incorrect email or password", appErr.Message)
	}
}

func TestForgotPassword(t *testing.T) {
	repo, mail, svc := newAuthFixture(t)
	user, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)
	mail.sent = nil

	require.NoError(t, svc.ForgotPassword(context.Background(), "ada@example.com"))

	stored := repo.byID[user.ID]
	assert.NotEmpty(t, stored.PasswordResetToken)
	assert.True(t, stored.ResetTokenValid(time.Now()))
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].Text, "/api/v1/users/resetPassword/")
	// Only the hash is stored, never the raw token
	assert.NotContains(t, mail.sent[0].Text, stored.PasswordResetToken)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	_, _, svc := newAuthFixture(t)

	err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.Equal(t, "There is no user with email address.", appErr.Message)
}

func TestForgotPasswordClearsTokenOnMailFailure(t *testing.T) {
	repo, mail, svc := newAuthFixture(t)
	user, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)
	mail.err = errors.New("relay down")

	err = svc.ForgotPassword(context.Background(), "ada@example.com")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "There was an error sending the email. Try again later!", appErr.Message)
	assert.Empty(t, repo.byID[user.ID].PasswordResetToken)
}

func TestResetPassword(t *testing.T) {
	repo, mail, svc := newAuthFixture(t)
	user, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)
	mail.sent = nil
	require.NoError(t, svc.ForgotPassword(context.Background(), "ada@example.com"))

	// Recover the raw token from the email body
	raw := rawTokenFromEmail(t, mail.sent[0].Text)

	updated, tok, err := svc.ResetPassword(context.Background(), raw, &ResetPasswordRequest{
		Password:        "newpass99",
		PasswordConfirm: "newpass99",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.True(t, updated.CorrectPassword("newpass99"))
	assert.NotNil(t, updated.PasswordChangedAt)

	// The token is single use
	assert.Empty(t, repo.byID[user.ID].PasswordResetToken)
	_, _, err = svc.ResetPassword(context.Background(), raw, &ResetPasswordRequest{
		Password:        "another99",
		PasswordConfirm: "another99",
	})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Token is invalid or has expired", appErr.Message)
}

func TestResetPasswordBadToken(t *testing.T) {
	_, _, svc := newAuthFixture(t)

	_, _, err := svc.ResetPassword(context.Background(), "deadbeef", &ResetPasswordRequest{
		Password:        "newpass99",
		PasswordConfirm: "newpass99",
	})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "Token is invalid or has expired", appErr.Message)
}

func TestUpdatePassword(t *testing.T) {
	_, _, svc := newAuthFixture(t)
	user, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	tok, err := svc.UpdatePassword(context.Background(), user, &UpdatePasswordRequest{
		PasswordCurrent: "pass1234",
		Password:        "newpass99",
		PasswordConfirm: "newpass99",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.True(t, user.CorrectPassword("newpass99"))
	assert.NotNil(t, user.PasswordChangedAt)
}

func TestUpdatePasswordWrongCurrent(t *testing.T) {
	_, _, svc := newAuthFixture(t)
	user, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	_, err = svc.UpdatePassword(context.Background(), user, &UpdatePasswordRequest{
		PasswordCurrent: "wrongpass",
		Password:        "newpass99",
		PasswordConfirm: "newpass99",
	})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
	assert.Equal(t, "Your current password is wrong.", appErr.Message)
}

// rawTokenFromEmail pulls the token segment out of the reset URL in the
// email body.
func rawTokenFromEmail(t *testing.T, body string) string {
	t.Helper()
	const marker = "/api/v1/users/resetPassword/"
	i := strings.Index(body, marker)
	require.GreaterOrEqual(t, i, 0)
	rest := body[i+len(marker):]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !strings.ContainsRune("0123456789abcdef", r)
	})
	if end < 0 {
		end = len(rest)
	}
	require.Greater(t, end, 0)
	return rest[:end]
}
