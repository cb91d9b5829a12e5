package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/token"
	"github.com/ShubhamMishra2526/Travease-App/pkg/logger"
	"github.com/ShubhamMishra2526/Travease-App/pkg/response"
)

// ErrorPageFunc renders an error page for non-API routes. When nil all
// errors are answered as JSON.
type ErrorPageFunc func(c *gin.Context, status int, message string)

// ErrorHandlerConfig controls how errors collected on the gin context
// are reported to clients.
type ErrorHandlerConfig struct {
	// Development switches responses to full detail (original error
	// text plus stack trace)
	Development bool
	// RenderErrorPage handles non /api requests (optional)
	RenderErrorPage ErrorPageFunc
}

// ErrorHandler turns errors pushed onto the gin context into a uniform
// response. Handlers and middleware report failures with c.Error and
// return; this middleware owns the status code, the envelope shape, and
// the translation of driver level errors into client safe messages.
func ErrorHandler(cfg ErrorHandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// Only the last error drives the response
		err := c.Errors.Last().Err
		appErr, operational := normalize(err)

		if appErr.StatusCode >= http.StatusInternalServerError {
			logger.Get().Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}

		if c.Writer.Written() {
			return
		}

		// Webhook callers are machines, they get JSON like the API
		wantsJSON := strings.HasPrefix(c.Request.URL.Path, "/api") ||
			strings.HasPrefix(c.Request.URL.Path, "/webhook-checkout")
		if !wantsJSON && cfg.RenderErrorPage != nil {
			cfg.RenderErrorPage(c, appErr.StatusCode, clientMessage(cfg, appErr, operational))
			return
		}

		if cfg.Development {
			c.JSON(appErr.StatusCode, gin.H{
				"status":  response.StatusForCode(appErr.StatusCode),
				"message": appErr.Message,
				"error":   err.Error(),
				"stack":   string(debug.Stack()),
			})
			return
		}

		c.JSON(appErr.StatusCode, response.Envelope{
			Status:  response.StatusForCode(appErr.StatusCode),
			Message: clientMessage(cfg, appErr, operational),
		})
	}
}

// clientMessage hides unclassified error text outside development.
func clientMessage(cfg ErrorHandlerConfig, appErr *apperror.Error, operational bool) string {
	if cfg.Development || operational {
		return appErr.Message
	}
	return "Something went very wrong!"
}

// normalize maps any error to an apperror.Error plus an operational
// flag, translating well known database and token failures into
// operational errors with client safe messages. Unclassified errors come
// back non operational and are never shown verbatim in production.
func normalize(err error) (*apperror.Error, bool) {
	if appErr, ok := apperror.As(err); ok {
		return appErr, true
	}

	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return apperror.Unauthenticated("Your token has expired! Please log in again."), true
	case errors.Is(err, token.ErrTokenInvalid):
		return apperror.Unauthenticated("Invalid token. Please log in again."), true
	case errors.Is(err, pgx.ErrNoRows):
		return apperror.NotFound("No document found with that ID"), true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return translatePgError(pgErr, err)
	}

	return apperror.Wrap(http.StatusInternalServerError, err.Error(), err), false
}

// translatePgError maps postgres error codes onto the validation style
// messages clients expect.
func translatePgError(pgErr *pgconn.PgError, cause error) (*apperror.Error, bool) {
	switch pgErr.Code {
	case "23505": // unique_violation
		return apperror.Conflict(fmt.Sprintf("Duplicate field value: %s. Please use another value!", pgErr.ConstraintName)), true
	case "22P02": // invalid_text_representation (bad uuid, bad enum)
		return apperror.BadRequest("Invalid value supplied for a field"), true
	case "23502": // not_null_violation
		return apperror.BadRequest(fmt.Sprintf("Invalid input data. Missing required field: %s", pgErr.ColumnName)), true
	case "23514": // check_violation
		return apperror.BadRequest(fmt.Sprintf("Invalid input data. Constraint violated: %s", pgErr.ConstraintName)), true
	case "23503": // foreign_key_violation
		return apperror.BadRequest(fmt.Sprintf("Referenced document does not exist: %s", pgErr.ConstraintName)), true
	default:
		return apperror.Wrap(http.StatusInternalServerError, "Database error", cause), false
	}
}

// Recovery converts panics into context errors so ErrorHandler can
// report them like any other failure.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Get().Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				_ = c.Error(fmt.Errorf("panic: %v", r))
				c.Abort()
			}
		}()
		c.Next()
	}
}
