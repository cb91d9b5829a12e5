package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/token"
)

func errorTestRouter(cfg ErrorHandlerConfig, err error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(cfg))
	r.GET("/api/v1/fail", func(c *gin.Context) {
		_ = c.Error(err)
	})
	return r
}

func doRequest(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestErrorHandlerOperationalError(t *testing.T) {
	r := errorTestRouter(ErrorHandlerConfig{}, apperror.NotFound("No tour found with that ID"))
	w := doRequest(r, "/api/v1/fail")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"fail"`)
	assert.Contains(t, w.Body.String(), "No tour found with that ID")
}

func TestErrorHandlerHidesInternalInProduction(t *testing.T) {
	r := errorTestRouter(ErrorHandlerConfig{Development: false}, errors.New("pool exhausted at pgbouncer"))
	w := doRequest(r, "/api/v1/fail")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something went very wrong!")
	assert.NotContains(t, w.Body.String(), "pgbouncer")
}

func TestErrorHandlerDevelopmentDetail(t *testing.T) {
	r := errorTestRouter(ErrorHandlerConfig{Development: true}, errors.New("pool exhausted"))
	w := doRequest(r, "/api/v1/fail")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"error"`)
	assert.Contains(t, body, "pool exhausted")
	assert.Contains(t, body, `"stack"`)
}

func TestErrorHandlerTokenErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"expired", token.ErrTokenExpired, "Your token has expired! Please log in again."},
		{"invalid", token.ErrTokenInvalid, "Invalid token. Please log in again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := errorTestRouter(ErrorHandlerConfig{}, tt.err)
			w := doRequest(r, "/api/v1/fail")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestErrorHandlerNoRows(t *testing.T) {
	r := errorTestRouter(ErrorHandlerConfig{}, fmt.Errorf("loading tour: %w", pgx.ErrNoRows))
	w := doRequest(r, "/api/v1/fail")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No document found with that ID")
}

func TestErrorHandlerPgErrors(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantCode int
		wantBody string
	}{
		{"unique violation", "23505", http.StatusBadRequest, "Duplicate field value"},
		{"bad uuid", "22P02", http.StatusBadRequest, "Invalid value supplied"},
		{"not null", "23502", http.StatusBadRequest, "Missing required field"},
		{"check violation", "23514", http.StatusBadRequest, "Constraint violated"},
		{"foreign key", "23503", http.StatusBadRequest, "Referenced document does not exist"},
		{"unclassified", "57014", http.StatusInternalServerError, "Something went very wrong!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: tt.code, ConstraintName: "users_email_key", ColumnName: "email"}
			r := errorTestRouter(ErrorHandlerConfig{}, pgErr)
			w := doRequest(r, "/api/v1/fail")

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestErrorHandlerRendersPageOffAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var gotStatus int
	var gotMessage string
	r := gin.New()
	r.Use(ErrorHandler(ErrorHandlerConfig{
		RenderErrorPage: func(c *gin.Context, status int, message string) {
			gotStatus = status
			gotMessage = message
			c.String(status, "error page")
		},
	}))
	r.GET("/tour/missing", func(c *gin.Context) {
		_ = c.Error(apperror.NotFound("There is no tour with that name."))
	})

	w := doRequest(r, "/tour/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusNotFound, gotStatus)
	assert.Equal(t, "There is no tour with that name.", gotMessage)
	assert.Equal(t, "error page", w.Body.String())
}

func TestErrorHandlerWebhookGetsJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(ErrorHandlerConfig{
		RenderErrorPage: func(c *gin.Context, status int, _ string) {
			c.String(status, "error page")
		},
	}))
	r.POST("/webhook-checkout", func(c *gin.Context) {
		_ = c.Error(apperror.BadRequest("Webhook error: bad signature"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook-checkout", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"fail"`)
	assert.Contains(t, w.Body.String(), "Webhook error: bad signature")
	assert.NotContains(t, w.Body.String(), "error page")
}

func TestRecoveryReportsPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(ErrorHandlerConfig{}), Recovery())
	r.GET("/api/v1/boom", func(c *gin.Context) {
		panic("nil dereference")
	})

	w := doRequest(r, "/api/v1/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something went very wrong!")
}
