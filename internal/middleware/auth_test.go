package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier struct {
	userID uuid.UUID
	err    error
}

func (s *stubVerifier) Verify(_ string) (uuid.UUID, error) {
	if s.err != nil {
		return uuid.Nil, s.err
	}
	return s.userID, nil
}

func newAuthTestRouter(verifier SessionVerifier) (*gin.Engine, *uuid.UUID) {
	gin.SetMode(gin.TestMode)
	var seen uuid.UUID
	router := gin.New()
	router.GET("/protected", AuthMiddleware(verifier, zap.NewNop()), func(c *gin.Context) {
		seen = GetUserIDFromContext(c)
		c.Status(http.StatusOK)
	})
	return router, &seen
}

func doGet(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set(AuthorizationHeader, authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	router, seen := newAuthTestRouter(&stubVerifier{userID: userID})

	rec := doGet(router, "Bearer good-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, *seen)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	router, _ := newAuthTestRouter(&stubVerifier{userID: uuid.New()})

	rec := doGet(router, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_BadFormat(t *testing.T) {
	router, _ := newAuthTestRouter(&stubVerifier{userID: uuid.New()})

	rec := doGet(router, "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_VerifierRejects(t *testing.T) {
	router, _ := newAuthTestRouter(&stubVerifier{err: errors.New("expired")})

	rec := doGet(router, "Bearer stale-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
