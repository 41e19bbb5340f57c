package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTManager(t *testing.T) {
	_, err := NewJWTManager("")
	assert.Error(t, err)

	jm, err := NewJWTManager("test-secret")
	require.NoError(t, err)
	assert.Equal(t, "HS256", jm.algorithm)
}

func TestJWTManager_RoundTrip(t *testing.T) {
	jm, err := NewJWTManager("test-secret")
	require.NoError(t, err)
	ctx := context.Background()

	token, err := jm.GenerateToken(ctx, "user-1", "asha@example.com", "hospital", time.Hour)
	require.NoError(t, err)

	claims, err := jm.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "asha@example.com", claims.Email)
	assert.Equal(t, "hospital", claims.Role)
	assert.Equal(t, "user-1", claims.Subject)

	refreshed, err := jm.RefreshToken(ctx, token, 2*time.Hour)
	require.NoError(t, err)
	again, err := jm.ValidateToken(ctx, refreshed)
	require.NoError(t, err)
	assert.Equal(t, "hospital", again.Role)
	assert.NotEqual(t, claims.ID, again.ID)
}

func TestJWTManager_Rejects(t *testing.T) {
	jm, err := NewJWTManager("test-secret")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("expired", func(t *testing.T) {
		token, err := jm.GenerateToken(ctx, "user-1", "a@example.com", "public", -time.Minute)
		require.NoError(t, err)
		_, err = jm.ValidateToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTManager("another-secret")
		require.NoError(t, err)
		token, err := other.GenerateToken(ctx, "user-1", "a@example.com", "public", time.Hour)
		require.NoError(t, err)
		_, err = jm.ValidateToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("unexpected algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = jm.ValidateToken(ctx, signed)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := jm.ValidateToken(ctx, "not-a-token")
		assert.Error(t, err)
	})
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)
	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "password124"))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jm, err := NewJWTManager("test-secret")
	require.NoError(t, err)
	govToken, err := jm.GenerateToken(context.Background(), "gov-1", "gov@example.com", "government", time.Hour)
	require.NoError(t, err)
	publicToken, err := jm.GenerateToken(context.Background(), "pub-1", "pub@example.com", "public", time.Hour)
	require.NoError(t, err)

	router := gin.New()
	protected := router.Group("", RequireAuth(jm))
	protected.GET("/me", func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(ContextUserID), "role": claims.Role})
	})
	protected.GET("/admin", RequireRole("government"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	protected.GET("/ws", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		status  int
	}{
		{"missing header", "/me", nil, http.StatusUnauthorized},
		{"bad scheme", "/me", map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized},
		{"invalid token", "/me", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"valid token", "/me", map[string]string{"Authorization": "Bearer " + publicToken}, http.StatusOK},
		{"role allowed", "/admin", map[string]string{"Authorization": "Bearer " + govToken}, http.StatusNoContent},
		{"role denied", "/admin", map[string]string{"Authorization": "Bearer " + publicToken}, http.StatusForbidden},
		{"query token on upgrade", "/ws?token=" + govToken, map[string]string{"Upgrade": "websocket"}, http.StatusOK},
		{"query token without upgrade", "/ws?token=" + govToken, nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
