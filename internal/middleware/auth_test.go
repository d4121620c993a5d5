package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salesledger/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActor(t *testing.T) {
	auth := NewAuthenticator("test-secret", []string{"manager"})
	branch := uuid.New()
	want := model.Actor{UserID: uuid.New(), Role: "manager", BranchID: &branch}

	token, err := auth.Sign(want, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	require.NoError(t, err)

	got, err := auth.ParseActor(token)
	require.NoError(t, err)
	assert.Equal(t, want.UserID, got.UserID)
	assert.True(t, got.Privileged)
	require.NotNil(t, got.BranchID)
	assert.Equal(t, branch, *got.BranchID)

	clerk, err := auth.Sign(model.Actor{UserID: uuid.New(), Role: "sales"}, jwt.RegisteredClaims{})
	require.NoError(t, err)
	got, err = auth.ParseActor(clerk)
	require.NoError(t, err)
	assert.False(t, got.Privileged)
	assert.Nil(t, got.BranchID)

	expired, err := auth.Sign(want, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))})
	require.NoError(t, err)
	_, err = auth.ParseActor(expired)
	assert.Error(t, err)

	_, err = NewAuthenticator("other-secret", nil).ParseActor(token)
	assert.Error(t, err)
}

func TestRequireActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := NewAuthenticator("test-secret", []string{"manager"})

	router := gin.New()
	router.GET("/me", auth.RequireActor(), func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, actor.Role)
	})
	router.GET("/admin", auth.RequireActor(), RequirePrivileged(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	clerk, err := auth.Sign(model.Actor{UserID: uuid.New(), Role: "sales"}, jwt.RegisteredClaims{})
	require.NoError(t, err)

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Token " + clerk, http.StatusUnauthorized},
		{"garbage", "/me", "Bearer nope", http.StatusUnauthorized},
		{"valid", "/me", "Bearer " + clerk, http.StatusOK},
		{"not privileged", "/admin", "Bearer " + clerk, http.StatusForbidden},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
