package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/placenotes/internal/auth"
	"github.com/ukydev/placenotes/internal/db"
	"github.com/ukydev/placenotes/internal/middleware"
	"github.com/ukydev/placenotes/internal/models"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	svc, err := auth.NewService("handler-test-secret", time.Hour)
	require.NoError(t, err)
	return svc
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

func TestAuthHandler_Login(t *testing.T) {
	authService := newAuthService(t)
	hash, err := authService.HashPassword("password123")
	require.NoError(t, err)

	activeUser := func() *models.User {
		return &models.User{
			ID:           primitive.NewObjectID(),
			Username:     "testuser",
			Email:        "test@example.com",
			PasswordHash: hash,
			Role:         models.RoleEditor,
			IsActive:     true,
		}
	}

	t.Run("successful login", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		user := activeUser()

		users.On("FindUserByUsername", mock.Anything, "testuser").Return(user, nil)
		users.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			jsonBody(t, models.LoginRequest{Username: "testuser", Password: "password123"}))
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "testuser", resp.User.Username)
		assert.NotContains(t, w.Body.String(), hash)

		claims, err := authService.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.Hex(), claims.UserID)
		users.AssertExpectations(t)
	})

	t.Run("last login failure does not block login", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		user := activeUser()

		users.On("FindUserByUsername", mock.Anything, "testuser").Return(user, nil)
		users.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(assert.AnError)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			jsonBody(t, models.LoginRequest{Username: "testuser", Password: "password123"}))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByUsername", mock.Anything, "ghost").Return(nil, db.ErrUserNotFound)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			jsonBody(t, models.LoginRequest{Username: "ghost", Password: "password123"}))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByUsername", mock.Anything, "testuser").Return(activeUser(), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			jsonBody(t, models.LoginRequest{Username: "testuser", Password: "nope-nope"}))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		users.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything)
	})

	t.Run("inactive user", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		user := activeUser()
		user.IsActive = false
		users.On("FindUserByUsername", mock.Anything, "testuser").Return(user, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			jsonBody(t, models.LoginRequest{Username: "testuser", Password: "password123"}))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "deactivated")
	})

	t.Run("missing fields and bad JSON", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))

		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login",
			jsonBody(t, models.LoginRequest{Username: "testuser"})))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_Register(t *testing.T) {
	authService := newAuthService(t)
	valid := models.RegisterRequest{
		Username:    "newuser",
		Email:       "new@example.com",
		Password:    "password123",
		DisplayName: "New User",
	}

	t.Run("successful registration defaults to viewer", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)

		users.On("FindUserByUsername", mock.Anything, "newuser").Return(nil, db.ErrUserNotFound)
		users.On("FindUserByEmail", mock.Anything, "new@example.com").Return(nil, db.ErrUserNotFound)
		users.On("InsertUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Username == "newuser" && u.Role == models.RoleViewer && u.IsActive &&
				authService.CheckPassword("password123", u.PasswordHash)
		})).Return(nil)

		w := httptest.NewRecorder()
		handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, valid)))

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "New User", resp.User.DisplayName)
		assert.Equal(t, models.RoleViewer, resp.User.Role)
		users.AssertExpectations(t)
	})

	t.Run("username taken", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByUsername", mock.Anything, "newuser").Return(&models.User{Username: "newuser"}, nil)

		w := httptest.NewRecorder()
		handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, valid)))
		assert.Equal(t, http.StatusConflict, w.Code)
		users.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
	})

	t.Run("email taken", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByUsername", mock.Anything, "newuser").Return(nil, db.ErrUserNotFound)
		users.On("FindUserByEmail", mock.Anything, "new@example.com").Return(&models.User{}, nil)

		w := httptest.NewRecorder()
		handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, valid)))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("lookup failure", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByUsername", mock.Anything, "newuser").Return(nil, assert.AnError)

		w := httptest.NewRecorder()
		handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, valid)))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("validation", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))
		bad := valid
		bad.Password = "short"

		w := httptest.NewRecorder()
		handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, bad)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "at least 8 characters")
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	authService := newAuthService(t)
	users := new(MockUserCollection)
	handler := NewAuthHandler(authService, users)

	id := primitive.NewObjectID()
	users.On("FindUserByID", mock.Anything, id.Hex()).Return(&models.User{ID: id, Username: "me"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, &models.Claims{UserID: id.Hex()})
	w := httptest.NewRecorder()
	handler.GetProfile(w, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"me"`)

	w = httptest.NewRecorder()
	handler.GetProfile(w, httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
