package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mathmindlabs/mathmind-backend/internal/auth"
	"github.com/mathmindlabs/mathmind-backend/internal/users"
	pkgAuth "github.com/mathmindlabs/mathmind-backend/pkg/auth"
	"github.com/mathmindlabs/mathmind-backend/pkg/auth/session"
	"github.com/mathmindlabs/mathmind-backend/pkg/config"
	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
)

type stubAuthService struct {
	registerResp *auth.AuthResponse
	registerErr  error
	loginResp    *auth.AuthResponse
	loginErr     error
	googleResp   *auth.AuthResponse
	googleErr    error
	refreshResp  *auth.RefreshResponse
	refreshErr   error
	logoutErr    error
	currentResp  *users.UserDTO
	currentErr   error

	lastLogin    auth.LoginRequest
	lastRegister auth.RegisterRequest
	lastLogout   string
	lastUserID   int64
}

func (s *stubAuthService) Register(_ context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error) {
	s.lastRegister = req
	return s.registerResp, s.registerErr
}

func (s *stubAuthService) Login(_ context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
	s.lastLogin = req
	return s.loginResp, s.loginErr
}

func (s *stubAuthService) GoogleLogin(_ context.Context, req auth.GoogleLoginRequest) (*auth.AuthResponse, error) {
	return s.googleResp, s.googleErr
}

func (s *stubAuthService) Refresh(_ context.Context, req auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return s.refreshResp, s.refreshErr
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.lastLogout = accessID
	return s.logoutErr
}

func (s *stubAuthService) CurrentUser(_ context.Context, userID int64) (*users.UserDTO, error) {
	s.lastUserID = userID
	return s.currentResp, s.currentErr
}

func tokenPair() *auth.AuthResponse {
	return &auth.AuthResponse{
		AccessToken:  "access",
		RefreshToken: "refresh",
		User:         &users.UserDTO{UserID: 1, Email: "new@example.com"},
	}
}

func TestAuthRegisterReturnsCreated(t *testing.T) {
	svc := &stubAuthService{registerResp: tokenPair()}
	handler := AuthRegister(svc, nil)

	body := `{"email":"new@example.com","password":"secret123","name":"New User"}`
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if svc.lastRegister.Email != "new@example.com" {
		t.Fatalf("unexpected register email %q", svc.lastRegister.Email)
	}
	var envelope struct {
		Data auth.AuthResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access" || envelope.Data.RefreshToken != "refresh" {
		t.Fatalf("unexpected token pair %+v", envelope.Data)
	}
}

func TestAuthRegisterRejectsShortPassword(t *testing.T) {
	svc := &stubAuthService{registerResp: tokenPair()}
	handler := AuthRegister(svc, nil)

	body := `{"email":"new@example.com","password":"short","name":"New User"}`
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.lastRegister.Email != "" {
		t.Fatal("service must not be called on validation failure")
	}
}

func TestAuthLoginMapsUnauthorized(t *testing.T) {
	svc := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := AuthLogin(svc, nil)

	body := `{"email":"user@example.com","password":"wrongpass"}`
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Message != "invalid credentials" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestAuthGoogleLoginRequiresGoogleID(t *testing.T) {
	svc := &stubAuthService{googleResp: tokenPair()}
	handler := AuthGoogleLogin(svc, nil)

	body := `{"email":"user@example.com","name":"User"}`
	req := httptest.NewRequest(http.MethodPost, "/google", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthRefreshReturnsRotatedPair(t *testing.T) {
	svc := &stubAuthService{refreshResp: &auth.RefreshResponse{AccessToken: "new-access", RefreshToken: "new-refresh"}}
	handler := AuthRefresh(svc, nil)

	body := `{"access_token":"stale","refresh_token":"old-refresh"}`
	req := httptest.NewRequest(http.MethodPost, "/refresh", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data auth.RefreshResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.RefreshToken != "new-refresh" {
		t.Fatalf("unexpected refresh token %q", envelope.Data.RefreshToken)
	}
}

func TestAuthLogoutRevokesSessionByJTI(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	svc := &stubAuthService{}
	handler := AuthLogout(svc, cfg, nil)

	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:    7,
		AccountID: uuid.New(),
		JTI:       accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastLogout != accessID {
		t.Fatalf("expected revoked %s got %s", accessID, svc.lastLogout)
	}
}

func TestAuthLogoutRejectsMissingToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	handler := AuthLogout(&stubAuthService{}, cfg, nil)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
