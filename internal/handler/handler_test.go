package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Payphone-Digital/tracker/internal/authz"
	"github.com/Payphone-Digital/tracker/internal/constants"
	"github.com/Payphone-Digital/tracker/internal/dto"
	apperrors "github.com/Payphone-Digital/tracker/internal/errors"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthService struct {
	registerReq  dto.RegisterRequest
	registerErr  error
	loginErr     error
	revoked      string
	resetToken   string
	resetOK      bool
	changeUserID string
	changeErr    error
}

func (f *fakeAuthService) Register(_ context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	f.registerReq = req
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &dto.AuthResponse{Success: true, Errors: []string{}, Token: "access", RefreshToken: "refresh", Email: req.Email}, nil
}

func (f *fakeAuthService) Login(_ context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &dto.AuthResponse{Success: true, Errors: []string{}, Token: "access", UserID: "u-1", Email: req.Email}, nil
}

func (f *fakeAuthService) RefreshToken(_ context.Context, accessToken, refreshToken string) (*dto.AuthResponse, error) {
	if refreshToken != "good" {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	return &dto.AuthResponse{Success: true, Errors: []string{}, Token: accessToken + "-next", RefreshToken: "rotated"}, nil
}

func (f *fakeAuthService) RevokeToken(_ context.Context, accessToken string) error {
	f.revoked = accessToken
	return nil
}

func (f *fakeAuthService) GeneratePasswordResetToken(_ context.Context, email string) (string, error) {
	if email == "known@example.com" {
		return f.resetToken, nil
	}
	return "", nil
}

func (f *fakeAuthService) ResetPassword(context.Context, string, string, string) (bool, error) {
	return f.resetOK, nil
}

func (f *fakeAuthService) ChangePassword(_ context.Context, userID string, _ dto.ChangePasswordRequest) error {
	f.changeUserID = userID
	return f.changeErr
}

type fakeUsers struct {
	users       map[string]dto.UserResponse
	deactivated []string
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*dto.UserResponse, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) GetAll(_ context.Context, limit, offset int, _ string) ([]dto.UserResponse, int64, error) {
	var out []dto.UserResponse
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUsers) Deactivate(_ context.Context, actorID, id string) error {
	if actorID == id {
		return apperrors.ErrSelfDeactivation
	}
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeUsers) Activate(context.Context, string) error { return nil }

type fakeAudit struct{}

func (fakeAudit) ListForUser(_ context.Context, _ string, limit int) ([]dto.AuthEventResponse, error) {
	return []dto.AuthEventResponse{{Event: "Login", Success: true}}, nil
}

const (
	adminID  = "9b2d3c4e-0000-4000-8000-00000000000a"
	clientID = "9b2d3c4e-0000-4000-8000-00000000000c"
)

// withPrincipal stands in for RequireAuth
func withPrincipal(p *authz.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			c.Set(constants.GinKeyPrincipal, p)
		}
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
	Token   string   `json:"token"`
	Message string   `json:"message"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return env
}

func newAuthRouter(svc *fakeAuthService, expose bool, principal *authz.Principal) *gin.Engine {
	users := &fakeUsers{users: map[string]dto.UserResponse{clientID: {ID: clientID, Email: "client@example.com"}}}
	h := NewAuthHandler(svc, users, fakeAudit{}, expose)

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/refresh-token", h.RefreshToken)
	r.POST("/revoke-token", h.RevokeToken)
	r.POST("/forgot-password", h.ForgotPassword)
	r.POST("/reset-password", h.ResetPassword)

	authed := r.Group("/", withPrincipal(principal))
	authed.GET("/me", h.Me)
	authed.GET("/me/events", h.MyEvents)
	authed.POST("/change-password", h.ChangePassword)
	return r
}

func TestAuthHandler_Register(t *testing.T) {
	valid := map[string]string{
		"email":      "new@example.com",
		"password":   "Str0ng!Passw0rd",
		"first_name": "New",
		"last_name":  "User",
	}

	t.Run("success", func(t *testing.T) {
		svc := &fakeAuthService{}
		w := doJSON(newAuthRouter(svc, false, nil), http.MethodPost, "/register", valid, nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if env := decode(t, w); !env.Success || env.Token != "access" {
			t.Errorf("unexpected body %+v", env)
		}
	})

	t.Run("admin role is not self assignable", func(t *testing.T) {
		svc := &fakeAuthService{}
		body := map[string]string{"role": constants.RoleAdmin}
		for k, v := range valid {
			body[k] = v
		}
		w := doJSON(newAuthRouter(svc, false, nil), http.MethodPost, "/register", body, nil)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if svc.registerReq.Email != "" {
			t.Error("service must not be called for a rejected role")
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		w := doJSON(newAuthRouter(&fakeAuthService{}, false, nil), http.MethodPost, "/register", map[string]string{"email": "x"}, nil)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if env := decode(t, w); env.Success || len(env.Errors) == 0 {
			t.Errorf("expected validation errors, got %+v", env)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := &fakeAuthService{registerErr: apperrors.ErrDuplicateEmail}
		w := doJSON(newAuthRouter(svc, false, nil), http.MethodPost, "/register", valid, nil)

		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
		env := decode(t, w)
		if len(env.Errors) != 1 || env.Errors[0] != apperrors.ErrDuplicateEmail.Message {
			t.Errorf("unexpected errors %v", env.Errors)
		}
	})
}

func TestAuthHandler_Login(t *testing.T) {
	body := map[string]string{"email": "alice@example.com", "password": "whatever"}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "bad password", err: apperrors.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "locked", err: apperrors.LockedError(15), wantStatus: http.StatusLocked},
		{name: "deactivated", err: apperrors.ErrAccountDeactivated, wantStatus: http.StatusForbidden},
		{name: "unexpected failure", err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(newAuthRouter(&fakeAuthService{loginErr: tt.err}, false, nil), http.MethodPost, "/login", body, nil)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			env := decode(t, w)
			if env.Success != (tt.err == nil) {
				t.Errorf("unexpected success flag in %+v", env)
			}
			if tt.err != nil && env.Token != "" {
				t.Error("failure must not carry a token")
			}
		})
	}
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	r := newAuthRouter(&fakeAuthService{}, false, nil)

	w := doJSON(r, http.MethodPost, "/refresh-token", map[string]string{"token": "old", "refresh_token": "good"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if env := decode(t, w); env.Token != "old-next" {
		t.Errorf("unexpected token %q", env.Token)
	}

	w = doJSON(r, http.MethodPost, "/refresh-token", map[string]string{"token": "old", "refresh_token": "stale"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_RevokeToken(t *testing.T) {
	t.Run("body token", func(t *testing.T) {
		svc := &fakeAuthService{}
		w := doJSON(newAuthRouter(svc, false, nil), http.MethodPost, "/revoke-token", map[string]string{"token": "from-body"}, nil)

		if w.Code != http.StatusOK || svc.revoked != "from-body" {
			t.Fatalf("expected body token revoked, got %d %q", w.Code, svc.revoked)
		}
	})

	t.Run("authorization header", func(t *testing.T) {
		svc := &fakeAuthService{}
		w := doJSON(newAuthRouter(svc, false, nil), http.MethodPost, "/revoke-token", nil,
			map[string]string{"Authorization": "Bearer from-header"})

		if w.Code != http.StatusOK || svc.revoked != "from-header" {
			t.Fatalf("expected header token revoked, got %d %q", w.Code, svc.revoked)
		}
	})

	t.Run("no token", func(t *testing.T) {
		w := doJSON(newAuthRouter(&fakeAuthService{}, false, nil), http.MethodPost, "/revoke-token", nil, nil)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	svc := &fakeAuthService{resetToken: "reset-123"}

	known := doJSON(newAuthRouter(svc, false, nil), http.MethodPost, "/forgot-password", map[string]string{"email": "known@example.com"}, nil)
	unknown := doJSON(newAuthRouter(svc, false, nil), http.MethodPost, "/forgot-password", map[string]string{"email": "ghost@example.com"}, nil)

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("expected 200 for both, got %d and %d", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Errorf("responses must not reveal whether the email exists:\n%s\n%s", known.Body.String(), unknown.Body.String())
	}
	if env := decode(t, known); env.Token != "" || env.Message != forgotPasswordMessage {
		t.Errorf("unexpected body %+v", env)
	}

	exposed := doJSON(newAuthRouter(svc, true, nil), http.MethodPost, "/forgot-password", map[string]string{"email": "known@example.com"}, nil)
	if env := decode(t, exposed); env.Token != "reset-123" {
		t.Errorf("expected exposed token, got %q", env.Token)
	}
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	body := map[string]string{"email": "known@example.com", "token": "t", "new_password": "N3w!Password"}

	w := doJSON(newAuthRouter(&fakeAuthService{resetOK: false}, false, nil), http.MethodPost, "/reset-password", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env := decode(t, w); len(env.Errors) != 1 || env.Errors[0] != "Invalid token." {
		t.Errorf("unexpected errors %v", env.Errors)
	}

	w = doJSON(newAuthRouter(&fakeAuthService{resetOK: true}, false, nil), http.MethodPost, "/reset-password", body, nil)
	if w.Code != http.StatusOK || !decode(t, w).Success {
		t.Fatalf("expected success, got %d %s", w.Code, w.Body.String())
	}
}

func TestAuthHandler_Me(t *testing.T) {
	principal := &authz.Principal{UserID: clientID, Role: constants.RoleClient}

	w := doJSON(newAuthRouter(&fakeAuthService{}, false, principal), http.MethodGet, "/me", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var user dto.UserResponse
	_ = json.Unmarshal(w.Body.Bytes(), &user)
	if user.ID != clientID {
		t.Errorf("unexpected user %+v", user)
	}

	w = doJSON(newAuthRouter(&fakeAuthService{}, false, nil), http.MethodGet, "/me", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", w.Code)
	}

	w = doJSON(newAuthRouter(&fakeAuthService{}, false, principal), http.MethodGet, "/me/events", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for events, got %d", w.Code)
	}
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	principal := &authz.Principal{UserID: clientID, Role: constants.RoleClient}
	body := map[string]string{"current_password": "old", "new_password": "N3w!Password", "confirm_password": "N3w!Password"}

	svc := &fakeAuthService{}
	w := doJSON(newAuthRouter(svc, false, principal), http.MethodPost, "/change-password", body, nil)
	if w.Code != http.StatusOK || svc.changeUserID != clientID {
		t.Fatalf("expected change for caller, got %d %q", w.Code, svc.changeUserID)
	}

	svc = &fakeAuthService{changeErr: apperrors.ErrIncorrectPassword}
	w = doJSON(newAuthRouter(svc, false, principal), http.MethodPost, "/change-password", body, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestUserHandler(t *testing.T) {
	users := &fakeUsers{users: map[string]dto.UserResponse{
		clientID: {ID: clientID, Email: "client@example.com"},
	}}
	h := NewUserHandler(users)

	r := gin.New()
	admin := r.Group("/users", withPrincipal(&authz.Principal{UserID: adminID, Role: constants.RoleAdmin}))
	admin.GET("", h.GetAll)
	admin.GET("/:id", h.GetByID)
	admin.POST("/:id/deactivate", h.Deactivate)

	w := doJSON(r, http.MethodGet, "/users?page=1&limit=10", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list[constants.ResponseFieldTotal] != float64(1) || list[constants.ResponseFieldPageTotal] != float64(1) {
		t.Errorf("unexpected list body %v", list)
	}

	if w := doJSON(r, http.MethodGet, "/users/not-a-uuid", nil, nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/users/"+adminID, nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown user, got %d", w.Code)
	}

	if w := doJSON(r, http.MethodPost, "/users/"+adminID+"/deactivate", nil, nil); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for self deactivation, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/users/"+clientID+"/deactivate", nil, nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if len(users.deactivated) != 1 || users.deactivated[0] != clientID {
		t.Errorf("unexpected deactivations %v", users.deactivated)
	}
}

type fakeOrgs struct {
	listAll bool
}

func (f *fakeOrgs) Create(_ context.Context, req dto.CreateOrganizationRequest) (*dto.OrganizationResponse, error) {
	if req.Name == "Taken" {
		return nil, apperrors.ErrOrganizationExists
	}
	return &dto.OrganizationResponse{ID: "org-1", Name: req.Name}, nil
}

func (f *fakeOrgs) List(_ context.Context, _ string, all bool, _, _ int) ([]dto.OrganizationResponse, int64, error) {
	f.listAll = all
	return nil, 0, nil
}

func (f *fakeOrgs) Get(context.Context, string) (*dto.OrganizationResponse, error) {
	return nil, apperrors.ErrOrganizationMissing
}

func (f *fakeOrgs) AddMember(context.Context, string, string) error { return nil }

func TestOrganizationHandler(t *testing.T) {
	orgs := &fakeOrgs{}
	h := NewOrganizationHandler(orgs)

	r := gin.New()
	g := r.Group("/orgs", withPrincipal(&authz.Principal{UserID: adminID, Role: constants.RoleAdmin}))
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/members", h.AddMember)

	if w := doJSON(r, http.MethodPost, "/orgs", map[string]string{"name": "Acme"}, nil); w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/orgs", map[string]string{"name": "Taken"}, nil); w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}

	w := doJSON(r, http.MethodGet, "/orgs", nil, nil)
	if w.Code != http.StatusOK || !orgs.listAll {
		t.Errorf("admin must list every organization, got %d all=%v", w.Code, orgs.listAll)
	}

	if w := doJSON(r, http.MethodGet, "/orgs/"+clientID, nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/orgs/"+clientID+"/members", map[string]string{"user_id": "nope"}, nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed member id, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/orgs/"+clientID+"/members", map[string]string{"user_id": adminID}, nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	ok := PingerFunc(func(context.Context) error { return nil })
	down := PingerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		db, redis  Pinger
		wantStatus int
		wantRedis  string
	}{
		{name: "all healthy", db: ok, redis: ok, wantStatus: http.StatusOK, wantRedis: statusHealthy},
		{name: "redis disabled", db: ok, wantStatus: http.StatusOK, wantRedis: statusDisabled},
		{name: "redis down", db: ok, redis: down, wantStatus: http.StatusOK, wantRedis: statusUnhealthy},
		{name: "database down", db: down, redis: ok, wantStatus: http.StatusServiceUnavailable, wantRedis: statusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, tt.redis)
			h.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

			r := gin.New()
			r.GET("/health", h.HealthCheck)
			w := doJSON(r, http.MethodGet, "/health", nil, nil)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			var resp HealthCheckResponse
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Checks["redis"].Status != tt.wantRedis {
				t.Errorf("expected redis %s, got %s", tt.wantRedis, resp.Checks["redis"].Status)
			}
		})
	}
}
