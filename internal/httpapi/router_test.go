package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/cookie"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/middleware"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/seller"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/session"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, name, email, password string) (string, *user.User, error) {
	args := m.Called(ctx, name, email, password)
	u, _ := args.Get(1).(*user.User)
	return args.String(0), u, args.Error(2)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(1).(*user.User)
	return args.String(0), u, args.Error(2)
}

func (m *MockUserService) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

// Authenticate is served from a fixed token table rather than expectations.
func (m *MockUserService) Authenticate(_ context.Context, token string) (*user.User, error) {
	if u, ok := testUsers[token]; ok {
		return u, nil
	}
	return nil, user.ErrInvalidToken
}

type MockSellerService struct {
	mock.Mock
}

func (m *MockSellerService) GetForUser(ctx context.Context, userID string) (*seller.Profile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*seller.Profile)
	return p, args.Error(1)
}

func (m *MockSellerService) Apply(ctx context.Context, userID string, input seller.ApplyInput) (*seller.Profile, error) {
	args := m.Called(ctx, userID, input)
	p, _ := args.Get(0).(*seller.Profile)
	return p, args.Error(1)
}

func (m *MockSellerService) UpdateStatus(ctx context.Context, profileID string, to seller.Status) (*seller.Profile, error) {
	args := m.Called(ctx, profileID, to)
	p, _ := args.Get(0).(*seller.Profile)
	return p, args.Error(1)
}

var testUsers = map[string]*user.User{
	"tok-user":   {ID: "u-1", Name: "Asha", Email: "asha@example.com", Role: session.RoleUser},
	"tok-seller": {ID: "u-2", Name: "Ravi", Email: "ravi@example.com", Role: session.RoleSeller},
	"tok-admin":  {ID: "u-9", Name: "Root", Email: "root@example.com", Role: session.RoleAdmin},
}

func newTestRouter(t *testing.T) (http.Handler, *MockUserService, *MockSellerService) {
	t.Helper()
	users := new(MockUserService)
	sellers := new(MockSellerService)
	h := NewRouter(Deps{Users: users, Sellers: sellers, AuthLimiter: middleware.NewLimiter(100, 100)})
	return h, users, sellers
}

func do(h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestRouter(t)

	w := do(h, "GET", "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "OK")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthEndpoints(t *testing.T) {
	t.Run("Login sets both cookies", func(t *testing.T) {
		h, users, _ := newTestRouter(t)
		users.On("Login", mock.Anything, "asha@example.com", "pw").Return("tok-user", testUsers["tok-user"], nil)

		w := do(h, "POST", "/api/auth/login", "", `{"email":"asha@example.com","password":"pw"}`)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "tok-user", data["token"])
		assert.Equal(t, "user", data["user"].(map[string]any)["role"])
		assert.NotContains(t, w.Body.String(), "password")

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)
		assert.Equal(t, cookie.TokenName, cookies[0].Name)
		assert.Equal(t, "tok-user", cookies[0].Value)
		assert.Equal(t, cookie.RoleName, cookies[1].Name)
		assert.Equal(t, "user", cookies[1].Value)
	})

	t.Run("Login with stale cookie", func(t *testing.T) {
		h, users, _ := newTestRouter(t)
		users.On("Login", mock.Anything, "asha@example.com", "pw").Return("tok-user", testUsers["tok-user"], nil)

		req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"asha@example.com","password":"pw"}`))
		req.AddCookie(&http.Cookie{Name: cookie.TokenName, Value: "expired"})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Bad credentials", func(t *testing.T) {
		h, users, _ := newTestRouter(t)
		users.On("Login", mock.Anything, "asha@example.com", "nope").Return("", nil, user.ErrInvalidCredentials)

		w := do(h, "POST", "/api/auth/login", "", `{"email":"asha@example.com","password":"nope"}`)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("Register conflict", func(t *testing.T) {
		h, users, _ := newTestRouter(t)
		users.On("Register", mock.Anything, "Asha", "asha@example.com", "pw").Return("", nil, user.ErrEmailExists)

		w := do(h, "POST", "/api/auth/register", "", `{"name":"Asha","email":"asha@example.com","password":"pw"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Register created", func(t *testing.T) {
		h, users, _ := newTestRouter(t)
		users.On("Register", mock.Anything, "Asha", "asha@example.com", "pw").Return("tok-user", testUsers["tok-user"], nil)

		w := do(h, "POST", "/api/auth/register", "", `{"name":"Asha","email":"asha@example.com","password":"pw"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Len(t, w.Result().Cookies(), 2)
	})

	t.Run("Malformed body", func(t *testing.T) {
		h, _, _ := newTestRouter(t)

		w := do(h, "POST", "/api/auth/login", "", `{`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Logout expires cookies", func(t *testing.T) {
		h, _, _ := newTestRouter(t)

		w := do(h, "POST", "/api/auth/logout", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		for _, c := range w.Result().Cookies() {
			assert.Equal(t, -1, c.MaxAge)
			assert.Empty(t, c.Value)
		}
	})

	t.Run("Me", func(t *testing.T) {
		h, users, _ := newTestRouter(t)
		users.On("GetByID", mock.Anything, "u-1").Return(&user.User{ID: "u-1", Name: "Asha", Role: session.RoleSeller}, nil)

		w := do(h, "GET", "/api/auth/me", "tok-user", "")

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, "seller", data["role"])
		assert.Equal(t, "Asha", data["name"])
	})

	t.Run("Me anonymous", func(t *testing.T) {
		h, _, _ := newTestRouter(t)

		w := do(h, "GET", "/api/auth/me", "", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSellerEndpoints(t *testing.T) {
	profile := &seller.Profile{ID: "sp-1", UserID: "u-1", StoreName: "Asha Crafts", Status: seller.StatusPending}

	t.Run("Me found", func(t *testing.T) {
		h, _, sellers := newTestRouter(t)
		sellers.On("GetForUser", mock.Anything, "u-1").Return(profile, nil)

		w := do(h, "GET", "/api/sellers/me", "tok-user", "")

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, "pending", data["status"])
	})

	t.Run("Me not found", func(t *testing.T) {
		h, _, sellers := newTestRouter(t)
		sellers.On("GetForUser", mock.Anything, "u-1").Return(nil, seller.ErrProfileNotFound)

		w := do(h, "GET", "/api/sellers/me", "tok-user", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["success"])
	})

	t.Run("Me failure", func(t *testing.T) {
		h, _, sellers := newTestRouter(t)
		sellers.On("GetForUser", mock.Anything, "u-1").Return(nil, errors.New("db down"))

		w := do(h, "GET", "/api/sellers/me", "tok-user", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db down")
	})

	t.Run("Me bad token", func(t *testing.T) {
		h, _, _ := newTestRouter(t)

		w := do(h, "GET", "/api/sellers/me", "forged", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Apply", func(t *testing.T) {
		h, _, sellers := newTestRouter(t)
		in := seller.ApplyInput{StoreName: "Asha Crafts"}
		sellers.On("Apply", mock.Anything, "u-1", in).Return(profile, nil)

		w := do(h, "POST", "/api/sellers/apply", "tok-user", `{"storeName":"Asha Crafts"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		sellers.AssertExpectations(t)

		cookies := map[string]string{}
		for _, c := range w.Result().Cookies() {
			cookies[c.Name] = c.Value
		}
		assert.Equal(t, "tok-user", cookies[cookie.TokenName])
		assert.Equal(t, "seller", cookies[cookie.RoleName])
	})

	t.Run("Apply by seller keeps cookies", func(t *testing.T) {
		h, _, sellers := newTestRouter(t)
		sellers.On("Apply", mock.Anything, "u-2", mock.Anything).Return(profile, nil)

		w := do(h, "POST", "/api/sellers/apply", "tok-seller", `{"storeName":"Ravi Goods"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("Apply twice", func(t *testing.T) {
		h, _, sellers := newTestRouter(t)
		sellers.On("Apply", mock.Anything, "u-1", mock.Anything).Return(nil, seller.ErrProfileExists)

		w := do(h, "POST", "/api/sellers/apply", "tok-user", `{"storeName":"Asha Crafts"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Status change needs admin", func(t *testing.T) {
		h, _, sellers := newTestRouter(t)

		w := do(h, "PATCH", "/api/admin/sellers/sp-1/status", "tok-user", `{"status":"approved"}`)

		assert.Equal(t, http.StatusForbidden, w.Code)
		sellers.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("Status change", func(t *testing.T) {
		h, _, sellers := newTestRouter(t)
		approved := *profile
		approved.Status = seller.StatusApproved
		sellers.On("UpdateStatus", mock.Anything, "sp-1", seller.StatusApproved).Return(&approved, nil)

		w := do(h, "PATCH", "/api/admin/sellers/sp-1/status", "tok-admin", `{"status":"approved"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "approved", decodeBody(t, w)["data"].(map[string]any)["status"])
	})

	t.Run("Status change not allowed", func(t *testing.T) {
		h, _, sellers := newTestRouter(t)
		sellers.On("UpdateStatus", mock.Anything, "sp-1", seller.StatusApproved).Return(nil, seller.ErrInvalidTransition)

		w := do(h, "PATCH", "/api/admin/sellers/sp-1/status", "tok-admin", `{"status":"approved"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Unknown api path", func(t *testing.T) {
		h, _, _ := newTestRouter(t)

		w := do(h, "GET", "/api/nope", "", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPages(t *testing.T) {
	h, _, _ := newTestRouter(t)

	page := func(path, token, role string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", path, nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: cookie.TokenName, Value: token})
		}
		if role != "" {
			req.AddCookie(&http.Cookie{Name: cookie.RoleName, Value: role})
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	t.Run("Public page", func(t *testing.T) {
		w := page("/products/shoes", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/products/shoes")
	})

	t.Run("Admin anonymous", func(t *testing.T) {
		w := page("/admin/sellers", "", "")
		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, "/admin-login", w.Header().Get("Location"))
	})

	t.Run("Seller page as user", func(t *testing.T) {
		w := page("/seller/products", "tok", "user")
		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("Onboarding anonymous", func(t *testing.T) {
		w := page("/seller/onboarding", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Unverified token trusted", func(t *testing.T) {
		w := page("/admin", "anything", "admin")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestPagesProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("frontend:" + r.URL.Path))
	}))
	defer upstream.Close()

	pages, err := NewPages(upstream.URL)
	require.NoError(t, err)
	h := NewRouter(Deps{Users: new(MockUserService), Sellers: new(MockSellerService), Pages: pages})

	w := do(h, "GET", "/cart", "", "")
	assert.Equal(t, "frontend:/cart", w.Body.String())

	w = do(h, "GET", "/seller", "", "")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)

	_, err = NewPages("not a url")
	assert.Error(t, err)
}

func TestAuthRateLimit(t *testing.T) {
	users := new(MockUserService)
	users.On("Login", mock.Anything, mock.Anything, mock.Anything).Return("", nil, user.ErrInvalidCredentials)
	h := NewRouter(Deps{Users: users, Sellers: new(MockSellerService), AuthLimiter: middleware.NewLimiter(0, 2)})

	var codes []int
	for i := 0; i < 3; i++ {
		w := do(h, "POST", "/api/auth/login", "", `{"email":"a@example.com","password":"x"}`)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{401, 401, 429}, codes)
}

func TestWriteRateLimit(t *testing.T) {
	sellers := new(MockSellerService)
	sellers.On("Apply", mock.Anything, mock.Anything, mock.Anything).Return(nil, seller.ErrProfileExists)
	h := NewRouter(Deps{Users: new(MockUserService), Sellers: sellers, WriteLimiter: middleware.NewLimiter(0, 1)})

	body := `{"storeName":"Asha Crafts"}`
	assert.Equal(t, http.StatusConflict, do(h, "POST", "/api/sellers/apply", "tok-user", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, "POST", "/api/sellers/apply", "tok-user", body).Code)
	// buckets are per user, not per address
	assert.Equal(t, http.StatusConflict, do(h, "POST", "/api/sellers/apply", "tok-seller", body).Code)
	// reads are not limited
	sellers.On("GetForUser", mock.Anything, "u-1").Return(nil, seller.ErrProfileNotFound)
	assert.Equal(t, http.StatusNotFound, do(h, "GET", "/api/sellers/me", "tok-user", "").Code)
}
