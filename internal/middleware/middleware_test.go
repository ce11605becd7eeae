package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/cache"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository/memory"
	"ecoshop_back_end/internal/services"
	"ecoshop_back_end/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	UseJSONFieldNames()
}

type errorResponse struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body
}

type authFixture struct {
	router *gin.Engine
	auth   *services.AuthService
	users  *memory.UserRepository
	store  *cache.Store
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := memory.NewUserRepository()
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &models.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: models.RoleCustomer}))
	require.NoError(t, users.Create(ctx, &models.User{ID: "a1", Name: "Root", Email: "root@example.com", Role: models.RoleAdmin}))

	store := cache.NewStore(rdb)
	auth := services.NewAuthService(utils.NewTokenIssuer("test-secret", time.Hour), store, users, zap.NewNop())

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/me", AuthRequired(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "id": CurrentUser(c).ID})
	})
	r.GET("/admin", AuthRequired(auth), AuthorizeRoles(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return &authFixture{router: r, auth: auth, users: users, store: store}
}

func (f *authFixture) token(t *testing.T, id string) string {
	t.Helper()
	user, err := f.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	token, _, err := f.auth.Issue(user)
	require.NoError(t, err)
	return token
}

func TestAuthRequired_CookieAndBearer(t *testing.T) {
	f := newAuthFixture(t)
	token := f.token(t, "u1")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u1"`)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired_Rejects(t *testing.T) {
	f := newAuthFixture(t)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, w).Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := f.token(t, "u1")
	claims, err := utils.NewTokenIssuer("test-secret", time.Hour).Parse(token)
	require.NoError(t, err)
	require.NoError(t, f.auth.Revoke(context.Background(), claims))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorizeRoles(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "u1"))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Role: customer is not allowed to access this resource", decodeError(t, w).Error.Message)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "a1"))
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestErrorHandler_ValidationFields(t *testing.T) {
	type payload struct {
		Email    string `json:"email" binding:"required,email"`
		Quantity int    `json:"quantity" binding:"required,min=1"`
	}
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/x", func(c *gin.Context) {
		var p payload
		if err := c.ShouldBindJSON(&p); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"email":"nope"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "must be a valid email", body.Error.Fields["email"])
	assert.Equal(t, "is required", body.Error.Fields["quantity"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorHandler_AppErrors(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/nf", func(c *gin.Context) { _ = c.Error(apperrors.NotFound("Order", "o1")) })
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(assert.AnError) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nf", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order not found with this id: o1", decodeError(t, w).Error.Message)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestLoginRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	guard := cache.NewLoginGuard(cache.NewStore(rdb))

	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/login", LoginRateLimit(guard), func(c *gin.Context) {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = c.ShouldBindJSON(&in)
		if in.Password != "right" {
			_ = c.Error(apperrors.Unauthorized("Invalid email or password"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	login := func(password string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		body := `{"email":"ada@example.com","password":"` + password + `"}`
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body)))
		return w
	}

	assert.Equal(t, http.StatusOK, login("right").Code, "handler still sees the body")

	for i := 0; i < cache.LoginMaxAttempts; i++ {
		assert.Equal(t, http.StatusUnauthorized, login("wrong").Code)
	}
	w := login("right")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	mr.FastForward(cache.LoginCooldown + time.Second)
	assert.Equal(t, http.StatusOK, login("right").Code)
}

func TestAPIRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(ErrorHandler(), APIRateLimit(cache.NewStore(rdb), 2, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()), Metrics(), ErrorHandler())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}
