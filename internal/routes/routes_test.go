package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/cache"
	"ecoshop_back_end/internal/config"
	"ecoshop_back_end/internal/handlers"
	"ecoshop_back_end/internal/handlers/order"
	"ecoshop_back_end/internal/handlers/product"
	"ecoshop_back_end/internal/handlers/user"
	"ecoshop_back_end/internal/middleware"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository/memory"
	"ecoshop_back_end/internal/services"
	"ecoshop_back_end/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.UseJSONFieldNames()
}

type stubPDF struct{}

func (stubPDF) RenderPDF(_ context.Context, html string) ([]byte, error) {
	return append([]byte("%PDF-1.4\n"), html[:16]...), nil
}

type apiFixture struct {
	router   *gin.Engine
	auth     *services.AuthService
	users    *memory.UserRepository
	products *memory.ProductRepository

	admin    *models.User
	customer *models.User
	other    *models.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := zap.NewNop()
	users := memory.NewUserRepository()
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	movements := memory.NewStockMovementRepository()

	hash, err := utils.HashPassword("secret-pass")
	require.NoError(t, err)
	f := &apiFixture{
		users:    users,
		products: products,
		admin:    &models.User{ID: "a1", Name: "Root", Email: "root@example.com", Password: hash, Role: models.RoleAdmin},
		customer: &models.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Password: hash, Role: models.RoleCustomer},
		other:    &models.User{ID: "u2", Name: "Bob", Email: "bob@example.com", Password: hash, Role: models.RoleCustomer},
	}
	ctx := context.Background()
	for _, u := range []*models.User{f.admin, f.customer, f.other} {
		require.NoError(t, users.Create(ctx, u))
	}

	store := cache.NewStore(rdb)
	f.auth = services.NewAuthService(utils.NewTokenIssuer("test-secret", time.Hour), store, users, logger)
	images := services.NewMinioImageStore(nil, config.MinIOConfig{}, logger)
	inventory := services.NewInventoryService(products, movements, logger)
	events := services.NewEventBus(rdb, logger)
	orderSvc := services.NewOrderService(orders, users, inventory,
		services.NewNotifier(utils.NewLogMailer(logger), users, logger), events, nil, logger)

	f.router = New(Deps{
		Logger: logger,
		Auth:   f.auth,
		Store:  store,
		Health: handlers.NewHealthHandler(map[string]handlers.Check{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		Orders: order.NewHandler(orderSvc,
			services.NewInvoiceService(orderSvc, stubPDF{}, config.InvoiceConfig{Beneficiary: "EcoShop"}, logger),
			events, ""),
		Product: product.NewHandler(
			services.NewProductService(products, inventory, images, nil, logger),
			services.NewReviewService(products, logger),
			inventory, t.TempDir()),
		Users: user.NewHandler(services.NewUserService(users, images, logger), f.auth, user.Options{
			UploadDir:    t.TempDir(),
			CookieMaxAge: 3600,
			FrontendURL:  "http://shop.test",
		}),
	})
	return f
}

func (f *apiFixture) token(t *testing.T, u *models.User) string {
	t.Helper()
	token, _, err := f.auth.Issue(u)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok, w.Body.String())
	msg, _ := errBody["message"].(string)
	return msg
}

func TestHealthAndMetrics(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["checks"].(map[string]any)["redis"])

	w = f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ecoshop_http_requests_total")
}

func TestRegisterLoginLogout(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/register", "", map[string]string{
		"name": "Grace", "email": "grace@example.com", "password": "hopper-123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "customer", body["user"].(map[string]any)["role"])
	assert.Contains(t, w.Header().Get("Set-Cookie"), middleware.TokenCookie+"=")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "HttpOnly")

	w = f.do(t, http.MethodPost, "/api/v1/register", "", map[string]string{
		"name": "Grace", "email": "grace@example.com", "password": "hopper-123",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Duplicate email entered", errorMessage(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "grace@example.com", "password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", errorMessage(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "grace@example.com", "password": "hopper-123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["token"].(string)

	w = f.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "grace@example.com", decode(t, w)["user"].(map[string]any)["email"])

	w = f.do(t, http.MethodGet, "/api/v1/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged Out", decode(t, w)["message"])

	w = f.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has been revoked", errorMessage(t, w))
}

func TestRegisterValidationFields(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/register", "", map[string]string{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["error"].(map[string]any)["fields"].(map[string]any)
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be a valid email", fields["email"])
	assert.Equal(t, "is required", fields["password"])
}

func TestUpdatePasswordReissuesToken(t *testing.T) {
	f := newAPIFixture(t)
	old := f.token(t, f.customer)

	w := f.do(t, http.MethodPut, "/api/v1/password/update", old, map[string]string{
		"oldPassword": "secret-pass", "newPassword": "brand-new-pass", "confirmPassword": "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fresh := decode(t, w)["token"].(string)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/me", old, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/me", fresh, nil).Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/admin/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Please Login to access this resource", errorMessage(t, w))

	w = f.do(t, http.MethodGet, "/api/v1/admin/users", f.token(t, f.customer), nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Role: customer is not allowed to access this resource", errorMessage(t, w))

	admin := f.token(t, f.admin)
	w = f.do(t, http.MethodGet, "/api/v1/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["users"], 3)

	w = f.do(t, http.MethodPut, "/api/v1/admin/user/u2", admin, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", decode(t, w)["user"].(map[string]any)["role"])

	w = f.do(t, http.MethodPut, "/api/v1/admin/user/u2", admin, map[string]string{"role": "owner"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, "/api/v1/admin/user/u2", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/admin/user/u2", admin, nil).Code)
}

func (f *apiFixture) createProduct(t *testing.T, name string, price float64, stock int) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/admin/product/new", f.token(t, f.admin), map[string]any{
		"name": name, "description": "Solar powered", "price": price, "category": "Lighting", "stock": stock,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["product"].(map[string]any)["_id"].(string)
}

func TestProductCatalogAndReviews(t *testing.T) {
	f := newAPIFixture(t)
	lamp := f.createProduct(t, "Garden Lamp", 25, 10)
	f.createProduct(t, "Desk Fan", 60, 3)

	w := f.do(t, http.MethodPost, "/api/v1/admin/product/new", f.token(t, f.customer), map[string]any{"name": "x"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/products?keyword=lamp&price[lte]=30", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(2), body["productsCount"])
	assert.Equal(t, float64(1), body["filteredProductsCount"])
	assert.Equal(t, float64(services.DefaultResultPerPage), body["resultPerPage"])

	w = f.do(t, http.MethodGet, "/api/v1/products?price[gte]=abc", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/product/missing", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/review", f.token(t, f.customer), map[string]any{
		"productId": lamp, "rating": 4, "comment": "Bright",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(4), decode(t, w)["ratings"])

	w = f.do(t, http.MethodPut, "/api/v1/review", f.token(t, f.other), map[string]any{
		"productId": lamp, "rating": 2,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["ratings"])

	w = f.do(t, http.MethodGet, "/api/v1/reviews?id="+lamp, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reviews := decode(t, w)["reviews"].([]any)
	require.Len(t, reviews, 2)
	first := reviews[0].(map[string]any)

	// Only the author or an admin may delete.
	path := "/api/v1/reviews?productId=" + lamp + "&id=" + first["_id"].(string)
	var owner, stranger *models.User
	if first["user"] == f.customer.ID {
		owner, stranger = f.customer, f.other
	} else {
		owner, stranger = f.other, f.customer
	}
	w = f.do(t, http.MethodDelete, path, f.token(t, stranger), nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You are not allowed to delete this review", errorMessage(t, w))

	w = f.do(t, http.MethodDelete, path, f.token(t, owner), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["numOfReviews"])
}

func TestProductStockEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	lamp := f.createProduct(t, "Garden Lamp", 25, 10)
	admin := f.token(t, f.admin)

	w := f.do(t, http.MethodPut, "/api/v1/admin/product/"+lamp+"/stock", admin, map[string]any{"quantity": 5, "type": "restock"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPut, "/api/v1/admin/product/"+lamp+"/stock", admin, map[string]any{"quantity": -20, "type": "adjustment"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/admin/product/"+lamp+"/stock", admin, map[string]any{"quantity": 1, "type": "gift"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	p, err := f.products.GetByID(context.Background(), lamp)
	require.NoError(t, err)
	assert.Equal(t, 15, p.Stock)

	w = f.do(t, http.MethodGet, "/api/v1/admin/product/"+lamp+"/stock/movements", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["movements"], 1)
}

func TestCreateProductAcceptsCapitalisedStock(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.token(t, f.admin)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"name": "Solar Lantern", "description": "Folding", "price": "40", "category": "Lighting", "Stock": "12",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/product/new", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["product"].(map[string]any)
	assert.Equal(t, float64(12), created["stock"])
	assert.Empty(t, created["images"], "products may be created without images")

	w = f.do(t, http.MethodPost, "/api/v1/admin/product/new", admin, map[string]any{
		"name": "Hand Crank Radio", "description": "No batteries", "price": 55, "category": "Lighting", "Stock": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, float64(4), decode(t, w)["product"].(map[string]any)["stock"])
}

func orderBody(productID string, quantity int) map[string]any {
	return map[string]any{
		"shippingInfo": map[string]string{
			"address": "1 Main St", "city": "Pune", "state": "MH", "country": "IN",
			"pinCode": "411001", "phoneNo": "9999999999",
		},
		"orderItems": []map[string]any{
			{"product": productID, "name": "Garden Lamp", "quantity": quantity, "price": 25},
		},
		"paymentInfo":   map[string]string{"id": "pi_123", "status": "succeeded"},
		"itemsPrice":    25 * quantity,
		"taxPrice":      0,
		"shippingPrice": 0,
		"totalPrice":    25 * quantity,
	}
}

func TestOrderLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	lamp := f.createProduct(t, "Garden Lamp", 25, 10)
	customer, admin := f.token(t, f.customer), f.token(t, f.admin)

	w := f.do(t, http.MethodPost, "/api/v1/order/new", customer, orderBody(lamp, 2))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["order"].(map[string]any)
	assert.Equal(t, "Processing", created["orderStatus"])
	id := created["_id"].(string)

	w = f.do(t, http.MethodGet, "/api/v1/order/"+id, f.token(t, f.other), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/order/"+id, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/orders/me", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["orders"], 1)

	w = f.do(t, http.MethodPut, "/api/v1/admin/order/"+id, admin, map[string]string{"status": "Processing"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Order status can only be changed to Shipped or Delivered", errorMessage(t, w))

	w = f.do(t, http.MethodPut, "/api/v1/admin/order/"+id, admin, map[string]string{"status": "Shipped"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	p, err := f.products.GetByID(context.Background(), lamp)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)

	w = f.do(t, http.MethodPut, "/api/v1/order/"+id+"/cancel", customer, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Order cannot be cancelled as it is already Shipped", errorMessage(t, w))

	w = f.do(t, http.MethodPut, "/api/v1/admin/order/"+id, admin, map[string]string{"status": "Delivered"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Delivered", decode(t, w)["order"].(map[string]any)["orderStatus"])

	w = f.do(t, http.MethodPut, "/api/v1/admin/order/"+id, admin, map[string]string{"status": "Shipped"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You have already delivered this order", errorMessage(t, w))

	w = f.do(t, http.MethodGet, "/api/v1/admin/orders", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(50), decode(t, w)["totalAmount"])

	w = f.do(t, http.MethodDelete, "/api/v1/admin/order/"+id, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/order/"+id, admin, nil).Code)
}

func TestOrderCancelRestoresNothingBeforeShipping(t *testing.T) {
	f := newAPIFixture(t)
	lamp := f.createProduct(t, "Garden Lamp", 25, 10)
	customer := f.token(t, f.customer)

	w := f.do(t, http.MethodPost, "/api/v1/order/new", customer, orderBody(lamp, 3))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["order"].(map[string]any)["_id"].(string)

	w = f.do(t, http.MethodPut, "/api/v1/order/"+id+"/cancel", f.token(t, f.other), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/order/"+id+"/cancel", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cancelled", decode(t, w)["order"].(map[string]any)["orderStatus"])

	p, err := f.products.GetByID(context.Background(), lamp)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
}

func TestOrderValidation(t *testing.T) {
	f := newAPIFixture(t)
	customer := f.token(t, f.customer)

	body := orderBody("p1", 1)
	body["orderItems"] = []map[string]any{}
	w := f.do(t, http.MethodPost, "/api/v1/order/new", customer, body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body = orderBody("p1", 0)
	w = f.do(t, http.MethodPost, "/api/v1/order/new", customer, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["error"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "orderItems[0].quantity")
}

func TestOrderInvoice(t *testing.T) {
	f := newAPIFixture(t)
	lamp := f.createProduct(t, "Garden Lamp", 25, 10)
	customer := f.token(t, f.customer)

	w := f.do(t, http.MethodPost, "/api/v1/order/new", customer, orderBody(lamp, 1))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["order"].(map[string]any)["_id"].(string)

	w = f.do(t, http.MethodGet, "/api/v1/order/"+id+"/invoice", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice-"+id+".pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = f.do(t, http.MethodGet, "/api/v1/order/"+id+"/invoice?format=html", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)

	w = f.do(t, http.MethodGet, "/api/v1/order/"+id+"/invoice", f.token(t, f.other), nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestPaymentRoutesAbsentWithoutStripe(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/stripeapikey", f.token(t, f.customer), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLiveOrdersStream(t *testing.T) {
	f := newAPIFixture(t)
	lamp := f.createProduct(t, "Garden Lamp", 25, 10)
	customer := f.token(t, f.customer)

	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	header := http.Header{"Authorization": {"Bearer " + customer}}
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/orders/me/live", header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello map[string]any
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello["type"])

	w := f.do(t, http.MethodPost, "/api/v1/order/new", customer, orderBody(lamp, 1))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["order"].(map[string]any)["_id"].(string)
	w = f.do(t, http.MethodPut, "/api/v1/admin/order/"+id, f.token(t, f.admin), map[string]string{"status": "Shipped"})
	require.Equal(t, http.StatusOK, w.Code)

	var msg struct {
		Type  string             `json:"type"`
		Event models.StatusEvent `json:"event"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "order_status", msg.Type)
	assert.Equal(t, id, msg.Event.OrderID)
	assert.Equal(t, models.StatusShipped, msg.Event.Status)
}

func TestLiveOrdersRequiresAuth(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/orders/me/live", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
