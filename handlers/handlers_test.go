package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopnest/shopnest-backend-go/handlers"
	"github.com/shopnest/shopnest-backend-go/identity"
	"github.com/shopnest/shopnest-backend-go/middleware"
	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/routes"
	"github.com/shopnest/shopnest-backend-go/services"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/store/memstore"
	"github.com/shopnest/shopnest-backend-go/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// verifier accepts tokens of the form "ok:<subject>".
type verifier struct{}

func (verifier) Verify(token string) (*utils.SessionClaims, error) {
	subject, ok := strings.CutPrefix(token, "ok:")
	if !ok || subject == "" {
		return nil, errors.New("bad token")
	}
	claims := &utils.SessionClaims{}
	claims.Subject = subject
	return claims, nil
}

func (v verifier) VerifyParty(token string) (*utils.SessionClaims, error) {
	return v.Verify(token)
}

type profiles map[string]identity.Profile

func (p profiles) Profile(_ context.Context, subject string) (*identity.Profile, error) {
	profile, ok := p[subject]
	if !ok {
		return nil, identity.ErrUnknownSubject
	}
	return &profile, nil
}

type uploader struct{ n int }

func (u *uploader) Upload(_ context.Context, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	u.n++
	return "https://img.test/" + strconv.Itoa(u.n), nil
}

type server struct {
	e     *echo.Echo
	store *store.Store
	admin *models.User
	super *models.User
	alice *models.User
	bob   *models.User
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := memstore.New()
	srv := &server{
		store: s,
		admin: &models.User{AuthID: "admin", FirstName: "Ada", Email: "ada@shop.test", Role: models.RoleAdmin},
		super: &models.User{AuthID: "super", FirstName: "Sam", Email: "sam@shop.test", Role: models.RoleSuperAdmin},
		alice: &models.User{AuthID: "alice", FirstName: "Alice", Email: "alice@mail.test"},
		bob:   &models.User{AuthID: "bob", FirstName: "Bob", Email: "bob@mail.test"},
	}
	for _, u := range []*models.User{srv.admin, srv.super, srv.alice, srv.bob} {
		require.NoError(t, s.Users.Create(context.Background(), u))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handlers.New(handlers.Options{
		Store:     s,
		Orders:    services.NewOrderService(s, nopRecorder{}, logger),
		Dashboard: services.NewDashboard(s),
		Catalog:   services.NewCatalog(s),
		Identity:  profiles{"newcomer": {Subject: "newcomer", FirstName: "Nia", Email: "nia@mail.test"}},
		Uploader:  &uploader{},
		Logger:    logger,
	})

	e := echo.New()
	e.Validator = utils.NewRequestValidator()
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)
	e.Use(middleware.GuestSession(false))
	routes.SetupRoutes(e, h, middleware.NewAuthenticator(verifier{}, s.Users))
	srv.e = e
	return srv
}

type nopRecorder struct{}

func (nopRecorder) OrderPlaced(int, float64) {}
func (nopRecorder) CheckoutRejected(string) {}

type request struct {
	method string
	path   string
	token  string
	body   interface{}
	header map[string]string
	cookie *http.Cookie
}

func (s *server) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer ok:"+r.token)
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}
	if r.cookie != nil {
		req.AddCookie(r.cookie)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *server) multipart(t *testing.T, method, path, token string, fields map[string]string, withImage bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withImage {
		part, err := w.CreateFormFile("imageFile", "photo.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("png bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer ok:"+token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *server) product(t *testing.T, title string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Title: title, Price: price, Stock: stock}
	require.NoError(t, s.store.Products.Create(context.Background(), p))
	return p
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

var delivery = models.DeliveryDetails{
	Name:        "Alice",
	City:        "Lyon",
	Country:     "FR",
	Email:       "alice@mail.test",
	PhoneNumber: "+33100000000",
	Address:     "1 rue de la Paix",
}

func orderBody(lines ...interface{}) map[string]interface{} {
	return map[string]interface{}{"cartItems": lines, "deliveryDetails": delivery}
}

func line(id primitive.ObjectID, qty int) map[string]interface{} {
	return map[string]interface{}{"productId": id.Hex(), "quantity": qty}
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, request{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateUserLinksProviderAccountOnce(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, request{method: http.MethodPost, path: "/user/createUser", token: "newcomer"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct{ User models.User }](t, rec)
	assert.Equal(t, "Nia", created.User.FirstName)
	assert.Equal(t, models.RoleUser, created.User.Role)

	rec = s.do(t, request{method: http.MethodPost, path: "/user/createUser", token: "newcomer"})
	require.Equal(t, http.StatusOK, rec.Code)
	again := decode[struct{ User models.User }](t, rec)
	assert.Equal(t, created.User.ID, again.User.ID)

	rec = s.do(t, request{method: http.MethodPost, path: "/user/createUser", token: "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateUserInformationKeepsEmptyFields(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, request{
		method: http.MethodPatch, path: "/user/informationUser", token: "alice",
		body: map[string]string{"lastName": "Liddell"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	u := decode[models.User](t, rec)
	assert.Equal(t, "Alice", u.FirstName)
	assert.Equal(t, "Liddell", u.LastName)
}

func TestCatalogEndpoints(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, request{method: http.MethodGet, path: "/product/getAll"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	cat := &models.Category{Title: "shoes"}
	require.NoError(t, s.store.Categories.Create(context.Background(), cat))
	p := &models.Product{Title: "Runner", Price: 50, Stock: 3, Category: cat.ID}
	require.NoError(t, s.store.Products.Create(context.Background(), p))

	rec = s.do(t, request{method: http.MethodGet, path: "/category/shoes"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Product](t, rec), 1)

	rec = s.do(t, request{method: http.MethodGet, path: "/category/hats"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, request{method: http.MethodGet, path: "/product/details/not-an-id"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid product ID format")

	rec = s.do(t, request{method: http.MethodGet, path: "/product/details/" + p.ID.Hex()})
	require.Equal(t, http.StatusOK, rec.Code)
	details := decode[struct {
		Title    string
		Category models.Category
	}](t, rec)
	assert.Equal(t, "Runner", details.Title)
	assert.Equal(t, "shoes", details.Category.Title)
}

func TestGuestCartIsAdoptedOnSignIn(t *testing.T) {
	s := newServer(t)
	p := s.product(t, "Mug", 8, 10)
	body := map[string]string{"productId": p.ID.Hex()}

	rec := s.do(t, request{method: http.MethodPost, path: "/cartitems/addItem", body: body})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sid := sessionCookie(t, rec)

	rec = s.do(t, request{method: http.MethodGet, path: "/cartitems/getCartItems", cookie: sid})
	require.Equal(t, http.StatusOK, rec.Code)
	guest := decode[[]models.CartLine](t, rec)
	require.Len(t, guest, 1)
	assert.Equal(t, 1, guest[0].Quantity)

	rec = s.do(t, request{method: http.MethodPatch, path: "/cartitems/updateItem", body: body, cookie: sid})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, request{method: http.MethodPost, path: "/cartitems/addItem", body: body, cookie: sid, token: "alice"})
	require.Equal(t, http.StatusCreated, rec.Code)
	lines := decode[[]models.CartLine](t, rec)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "Mug", lines[0].Product.Title)

	rec = s.do(t, request{method: http.MethodPatch, path: "/cartitems/updateItem", body: body, token: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	lines = decode[[]models.CartLine](t, rec)
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)

	rec = s.do(t, request{method: http.MethodDelete, path: "/cartitems/deleteItem", body: body, token: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.CartLine](t, rec))

	rec = s.do(t, request{method: http.MethodDelete, path: "/cartitems/deleteItem", body: body, token: "alice"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutEmptiesCartIncludingGuestLines(t *testing.T) {
	s := newServer(t)
	mug := s.product(t, "Mug", 8, 10)
	lamp := s.product(t, "Lamp", 30, 10)

	rec := s.do(t, request{method: http.MethodPost, path: "/cartitems/addItem", body: map[string]string{"productId": mug.ID.Hex()}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sid := sessionCookie(t, rec)

	rec = s.do(t, request{method: http.MethodGet, path: "/cartitems/getCartItems", token: "alice", cookie: sid})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]models.CartLine](t, rec), 1)

	rec = s.do(t, request{
		method: http.MethodPost, path: "/order/createOrder", token: "alice", cookie: sid,
		body: orderBody(line(mug.ID, 1), line(lamp.ID, 1)),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, request{method: http.MethodGet, path: "/cartitems/getCartItems", token: "alice", cookie: sid})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.CartLine](t, rec))
}

func TestAddCartItemUnknownProduct(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, request{
		method: http.MethodPost, path: "/cartitems/addItem",
		body: map[string]string{"productId": primitive.NewObjectID().Hex()},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWishlistToggleIsSelfInverse(t *testing.T) {
	s := newServer(t)
	p := s.product(t, "Lamp", 30, 1)
	body := map[string]string{"productId": p.ID.Hex()}

	rec := s.do(t, request{method: http.MethodPost, path: "/washlist/addItem", body: body})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, request{method: http.MethodPost, path: "/washlist/addItem", body: body, token: "alice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]json.RawMessage](t, rec), 1)

	rec = s.do(t, request{method: http.MethodPost, path: "/washlist/addItem", body: body, token: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]json.RawMessage](t, rec))

	rec = s.do(t, request{method: http.MethodGet, path: "/washlist/getAll", token: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]json.RawMessage](t, rec))
}

func TestCreateOrderIsIdempotent(t *testing.T) {
	s := newServer(t)
	p := s.product(t, "Kettle", 25, 5)
	req := request{
		method: http.MethodPost, path: "/order/createOrder", token: "alice",
		body:   orderBody(line(p.ID, 2)),
		header: map[string]string{"Idempotency-Key": "checkout-1"},
	}

	rec := s.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[models.Order](t, rec)
	assert.Equal(t, 50.0, first.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, first.Status)

	rec = s.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.ID, decode[models.Order](t, rec).ID)

	stored, err := s.store.Products.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)
}

func TestCreateOrderRejectsBadRequests(t *testing.T) {
	s := newServer(t)
	p := s.product(t, "Kettle", 25, 1)

	tests := []struct {
		name string
		body interface{}
		code int
	}{
		{"no lines", orderBody(), http.StatusBadRequest},
		{"zero quantity", orderBody(line(p.ID, 0)), http.StatusBadRequest},
		{"missing delivery", map[string]interface{}{"cartItems": []interface{}{line(p.ID, 1)}}, http.StatusBadRequest},
		{"bad product id", orderBody(map[string]interface{}{"productId": "xyz", "quantity": 1}), http.StatusBadRequest},
		{"unknown product", orderBody(line(primitive.NewObjectID(), 1)), http.StatusBadRequest},
		{"shortfall", orderBody(line(p.ID, 2)), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, request{method: http.MethodPost, path: "/order/createOrder", token: "alice", body: tt.body})
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Equal(t, "fail", decode[map[string]interface{}](t, rec)["status"])
		})
	}
}

func placeOrder(t *testing.T, s *server, token string, p *models.Product) models.Order {
	t.Helper()
	rec := s.do(t, request{method: http.MethodPost, path: "/order/createOrder", token: token, body: orderBody(line(p.ID, 1))})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Order](t, rec)
}

func TestOrderVisibility(t *testing.T) {
	s := newServer(t)
	p := s.product(t, "Kettle", 25, 5)
	order := placeOrder(t, s, "alice", p)
	path := "/order/findOrder?orderId=" + order.ID.Hex()

	assert.Equal(t, http.StatusOK, s.do(t, request{method: http.MethodGet, path: path, token: "alice"}).Code)
	assert.Equal(t, http.StatusOK, s.do(t, request{method: http.MethodGet, path: path, token: "admin"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, request{method: http.MethodGet, path: path, token: "bob"}).Code)

	own := "/user/getAllOrders/" + s.alice.ID.Hex()
	assert.Equal(t, http.StatusOK, s.do(t, request{method: http.MethodGet, path: own, token: "alice"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, request{method: http.MethodGet, path: own, token: "bob"}).Code)
}

func TestGetAllOrdersPaginates(t *testing.T) {
	s := newServer(t)
	p := s.product(t, "Kettle", 25, 10)
	for i := 0; i < 3; i++ {
		placeOrder(t, s, "alice", p)
	}

	rec := s.do(t, request{method: http.MethodGet, path: "/order/getAllOrders?page=2&pageSize=2", token: "admin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[struct {
		Orders     []models.Order
		Pagination utils.Pagination
	}](t, rec)
	assert.Len(t, got.Orders, 1)
	assert.Equal(t, utils.Pagination{Page: 2, PageSize: 2, Total: 3, TotalPages: 2}, got.Pagination)

	rec = s.do(t, request{method: http.MethodGet, path: "/order/getAllOrders?status=Lost", token: "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, request{method: http.MethodGet, path: "/order/getAllOrders", token: "alice"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHugePageNumberReturnsEmptyPage(t *testing.T) {
	s := newServer(t)
	s.product(t, "Kettle", 25, 1)

	rec := s.do(t, request{method: http.MethodGet, path: "/admin-dashboard/products?page=100000000000000000&pageSize=100", token: "admin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[struct {
		Products   []models.Product
		Pagination utils.Pagination
	}](t, rec)
	assert.Empty(t, got.Products)
	assert.EqualValues(t, 1, got.Pagination.Total)
}

func TestUpdateOrderStatus(t *testing.T) {
	s := newServer(t)
	order := placeOrder(t, s, "alice", s.product(t, "Kettle", 25, 5))
	path := "/order/updateOrder/" + order.ID.Hex()

	rec := s.do(t, request{method: http.MethodPatch, path: path, token: "admin", body: map[string]string{"status": "Teleported"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, request{method: http.MethodPatch, path: path, token: "admin", body: map[string]string{"status": "Shipped"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.OrderStatusShipped, decode[models.Order](t, rec).Status)

	rec = s.do(t, request{method: http.MethodPatch, path: "/order/updateOrder/" + primitive.NewObjectID().Hex(), token: "admin", body: map[string]string{"status": "Shipped"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOwnerMayOnlyCancel(t *testing.T) {
	s := newServer(t)
	order := placeOrder(t, s, "alice", s.product(t, "Kettle", 25, 5))
	path := "/user/myOrder/" + order.ID.Hex()

	rec := s.do(t, request{method: http.MethodPatch, path: path, token: "alice", body: map[string]string{"status": "Delivered"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, request{method: http.MethodPatch, path: path, token: "bob", body: map[string]string{"status": "Cancelled"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, request{method: http.MethodPatch, path: path, token: "alice", body: map[string]string{"status": "Cancelled"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.OrderStatusCancelled, decode[models.Order](t, rec).Status)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, request{method: http.MethodGet, path: "/admin-dashboard/overview"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, request{method: http.MethodGet, path: "/admin-dashboard/overview", token: "alice"}).Code)

	rec := s.do(t, request{method: http.MethodGet, path: "/admin-dashboard/overview", token: "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode[models.Overview](t, rec)
	assert.EqualValues(t, 4, overview.TotalUsers)
	assert.EqualValues(t, 0, overview.TotalOrders)
}

func TestAdminCategoryAndProductLifecycle(t *testing.T) {
	s := newServer(t)

	rec := s.multipart(t, http.MethodPost, "/admin-dashboard/categories", "admin", map[string]string{"title": "lamps"}, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.multipart(t, http.MethodPost, "/admin-dashboard/categories", "admin", map[string]string{"title": "lamps"}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cat := decode[models.Category](t, rec)
	assert.NotEmpty(t, cat.Img)

	rec = s.multipart(t, http.MethodPost, "/admin-dashboard/categories", "admin", map[string]string{"title": "lamps"}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	fields := map[string]string{"title": "Desk lamp", "price": "-1", "category": cat.ID.Hex(), "stock": "4", "role": "New"}
	rec = s.multipart(t, http.MethodPost, "/admin-dashboard/createProduct", "admin", fields, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	fields["price"] = "19.99"
	rec = s.multipart(t, http.MethodPost, "/admin-dashboard/createProduct", "admin", fields, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[models.Product](t, rec)
	assert.Equal(t, models.TagNew, product.Role)

	rec = s.do(t, request{method: http.MethodGet, path: "/admin-dashboard/products?category=lamps&role=New", token: "admin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	listed := decode[struct {
		Products   []models.Product
		Pagination utils.Pagination
	}](t, rec)
	require.Len(t, listed.Products, 1)
	assert.EqualValues(t, 1, listed.Pagination.Total)

	rec = s.multipart(t, http.MethodPatch, "/admin-dashboard/updateProduct/"+product.ID.Hex(), "admin", map[string]string{"stock": "9"}, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 9, decode[models.Product](t, rec).Stock)

	rec = s.do(t, request{method: http.MethodDelete, path: "/admin-dashboard/deleteCategory/" + cat.ID.Hex(), token: "admin"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, request{method: http.MethodDelete, path: "/admin-dashboard/deleteProduct/" + product.ID.Hex(), token: "admin"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, request{method: http.MethodDelete, path: "/admin-dashboard/deleteCategory/" + cat.ID.Hex(), token: "admin"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProductStatsAfterCheckout(t *testing.T) {
	s := newServer(t)
	p := s.product(t, "Kettle", 25, 5)

	rec := s.do(t, request{method: http.MethodGet, path: "/admin-dashboard/productStats/" + p.ID.Hex(), token: "admin"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	placeOrder(t, s, "alice", p)

	rec = s.do(t, request{method: http.MethodGet, path: "/admin-dashboard/productStats/" + p.ID.Hex(), token: "admin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stat := decode[models.ProductStat](t, rec)
	assert.Equal(t, 1, stat.YearlyTotalSold)
	assert.Equal(t, 25.0, stat.YearlySalesTotal)

	rec = s.do(t, request{method: http.MethodGet, path: "/admin-dashboard/sales?period=month", token: "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[models.SalesSummary](t, rec).Orders)

	rec = s.do(t, request{method: http.MethodGet, path: "/admin-dashboard/sales?period=decade", token: "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomerRoleChanges(t *testing.T) {
	s := newServer(t)
	grant := map[string]string{"role": "admin"}

	rec := s.do(t, request{method: http.MethodPatch, path: "/admin-dashboard/updateUser/" + s.bob.ID.Hex(), token: "admin", body: grant})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, request{method: http.MethodPatch, path: "/admin-dashboard/updateUser/" + s.bob.ID.Hex(), token: "super", body: map[string]string{"role": "owner"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, request{method: http.MethodPatch, path: "/admin-dashboard/updateUser/" + s.bob.ID.Hex(), token: "super", body: grant})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.RoleAdmin, decode[models.User](t, rec).Role)

	rec = s.do(t, request{method: http.MethodGet, path: "/admin-dashboard/customers?filterByRole=admin&createdAt=oldest", token: "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		Customers  []models.User
		Pagination utils.Pagination
	}](t, rec)
	assert.EqualValues(t, 2, got.Pagination.Total)
	names := []string{}
	for _, c := range got.Customers {
		names = append(names, c.FirstName)
	}
	assert.ElementsMatch(t, []string{"Ada", "Bob"}, names)

	rec = s.do(t, request{method: http.MethodDelete, path: "/admin-dashboard/deleteUser/" + primitive.NewObjectID().Hex(), token: "admin"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, request{method: http.MethodDelete, path: "/admin-dashboard/deleteUser/" + s.alice.ID.Hex(), token: "admin"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMailConversation(t *testing.T) {
	s := newServer(t)

	rec := s.multipart(t, http.MethodPost, "/mails", "alice", map[string]string{"subject": "Late parcel", "body": "Where is it?"}, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	fields := map[string]string{"subject": "Late parcel", "body": "Where is it?", "mailType": "customerInquiry"}
	rec = s.multipart(t, http.MethodPost, "/mails", "alice", fields, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	mail := decode[struct{ Mail models.Mail }](t, rec).Mail
	assert.Equal(t, models.MailStatusUnread, mail.Status)

	rec = s.do(t, request{method: http.MethodGet, path: "/mails/getAllMailsReceived", token: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[struct{ Mails []models.Mail }](t, rec).Mails)

	rec = s.do(t, request{method: http.MethodPost, path: "/admin-dashboard/mails/" + mail.ID.Hex() + "/reply", token: "admin", body: map[string]string{"content": "On its way"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, request{method: http.MethodGet, path: "/mails/getAllMailsReceived", token: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	received := decode[struct{ Mails []models.Mail }](t, rec).Mails
	require.Len(t, received, 1)
	require.Len(t, received[0].Replies, 1)
	assert.False(t, received[0].Replies[0].IsRead)

	rec = s.do(t, request{method: http.MethodPatch, path: "/mails/" + mail.ID.Hex() + "/read", token: "bob"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, request{method: http.MethodPatch, path: "/mails/" + mail.ID.Hex() + "/read", token: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	read := decode[struct{ Mail models.Mail }](t, rec).Mail
	assert.Equal(t, models.MailStatusRead, read.Status)
	assert.True(t, read.Replies[0].IsRead)

	rec = s.do(t, request{method: http.MethodGet, path: "/mails/getAllMyMails?search=late&filterMailType=all", token: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct{ Mails []models.Mail }](t, rec).Mails, 1)
}

func TestMailOrderMustBelongToCaller(t *testing.T) {
	s := newServer(t)
	p := s.product(t, "Kettle", 25, 5)
	order := placeOrder(t, s, "alice", p)
	fields := func(orderID string) map[string]string {
		return map[string]string{"subject": "Parcel", "body": "Damaged", "mailType": "orderConfirmation", "orderId": orderID}
	}

	rec := s.multipart(t, http.MethodPost, "/mails", "bob", fields(order.ID.Hex()), false)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	rec = s.multipart(t, http.MethodPost, "/mails", "alice", fields(primitive.NewObjectID().Hex()), false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.multipart(t, http.MethodPost, "/mails", "alice", fields(order.ID.Hex()), false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	mail := decode[struct{ Mail models.Mail }](t, rec).Mail
	require.NotNil(t, mail.OrderID)
	assert.Equal(t, order.ID, *mail.OrderID)

	bobs := placeOrder(t, s, "bob", p)
	rec = s.multipart(t, http.MethodPatch, "/mails/"+mail.ID.Hex(), "alice", map[string]string{"orderId": bobs.ID.Hex()}, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductStatsByCategoryLegacyPath(t *testing.T) {
	s := newServer(t)
	cat := &models.Category{Title: "kitchen"}
	require.NoError(t, s.store.Categories.Create(context.Background(), cat))
	p := &models.Product{Title: "Kettle", Price: 25, Stock: 5, Category: cat.ID}
	require.NoError(t, s.store.Products.Create(context.Background(), p))
	placeOrder(t, s, "alice", p)

	for _, path := range []string{"/admin-dashboard/productStatsByCategory/", "/admin-dashboard/proudctStatsByCategory/"} {
		rec := s.do(t, request{method: http.MethodGet, path: path + cat.ID.Hex(), token: "admin"})
		require.Equal(t, http.StatusOK, rec.Code, path)
		views := decode[[]models.ProductStatView](t, rec)
		require.Len(t, views, 1, path)
		assert.Equal(t, 1, views[0].YearlyTotalSold)

		rec = s.do(t, request{method: http.MethodGet, path: path + cat.ID.Hex(), token: "alice"})
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}
