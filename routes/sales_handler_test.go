package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func postSale(t *testing.T, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/sales", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	createSaleHandler(c)

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return w, resp
}

// A client sending its own totals must fail loudly: the cart payload
// accepts only items, discountPercent and paymentMethod.
func TestCreateSaleRejectsUnknownFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"client total", `{"items":[{"productId":1,"quantity":1}],"total":"9.99"}`},
		{"client subtotal", `{"items":[{"productId":1,"quantity":1}],"subtotal":"0.01"}`},
		{"client tax", `{"items":[{"productId":1,"quantity":1}],"tax":"0"}`},
		{"unit price on line", `{"items":[{"productId":1,"quantity":1,"price":"0.01"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := postSale(t, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if resp["errorKind"] != string(models.ErrorKindValidation) {
				t.Fatalf("errorKind = %v, want ValidationError", resp["errorKind"])
			}
		})
	}
}

func TestCreateSaleRejectsMalformedCart(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty items", `{"items":[]}`},
		{"missing items", `{}`},
		{"zero quantity", `{"items":[{"productId":1,"quantity":0}]}`},
		{"not json", `receipt please`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := postSale(t, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if resp["errorKind"] != string(models.ErrorKindValidation) {
				t.Fatalf("errorKind = %v, want ValidationError", resp["errorKind"])
			}
		})
	}
}

func TestRespondNotFoundCarriesKind(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondNotFound(c, models.ErrorKindValidation, "user not found")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp["errorKind"] != string(models.ErrorKindValidation) {
		t.Fatalf("errorKind = %v, want ValidationError", resp["errorKind"])
	}
}

func TestRouteTable(t *testing.T) {
	r := gin.New()
	RegisterRoutes(r)

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	want := []string{
		"POST /api/auth/login",
		"POST /api/sales",
		"GET /api/sales/daily-summary",
		"GET /api/reports/sales/export",
		"GET /api/reports/revenue",
		"GET /api/inventory/movements",
		"PUT /api/users/:id/password",
		"PUT /api/settings",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %s is not registered", route)
		}
	}
	if registered["GET /api/sales/export"] {
		t.Error("export should live under /api/reports, not /api/sales")
	}
}
