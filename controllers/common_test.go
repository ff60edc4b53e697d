package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bitbucket.org/mmdatafocus/restro_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	return c, w
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"record not found", utils.ErrorRecordNotFound, http.StatusNotFound},
		{"validation", utils.NewValidationError("qty must be at least 1"), http.StatusBadRequest},
		{"insufficient stock", &utils.InsufficientStockError{
			StockName: "Chicken",
			Current:   decimal.RequireFromString("2"),
			Required:  decimal.RequireFromString("5"),
		}, http.StatusUnprocessableEntity},
		{"duplicate bill", &utils.DuplicateBillError{
			SupplierName: "Everest Traders",
			BillNo:       "B-77",
			FiscalYear:   "2082/83",
		}, http.StatusConflict},
		{"conflict", &utils.ConflictError{
			Message: "another settlement is in progress for this restaurant",
		}, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, w := newTestContext(t)
			respondError(c, tc.err)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

// Unrecognized errors come back as a generic 500 but must still land on
// c.Errors so the request-scoped error logger sees them.
func TestRespondErrorRecordsUnknownErrors(t *testing.T) {
	c, w := newTestContext(t)

	respondError(c, errors.New("driver: bad connection"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if len(c.Errors) != 1 {
		t.Fatalf("c.Errors length = %d, want 1", len(c.Errors))
	}
	if c.Errors[0].Err.Error() != "driver: bad connection" {
		t.Fatalf("recorded error = %q", c.Errors[0].Err.Error())
	}
	if w.Body.String() == "" || w.Body.String() == "driver: bad connection" {
		t.Fatalf("raw error leaked to the wire: %q", w.Body.String())
	}
}
