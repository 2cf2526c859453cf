package rest_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ordertrack/internal/domain"
	"github.com/vladislavdragonenkov/ordertrack/internal/service/report"
	"github.com/vladislavdragonenkov/ordertrack/internal/service/rest"
	"github.com/vladislavdragonenkov/ordertrack/internal/storage/memory"
)

type fixture struct {
	server  *httptest.Server
	store   *memory.Store
	factory *domain.Factory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	factory := domain.NewFactory()
	store := memory.NewStore(factory)
	menu := report.Menu{"Burger": decimal.RequireFromString("3.50")}

	mux := chi.NewMux()
	handler := rest.NewHandler(store, factory, menu, filepath.Join(t.TempDir(), "state.json"), nil)
	handler.RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &fixture{server: server, store: store, factory: factory}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (f *fixture) addIncoming(kind string) *domain.Order {
	order := f.factory.New(kind, []domain.Item{
		{Name: "Burger", Price: decimal.RequireFromString("8.99"), Quantity: 2},
	})
	f.store.AddOrder(order)
	return order
}

func TestHandlerAddOrder(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/v1/orders", `{
		"orderType": "delivery",
		"items": [{"name": "Burger", "price": 8.99, "quantity": 2}]
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view struct {
		OrderID   int64  `json:"orderId"`
		OrderType string `json:"orderType"`
		Status    string `json:"status"`
		Total     string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &view))
	require.Equal(t, int64(1), view.OrderID)
	require.Equal(t, "delivery", view.OrderType)
	require.Equal(t, "incoming", view.Status)
	require.Equal(t, "17.98", view.Total)

	require.Len(t, f.store.Incoming(), 1)
}

func TestHandlerAddOrder_BadRequests(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{"broken json", `{"orderType":`},
		{"no items", `{"orderType": "togo", "items": []}`},
		{"bad price", `{"orderType": "togo", "items": [{"name": "Burger", "price": "free", "quantity": 1}]}`},
		{"bad item", `{"orderType": "togo", "items": [{"name": "", "price": 8.99, "quantity": 1}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := f.do(t, http.MethodPost, "/api/v1/orders", tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	require.Empty(t, f.store.Incoming())
}

func TestHandlerGetOrder(t *testing.T) {
	f := newFixture(t)
	order := f.addIncoming("togo")

	resp, body := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view struct {
		OrderID int64 `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(body, &view))
	require.Equal(t, order.ID, view.OrderID)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/orders/404", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/orders/not-a-number", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerTransitions(t *testing.T) {
	f := newFixture(t)
	order := f.addIncoming("delivery")
	base := fmt.Sprintf("/api/v1/orders/%d", order.ID)

	resp, _ := f.do(t, http.MethodPost, base+"/start", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, base+"/begin-delivery", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, base+"/complete", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, f.store.Completed(), 1)

	// Терминальный заказ отменить нельзя.
	resp, _ = f.do(t, http.MethodPost, base+"/cancel", "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Неизвестный заказ — тоже конфликт, store не различает причины.
	resp, _ = f.do(t, http.MethodPost, "/api/v1/orders/404/start", "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandlerCollections(t *testing.T) {
	f := newFixture(t)
	first := f.addIncoming("togo")
	f.addIncoming("pickup")
	require.True(t, f.store.StartOrder(first.ID))

	resp, body := f.do(t, http.MethodGet, "/api/v1/orders/incoming", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var incoming []json.RawMessage
	require.NoError(t, json.Unmarshal(body, &incoming))
	require.Len(t, incoming, 1)

	resp, body = f.do(t, http.MethodGet, "/api/v1/orders", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []json.RawMessage
	require.NoError(t, json.Unmarshal(body, &all))
	require.Len(t, all, 2)
}

func TestHandlerClearAll(t *testing.T) {
	f := newFixture(t)
	f.addIncoming("togo")

	resp, _ := f.do(t, http.MethodDelete, "/api/v1/orders", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, f.store.AllOrders())
}

func TestHandlerSalesReport(t *testing.T) {
	f := newFixture(t)
	order := f.addIncoming("togo")
	require.True(t, f.store.StartOrder(order.ID))
	require.True(t, f.store.CompleteOrder(order.ID))

	resp, body := f.do(t, http.MethodGet, "/api/v1/reports/sales?collection=completed", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view map[string]string
	require.NoError(t, json.Unmarshal(body, &view))
	// Burger: себестоимость 2 x 3.50, выручка 17.98.
	require.Equal(t, "7.00", view["totalExpense"])
	require.Equal(t, "17.98", view["totalPrice"])
	require.Equal(t, "10.98", view["totalProfit"])

	resp, _ = f.do(t, http.MethodGet, "/api/v1/reports/sales?collection=archived", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerProfitAndQuantityReports(t *testing.T) {
	f := newFixture(t)
	f.addIncoming("togo")

	resp, body := f.do(t, http.MethodGet, "/api/v1/reports/profit", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profit map[string]string
	require.NoError(t, json.Unmarshal(body, &profit))
	require.Equal(t, "10.98", profit["Burger"])

	resp, body = f.do(t, http.MethodGet, "/api/v1/reports/quantity", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var quantity map[string]int
	require.NoError(t, json.Unmarshal(body, &quantity))
	require.Equal(t, 2, quantity["Burger"])
}

func TestHandlerSaveState(t *testing.T) {
	f := newFixture(t)
	f.addIncoming("togo")

	resp, _ := f.do(t, http.MethodPost, "/api/v1/state/save", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
