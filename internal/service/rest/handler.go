package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordertrack/internal/domain"
	"github.com/vladislavdragonenkov/ordertrack/internal/service/report"
	"github.com/vladislavdragonenkov/ordertrack/internal/storage/memory"
)

// Handler публикует публичный контракт стора поверх HTTP. Это тонкий
// презентационный адаптер: каждая операция — один вызов store, фабрики
// или отчётов, без собственной бизнес-логики.
type Handler struct {
	store     *memory.Store
	factory   *domain.Factory
	menu      report.Menu
	statePath string
	logger    *log.Entry
}

// NewHandler создаёт HTTP-адаптер над хранилищем заказов.
func NewHandler(store *memory.Store, factory *domain.Factory, menu report.Menu, statePath string, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http-handler")
	}
	return &Handler{
		store:     store,
		factory:   factory,
		menu:      menu,
		statePath: statePath,
		logger:    logger,
	}
}

// RegisterRoutes вешает маршруты адаптера на router.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/orders", h.listAll)
		r.Post("/orders", h.addOrder)
		r.Delete("/orders", h.clearAll)
		r.Get("/orders/incoming", h.listCollection(h.store.Incoming))
		r.Get("/orders/started", h.listCollection(h.store.Started))
		r.Get("/orders/completed", h.listCollection(h.store.Completed))
		r.Get("/orders/cancelled", h.listCollection(h.store.Cancelled))
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders/{id}/start", h.action("start", h.store.StartOrder))
		r.Post("/orders/{id}/complete", h.action("complete", h.store.CompleteOrder))
		r.Post("/orders/{id}/cancel", h.action("cancel", h.store.CancelOrder))
		r.Post("/orders/{id}/begin-delivery", h.action("begin-delivery", h.store.BeginDelivery))
		r.Post("/state/save", h.saveState)
		r.Get("/reports/sales", h.salesReport)
		r.Get("/reports/profit", h.profitReport)
		r.Get("/reports/quantity", h.quantityReport)
	})
}

type itemView struct {
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

type orderView struct {
	OrderID       int64      `json:"orderId"`
	OrderType     string     `json:"orderType"`
	Status        string     `json:"status"`
	SubStatus     string     `json:"subStatus"`
	Items         []itemView `json:"items"`
	Total         string     `json:"total"`
	CreatedAt     time.Time  `json:"createdAt"`
	ClosedAt      *time.Time `json:"closedAt,omitempty"`
	DepartureTime *time.Time `json:"departureTime,omitempty"`
}

type addOrderRequest struct {
	OrderType string `json:"orderType"`
	Items     []struct {
		Name     string      `json:"name"`
		Price    json.Number `json:"price"`
		Quantity int         `json:"quantity"`
	} `json:"items"`
}

func (h *Handler) listAll(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, viewAll(h.store.AllOrders()))
}

func (h *Handler) listCollection(read func() []domain.Order) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, viewAll(read()))
	}
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "order id must be an integer"})
		return
	}

	order, ok := h.store.Order(id)
	if !ok {
		respond(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	respond(w, http.StatusOK, viewOrder(order))
}

func (h *Handler) addOrder(w http.ResponseWriter, r *http.Request) {
	var req addOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	items := make([]domain.Item, 0, len(req.Items))
	for _, rec := range req.Items {
		price, err := decimal.NewFromString(rec.Price.String())
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "item price must be a number"})
			return
		}
		item := domain.Item{Name: rec.Name, Price: price, Quantity: rec.Quantity}
		if errs := item.Validate(); len(errs) != 0 {
			respond(w, http.StatusBadRequest, map[string]string{"error": errs[0].Error()})
			return
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		respond(w, http.StatusBadRequest, map[string]string{"error": "order must contain at least one item"})
		return
	}

	order := h.factory.New(req.OrderType, items)
	h.store.AddOrder(order)
	respond(w, http.StatusCreated, viewOrder(order.Clone()))
}

// action оборачивает операцию перехода: store возвращает false и для
// ненайденного заказа, и для отклонённого перехода, поэтому оба случая
// отдаются как 409 — заказ остаётся там, где был.
func (h *Handler) action(name string, op func(int64) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "order id must be an integer"})
			return
		}

		if !op(id) {
			respond(w, http.StatusConflict, map[string]string{
				"error": "order not found or transition rejected",
			})
			return
		}

		h.logger.WithFields(log.Fields{"order_id": id, "action": name}).Debug("order transition applied")
		respond(w, http.StatusOK, map[string]bool{"updated": true})
	}
}

func (h *Handler) clearAll(w http.ResponseWriter, _ *http.Request) {
	h.store.ClearAll()
	respond(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) saveState(w http.ResponseWriter, _ *http.Request) {
	if err := h.store.SaveState(h.statePath); err != nil {
		h.logger.WithError(err).Error("state save failed")
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.selectCollection(r)
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"error": "unknown collection"})
		return
	}

	sales := report.ListReport(h.menu, orders)
	respond(w, http.StatusOK, map[string]string{
		"totalExpense": sales.TotalExpense.String(),
		"totalPrice":   sales.TotalPrice.String(),
		"totalProfit":  sales.TotalProfit.String(),
	})
}

func (h *Handler) profitReport(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.selectCollection(r)
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"error": "unknown collection"})
		return
	}

	profit := report.ProfitByItem(h.menu, orders)
	view := make(map[string]string, len(profit))
	for name, value := range profit {
		view[name] = value.String()
	}
	respond(w, http.StatusOK, view)
}

func (h *Handler) quantityReport(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.selectCollection(r)
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"error": "unknown collection"})
		return
	}
	respond(w, http.StatusOK, report.QuantityByItem(h.menu, orders))
}

// selectCollection выбирает набор заказов для отчёта по query-параметру
// collection; по умолчанию отчёт строится по всем заказам.
func (h *Handler) selectCollection(r *http.Request) ([]domain.Order, bool) {
	switch r.URL.Query().Get("collection") {
	case "", "all":
		return h.store.AllOrders(), true
	case "incoming":
		return h.store.Incoming(), true
	case "started":
		return h.store.Started(), true
	case "completed":
		return h.store.Completed(), true
	case "cancelled":
		return h.store.Cancelled(), true
	default:
		return nil, false
	}
}

func viewAll(orders []domain.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, viewOrder(order))
	}
	return views
}

func viewOrder(order domain.Order) orderView {
	items := make([]itemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemView{
			Name:      item.Name,
			Price:     item.Price.String(),
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal().String(),
		})
	}

	return orderView{
		OrderID:       order.ID,
		OrderType:     string(order.Kind),
		Status:        string(order.Status),
		SubStatus:     string(order.SubStatus),
		Items:         items,
		Total:         order.Total().String(),
		CreatedAt:     order.CreatedAt,
		ClosedAt:      order.ClosedAt,
		DepartureTime: order.DepartureTime,
	}
}

func respond(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
