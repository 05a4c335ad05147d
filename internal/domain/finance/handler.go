package finance

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/middleware"
	"petshop-manager/internal/platform/httpx"
	"petshop-manager/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/transactions", func(tr chi.Router) {
		tr.Get("/", listTransactionsHandler(svc))
		tr.Post("/", recordTransactionHandler(svc))
		tr.Get("/{transactionID}", getTransactionHandler(svc))
		tr.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/{transactionID}", deleteTransactionHandler(svc))
	})
	r.Get("/finance/summary", summaryHandler(svc))
}

type recordTransactionRequest struct {
	Type          Type            `json:"type" enums:"income,expense"`
	Category      Category        `json:"category" enums:"service,product,package,commission,other"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	AppointmentID string          `json:"appointment_id"`
	EmployeeID    string          `json:"employee_id"`
	Date          *time.Time      `json:"date"`
}

type transactionResponse struct {
	ID            string          `json:"id"`
	Type          Type            `json:"type"`
	Category      Category        `json:"category"`
	CategoryLabel string          `json:"category_label"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	AppointmentID string          `json:"appointment_id,omitempty"`
	EmployeeID    string          `json:"employee_id,omitempty"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"created_at"`
}

type breakdownItem struct {
	Key      string          `json:"key"`
	Type     Type            `json:"type"`
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"string"`
}

type SummaryResponse struct {
	From          *time.Time      `json:"from,omitempty"`
	To            *time.Time      `json:"to,omitempty"`
	TotalIncome   decimal.Decimal `json:"total_income" swaggertype:"string"`
	TotalExpenses decimal.Decimal `json:"total_expenses" swaggertype:"string"`
	Net           decimal.Decimal `json:"net" swaggertype:"string"`
	ByCategory    []breakdownItem `json:"by_category"`
}

// listTransactionsHandler godoc
// @Summary Listar transacciones
// @Tags finance
// @Produce json
// @Param from query string false "Desde (inclusive), RFC3339 o YYYY-MM-DD"
// @Param to query string false "Hasta (exclusivo), RFC3339 o YYYY-MM-DD"
// @Param type query string false "income|expense"
// @Param category query string false "service|product|package|commission|other"
// @Success 200 {array} transactionResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /transactions [get]
func listTransactionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, err := rangeFromQuery(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		q := r.URL.Query()
		items, err := svc.List(r.Context(), ListFilter{
			Range:         rng,
			Type:          Type(q.Get("type")),
			Category:      Category(q.Get("category")),
			AppointmentID: q.Get("appointment_id"),
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		out := make([]transactionResponse, 0, len(items))
		for _, t := range items {
			out = append(out, toTransactionResponse(t))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// recordTransactionHandler godoc
// @Summary Registrar transacción manual
// @Tags finance
// @Accept json
// @Produce json
// @Param body body recordTransactionRequest true "Transacción"
// @Success 201 {object} transactionResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /transactions [post]
func recordTransactionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordTransactionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		in := RecordInput{
			Type:          req.Type,
			Category:      req.Category,
			Description:   req.Description,
			Amount:        req.Amount,
			AppointmentID: req.AppointmentID,
			EmployeeID:    req.EmployeeID,
		}
		if req.Date != nil {
			in.Date = req.Date.UTC()
		}

		t, err := svc.Record(r.Context(), in)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toTransactionResponse(t))
	}
}

func getTransactionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.Get(r.Context(), chi.URLParam(r, "transactionID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toTransactionResponse(t))
	}
}

func deleteTransactionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "transactionID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// summaryHandler godoc
// @Summary Resumen financiero
// @Description Totales de receitas, despesas y neto sobre [from, to), con desglose por tipo y categoría.
// @Tags finance
// @Produce json
// @Param from query string false "Desde (inclusive)"
// @Param to query string false "Hasta (exclusivo)"
// @Success 200 {object} SummaryResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /finance/summary [get]
func summaryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, err := rangeFromQuery(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		sum, err := svc.Summary(r.Context(), rng)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ToSummaryResponse(rng, sum))
	}
}

// ToSummaryResponse ordena el desglose por clave para una salida estable.
func ToSummaryResponse(rng Range, s Summary) SummaryResponse {
	items := make([]breakdownItem, 0, len(s.ByCategory))
	for k, v := range s.ByCategory {
		items = append(items, breakdownItem{Key: k.String(), Type: k.Type, Category: k.Category, Amount: v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })

	return SummaryResponse{
		From:          rng.From,
		To:            rng.To,
		TotalIncome:   s.TotalIncome,
		TotalExpenses: s.TotalExpenses,
		Net:           s.Net,
		ByCategory:    items,
	}
}

func rangeFromQuery(r *http.Request) (Range, error) {
	from, err := httpx.QueryTime(r, "from")
	if err != nil {
		return Range{}, err
	}
	to, err := httpx.QueryTime(r, "to")
	if err != nil {
		return Range{}, err
	}
	return Range{From: from, To: to}, nil
}

func toTransactionResponse(t Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		Type:          t.Type,
		Category:      t.Category,
		CategoryLabel: t.Category.Label(),
		Description:   t.Description,
		Amount:        t.Amount,
		AppointmentID: t.AppointmentID,
		EmployeeID:    t.EmployeeID,
		Date:          t.Date,
		CreatedAt:     t.CreatedAt,
	}
}
