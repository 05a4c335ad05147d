package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/finance"
	"petshop-manager/internal/platform/httpx"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/dashboard", overviewHandler(svc))
}

type departmentCount struct {
	DepartmentID catalog.DepartmentID `json:"department_id"`
	Name         string               `json:"name"`
	Count        int                  `json:"count"`
}

type overviewResponse struct {
	TodayCount          int                     `json:"today_count"`
	PendingCheckInCount int                     `json:"pending_check_in_count"`
	InProgressCount     int                     `json:"in_progress_count"`
	ActiveCreditsCount  int                     `json:"active_credits_count"`
	TodayByDepartment   []departmentCount       `json:"today_by_department"`
	Month               finance.SummaryResponse `json:"month"`
	GeneratedAt         time.Time               `json:"generated_at"`
}

// overviewHandler godoc
// @Summary Resumen del día y del mes
// @Tags dashboard
// @Produce json
// @Success 200 {object} overviewResponse
// @Router /dashboard [get]
func overviewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := svc.Overview(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toOverviewResponse(o))
	}
}

func toOverviewResponse(o Overview) overviewResponse {
	deps := catalog.AllDepartments()
	byDept := make([]departmentCount, 0, len(deps))
	for _, d := range deps {
		byDept = append(byDept, departmentCount{DepartmentID: d, Name: d.Label(), Count: o.TodayByDepartment[d]})
	}
	return overviewResponse{
		TodayCount:          o.TodayCount,
		PendingCheckInCount: o.PendingCheckInCount,
		InProgressCount:     o.InProgressCount,
		ActiveCreditsCount:  o.ActiveCreditsCount,
		TodayByDepartment:   byDept,
		Month:               finance.ToSummaryResponse(o.Month, o.MonthTotal),
		GeneratedAt:         o.GeneratedAt,
	}
}
