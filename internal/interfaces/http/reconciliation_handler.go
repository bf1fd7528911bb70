package apihttp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/reconciliation/domain"
)

// ReconciliationHandler serves GET /api/v1/reconciliation?grid_area=...&from=...&to=...
// (spec.md §6), returning the latest persisted ReconciliationResult for
// the grid area and period — it never recomputes one; that is the
// Aggregator's job, run out-of-band (spec.md §4.8).
type ReconciliationHandler struct {
	Results reconciliation.ResultRepository
}

// NewReconciliationHandler constructs a ReconciliationHandler.
func NewReconciliationHandler(results reconciliation.ResultRepository) *ReconciliationHandler {
	return &ReconciliationHandler{Results: results}
}

type lineDeltaView struct {
	Description string  `json:"description"`
	OurAmount   float64 `json:"our_amount"`
	HubAmount   float64 `json:"hub_amount"`
	Delta       float64 `json:"delta"`
}

type reconciliationView struct {
	ID                string          `json:"id"`
	GridArea          string          `json:"grid_area"`
	PeriodStart       time.Time       `json:"period_start"`
	OurTotal          float64         `json:"our_total"`
	HubTotal          float64         `json:"hub_total"`
	DifferenceAmount  float64         `json:"difference_amount"`
	DifferencePercent float64         `json:"difference_percent"`
	Status            string          `json:"status"`
	LineDeltas        []lineDeltaView `json:"line_deltas"`
	ComputedAt        time.Time       `json:"computed_at"`
}

func (h *ReconciliationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.Results == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	gridArea := r.URL.Query().Get("grid_area")
	if gridArea == "" {
		http.Error(w, "grid_area is required", http.StatusBadRequest)
		return
	}
	from, err := parseTimeQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	period, err := primitives.NewPeriod(from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.Results.FindLatestFor(r.Context(), gridArea, period)
	if err != nil {
		http.Error(w, "query reconciliation result error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		http.Error(w, "no reconciliation result for this grid area and period", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toReconciliationView(*result))
}

func toReconciliationView(r reconciliation.ReconciliationResult) reconciliationView {
	deltas := make([]lineDeltaView, 0, len(r.LineDeltas))
	for _, d := range r.LineDeltas {
		deltas = append(deltas, lineDeltaView{
			Description: d.Description,
			OurAmount:   d.OurAmount.Amount().InexactFloat64(),
			HubAmount:   d.HubAmount.Amount().InexactFloat64(),
			Delta:       d.Delta.Amount().InexactFloat64(),
		})
	}
	return reconciliationView{
		ID:                string(r.ID),
		GridArea:          r.GridArea,
		PeriodStart:       r.Period.Start,
		OurTotal:          r.OurTotal.Amount().InexactFloat64(),
		HubTotal:          r.HubTotal.Amount().InexactFloat64(),
		DifferenceAmount:  r.DifferenceAmount.Amount().InexactFloat64(),
		DifferencePercent: r.DifferencePercent,
		Status:            string(r.Status),
		LineDeltas:        deltas,
		ComputedAt:        r.ComputedAt,
	}
}
