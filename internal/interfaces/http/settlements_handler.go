package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/settlement/domain"
)

const timeLayout = time.RFC3339

// SettlementsHandler serves GET /api/v1/settlements?grid_area=...&from=...&to=...
// (spec.md §6), reading through the same Repository the settlement
// scheduler writes.
type SettlementsHandler struct {
	Settlements settlement.Repository
}

// NewSettlementsHandler constructs a SettlementsHandler.
func NewSettlementsHandler(settlements settlement.Repository) *SettlementsHandler {
	return &SettlementsHandler{Settlements: settlements}
}

type settlementLineView struct {
	Source      string  `json:"source"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity_kwh"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

type settlementView struct {
	ID                string               `json:"id"`
	MeteringPointID   string               `json:"metering_point_id"`
	PeriodStart       time.Time            `json:"period_start"`
	PeriodEnd         *time.Time           `json:"period_end,omitempty"`
	TotalEnergyKWh    float64              `json:"total_energy_kwh"`
	TotalAmount       float64              `json:"total_amount"`
	Currency          string               `json:"currency"`
	Status            string               `json:"status"`
	IsCorrection      bool                 `json:"is_correction"`
	DocumentNumber    int                  `json:"document_number"`
	CalculatedAt      time.Time            `json:"calculated_at"`
	Lines             []settlementLineView `json:"lines"`
}

func (h *SettlementsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.Settlements == nil {
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

	settlements, err := h.Settlements.ListForGridAreaAndPeriod(r.Context(), gridArea, period)
	if err != nil {
		http.Error(w, "query settlements error", http.StatusInternalServerError)
		return
	}

	views := make([]settlementView, 0, len(settlements))
	for _, s := range settlements {
		views = append(views, toSettlementView(s))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func toSettlementView(s settlement.Settlement) settlementView {
	lines := make([]settlementLineView, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, settlementLineView{
			Source:      string(l.Source),
			Description: l.Description,
			Quantity:    l.Quantity.Float64(),
			UnitPrice:   l.UnitPrice,
			Amount:      l.Amount.Amount().InexactFloat64(),
			Currency:    l.Amount.Currency(),
		})
	}
	var periodEnd *time.Time
	if !s.SettlementPeriod.IsOpenEnded() {
		end := s.SettlementPeriod.End
		periodEnd = &end
	}
	return settlementView{
		ID:              string(s.ID),
		MeteringPointID: string(s.MeteringPointID),
		PeriodStart:     s.SettlementPeriod.Start,
		PeriodEnd:       periodEnd,
		TotalEnergyKWh:  s.TotalEnergy.Float64(),
		TotalAmount:     s.TotalAmount.Amount().InexactFloat64(),
		Currency:        s.TotalAmount.Currency(),
		Status:          string(s.Status),
		IsCorrection:    s.IsCorrection,
		DocumentNumber:  s.DocumentNumber,
		CalculatedAt:    s.CalculatedAt,
		Lines:           lines,
	}
}

func parseTimeQuery(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, errors.New(key + " is required")
	}
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, errors.New(key + " must be RFC3339")
	}
	return parsed.UTC(), nil
}
