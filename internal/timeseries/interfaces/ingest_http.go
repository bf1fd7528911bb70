// Package interfaces adapts the time series application layer to the
// thin external-collaborator HTTP surface, grounded on
// internal/telemetry/interfaces/thingsboard/handler.go webhook shape
// (read body -> decode JSON -> translate -> call application service ->
// JSON response).
package interfaces

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/timeseries/application"
)

// IngestHandler handles a BRS-021 metered-data response delivering a new
// time series version for a metering point and period.
type IngestHandler struct {
	service *application.IngestService
	logger  *log.Logger
}

// NewIngestHandler constructs an IngestHandler.
func NewIngestHandler(service *application.IngestService, logger *log.Logger) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("timeseries ingest: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{service: service, logger: logger}, nil
}

type ingestRequest struct {
	MeteringPointID string          `json:"meteringPointId"`
	PeriodStart     time.Time       `json:"periodStart"`
	PeriodEnd       *time.Time      `json:"periodEnd,omitempty"`
	Resolution      string          `json:"resolution"`
	TransactionID   *string         `json:"transactionId,omitempty"`
	Observations    []ingestReading `json:"observations"`
}

type ingestReading struct {
	Timestamp time.Time `json:"timestamp"`
	QuantityKwh float64 `json:"quantityKwh"`
	Quality   string    `json:"quality"`
}

func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Printf("timeseries ingest: read body error: %v", err)
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Printf("timeseries ingest: decode error: %v", err)
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.MeteringPointID == "" || len(req.Observations) == 0 {
		http.Error(w, "missing meteringPointId or observations", http.StatusBadRequest)
		return
	}

	var period primitives.Period
	if req.PeriodEnd != nil {
		period, err = primitives.NewPeriod(req.PeriodStart, *req.PeriodEnd)
	} else {
		period = primitives.OpenEndedPeriod(req.PeriodStart)
	}
	if err != nil {
		http.Error(w, "invalid period", http.StatusBadRequest)
		return
	}

	observations := make([]application.ObservationInput, 0, len(req.Observations))
	for _, obs := range req.Observations {
		observations = append(observations, application.ObservationInput{
			Timestamp: obs.Timestamp,
			Quantity:  primitives.KWh(obs.QuantityKwh),
			Quality:   primitives.QuantityQuality(obs.Quality),
		})
	}

	series, err := h.service.Ingest(r.Context(), primitives.ID(req.MeteringPointID), period, primitives.Resolution(req.Resolution), req.TransactionID, time.Now().UTC(), observations)
	if err != nil {
		h.logger.Printf("timeseries ingest: error: %v", err)
		http.Error(w, "ingest error", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"timeSeriesId": series.ID.String(),
		"version":      series.Version,
		"observations": len(series.Observations),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
