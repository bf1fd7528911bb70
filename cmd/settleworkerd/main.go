package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	apihttp "github.com/dkenergy/dh-settlement/internal/interfaces/http"
	messagingapp "github.com/dkenergy/dh-settlement/internal/messaging/application"
	"github.com/dkenergy/dh-settlement/internal/messaging/domain"
	"github.com/dkenergy/dh-settlement/internal/messaging/infrastructure/datahub"
	messagingpostgres "github.com/dkenergy/dh-settlement/internal/messaging/infrastructure/postgres"
	"github.com/dkenergy/dh-settlement/internal/observability/metrics"
	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
	"github.com/dkenergy/dh-settlement/internal/pricing/infrastructure/nordpool"
	pricingpostgres "github.com/dkenergy/dh-settlement/internal/pricing/infrastructure/postgres"
	"github.com/dkenergy/dh-settlement/internal/primitives"
	processapp "github.com/dkenergy/dh-settlement/internal/process/application"
	"github.com/dkenergy/dh-settlement/internal/process/domain"
	processpostgres "github.com/dkenergy/dh-settlement/internal/process/infrastructure/postgres"
	reconciliationapp "github.com/dkenergy/dh-settlement/internal/reconciliation/application"
	reconciliationpostgres "github.com/dkenergy/dh-settlement/internal/reconciliation/infrastructure/postgres"
	refdataapp "github.com/dkenergy/dh-settlement/internal/refdata/application"
	refdatapostgres "github.com/dkenergy/dh-settlement/internal/refdata/infrastructure/postgres"
	settlementapp "github.com/dkenergy/dh-settlement/internal/settlement/application"
	settlementpostgres "github.com/dkenergy/dh-settlement/internal/settlement/infrastructure/postgres"
	timeseriesapp "github.com/dkenergy/dh-settlement/internal/timeseries/application"
	timeseriesinterfaces "github.com/dkenergy/dh-settlement/internal/timeseries/interfaces"
	timeseriespostgres "github.com/dkenergy/dh-settlement/internal/timeseries/infrastructure/postgres"
	"github.com/dkenergy/dh-settlement/internal/workers"

	"github.com/dkenergy/dh-settlement/internal/auth"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init()

	meteringPoints := refdatapostgres.NewMeteringPointRepository(db)
	supplies := refdatapostgres.NewSupplyRepository(db)
	products := refdatapostgres.NewProductRepository(db)

	priceLinks := pricingpostgres.NewLinkRepository(db)
	prices := pricingpostgres.NewPriceRepository(db)
	spotPrices := pricingpostgres.NewSpotPriceRepository(db)
	supplierMargins := pricingpostgres.NewSupplierMarginRepository(db)

	series := timeseriespostgres.NewRepository(db)

	settlements := settlementpostgres.NewSettlementRepository(db)
	issues := settlementpostgres.NewIssueRepository(db)

	inboxRepo := messagingpostgres.NewInboxRepository(db)
	outboxRepo := messagingpostgres.NewOutboxRepository(db)

	wholesale := reconciliationpostgres.NewWholesaleSettlementRepository(db)
	reconciliationResults := reconciliationpostgres.NewResultRepository(db)

	processes := processpostgres.NewRepository(db)

	contextLoader := &settlementapp.ContextLoader{
		MeteringPoints:   meteringPoints,
		Supplies:         supplies,
		SupplierProducts: products,
		PriceLinks:       priceLinks,
		Prices:           prices,
		SpotPrices:       spotPrices,
		SupplierMargins:  supplierMargins,
		TimeSeries:       series,
	}

	inboxService, err := messagingapp.NewInboxService(inboxRepo)
	if err != nil {
		logger.Fatalf("inbox service error: %v", err)
	}
	hubSender, err := datahub.NewClient(cfg.DataHubBaseURL)
	if err != nil {
		logger.Fatalf("datahub client error: %v", err)
	}
	outboxService, err := messagingapp.NewOutboxService(outboxRepo, hubSender)
	if err != nil {
		logger.Fatalf("outbox service error: %v", err)
	}

	supplierChangeHandler, err := processapp.NewSupplierChangeHandler(processes, supplies)
	if err != nil {
		logger.Fatalf("supplier change handler error: %v", err)
	}
	requestResponseHandler, err := processapp.NewRequestResponseHandler(processes)
	if err != nil {
		logger.Fatalf("request/response handler error: %v", err)
	}
	endOfSupplyHandler, err := processapp.NewEndOfSupplyHandler(requestResponseHandler, supplies)
	if err != nil {
		logger.Fatalf("end of supply handler error: %v", err)
	}
	refdataService, err := refdataapp.NewService(meteringPoints, products)
	if err != nil {
		logger.Fatalf("refdata service error: %v", err)
	}

	reconciliationAggregator := reconciliationapp.NewAggregator(settlements, wholesale, reconciliationResults)

	ingestService, err := timeseriesapp.NewIngestService(series)
	if err != nil {
		logger.Fatalf("timeseries ingest service error: %v", err)
	}
	ingestHandler, err := timeseriesinterfaces.NewIngestHandler(ingestService, logger)
	if err != nil {
		logger.Fatalf("timeseries ingest handler error: %v", err)
	}

	nordpoolClient, err := nordpool.NewClient(cfg.NordpoolBaseURL)
	if err != nil {
		logger.Fatalf("nordpool client error: %v", err)
	}

	scheduler := &workers.SettlementScheduler{
		Settlements: settlements,
		Issues:      issues,
		Context:     contextLoader,
		BatchSize:   cfg.SettlementBatchSize,
		Logger:      logger,
	}
	go scheduler.Run(context.Background(), 30*time.Second)

	inboxDispatcher := &workers.InboxDispatcher{
		Inbox:     inboxService,
		Routes:    buildInboxRoutes(processes, supplierChangeHandler, requestResponseHandler, endOfSupplyHandler, refdataService),
		BatchSize: cfg.MessagingBatchSize,
		Logger:    logger,
	}
	go inboxDispatcher.Run(context.Background(), time.Second)

	outboxSender := &workers.OutboxSender{
		Outbox:    outboxService,
		BatchSize: cfg.MessagingBatchSize,
		Logger:    logger,
	}
	go outboxSender.Run(context.Background(), time.Second)

	spotFetcher := &workers.SpotPriceFetcher{
		Fetcher: nordpoolClient,
		Spots:   spotPrices,
		Areas:   cfg.PriceAreas,
		Logger:  logger,
	}
	go spotFetcher.Run(context.Background(), cfg.SpotFetchHour)

	go runReconciliationDaily(reconciliationAggregator, cfg.GridAreas, cfg.ReconciliationHour, logger)

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/inbox", apihttp.NewInboxHandler(inboxService))
	mux.Handle("/api/v1/timeseries/ingest", ingestHandler)
	mux.Handle("/api/v1/settlements", apihttp.NewSettlementsHandler(settlements))
	mux.Handle("/api/v1/reconciliation", apihttp.NewReconciliationHandler(reconciliationResults))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", apihttp.NewHealthzHandler(db))

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

// buildInboxRoutes maps a BusinessProcess code to the handler that
// advances its BrsProcess state machine (spec.md §4.6, §5 "Inbox
// dispatcher"). The hub's confirmation carries the initiator's own MRID
// back as the document's MRID, which is also the idempotency key
// Initiate used to create the process (spec.md is silent on the exact
// correlation field here; this is the one the CIM envelope actually
// carries). BRS-001 and BRS-002 are wired since SupplierChangeHandler and
// EndOfSupplyHandler are the two fully built handlers with a concrete
// hub-confirmation reaction; RequestResponseHandler covers BRS-005, -010,
// -015, -023, -024, -025, -027, -034, -038, -039, -041 the same way once
// each process's confirmation payload and post-confirm mutation are
// defined, and RecipientOnlyHandler (BRS-006, -007, -008, -013, -036)
// needs an entity-specific mutate closure per code that doesn't exist yet.
func buildInboxRoutes(processes process.Repository, supplierChange *processapp.SupplierChangeHandler, requestResponse *processapp.RequestResponseHandler, endOfSupply *processapp.EndOfSupplyHandler, refdataService *refdataapp.Service) map[string]messagingapp.HandlerFunc {
	return map[string]messagingapp.HandlerFunc{
		"BRS-001": func(ctx context.Context, msg messaging.InboxMessage) error {
			env, err := messaging.Parse(msg.Payload)
			if err != nil {
				return err
			}
			p, err := processes.FindByIdempotencyKey(ctx, process.BRS001, env.MRID)
			if err != nil {
				return err
			}
			if p == nil {
				return process.ErrNotFound
			}
			_, err = supplierChange.HandleConfirmation(ctx, p.ID, env.MRID, time.Now().UTC())
			return err
		},
		"BRS-002": func(ctx context.Context, msg messaging.InboxMessage) error {
			env, err := messaging.Parse(msg.Payload)
			if err != nil {
				return err
			}
			p, err := processes.FindByIdempotencyKey(ctx, process.BRS002, env.MRID)
			if err != nil {
				return err
			}
			if p == nil {
				return process.ErrNotFound
			}
			effectiveDate, err := effectiveDateFromEnvelope(env)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			confirmed, err := requestResponse.HandleConfirm(ctx, p.ID, now)
			if err != nil {
				return err
			}
			return endOfSupply.ExecuteEndOfSupply(ctx, confirmed, effectiveDate, now)
		},
		"BRS-004": func(ctx context.Context, msg messaging.InboxMessage) error {
			env, err := messaging.Parse(msg.Payload)
			if err != nil {
				return err
			}
			req, err := meteringPointRequestFromEnvelope(env)
			if err != nil {
				return err
			}
			_, err = refdataService.ProvisionMeteringPoint(ctx, req)
			return err
		},
	}
}

// meteringPointRequestFromEnvelope reads a BRS-004 NewMeteringPoint
// notification's single transaction record into a
// ProvisionMeteringPointRequest. BRS-004 has no BrsProcess of its own
// here: the metering point doesn't exist until this message applies it,
// so there is no MeteringPointID yet to key a process row on (unlike
// every other BRS code, which acts on an already-known metering point).
func meteringPointRequestFromEnvelope(env messaging.ParsedEnvelope) (refdataapp.ProvisionMeteringPointRequest, error) {
	if len(env.Transactions) == 0 {
		return refdataapp.ProvisionMeteringPointRequest{}, fmt.Errorf("datahub inbox: BRS-004 notification %s has no transactions", env.MRID)
	}
	tx := env.Transactions[0]
	gsrnRaw, _ := tx["gsrn"].(string)
	gsrn, err := primitives.NewGsrn(gsrnRaw)
	if err != nil {
		return refdataapp.ProvisionMeteringPointRequest{}, fmt.Errorf("datahub inbox: BRS-004 notification %s: %w", env.MRID, err)
	}
	gridArea, _ := tx["gridArea"].(string)
	return refdataapp.ProvisionMeteringPointRequest{
		Gsrn:             gsrn,
		Type:             primitives.MeteringPointType(stringField(tx, "type")),
		SettlementMethod: primitives.SettlementMethod(stringField(tx, "settlementMethod")),
		Resolution:       primitives.Resolution(stringField(tx, "resolution")),
		GridArea:         gridArea,
		GridCompanyGln:   primitives.GlnNumber(env.SenderGln),
	}, nil
}

func stringField(tx map[string]any, key string) string {
	v, _ := tx[key].(string)
	return v
}

// effectiveDateFromEnvelope pulls the end-of-supply date off the first
// transaction record of a BRS-002 confirmation. spec.md §4.7 leaves the
// per-BRS transaction field names to each process; DataHub's
// EndSupplyPeriod.MarketDocument carries it as "effectiveDate" RFC3339.
func effectiveDateFromEnvelope(env messaging.ParsedEnvelope) (time.Time, error) {
	if len(env.Transactions) == 0 {
		return time.Time{}, fmt.Errorf("datahub inbox: BRS-002 confirmation %s has no transactions", env.MRID)
	}
	raw, ok := env.Transactions[0]["effectiveDate"].(string)
	if !ok {
		return time.Time{}, fmt.Errorf("datahub inbox: BRS-002 confirmation %s missing effectiveDate", env.MRID)
	}
	effectiveDate, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("datahub inbox: BRS-002 confirmation %s invalid effectiveDate: %w", env.MRID, err)
	}
	return effectiveDate, nil
}

func runReconciliationDaily(aggregator *reconciliationapp.Aggregator, gridAreas []string, dailyAtHour int, logger *log.Logger) {
	lastRun := time.Time{}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for tick := range ticker.C {
		now := tick.UTC()
		if now.Hour() != dailyAtHour {
			continue
		}
		if !lastRun.IsZero() && now.Sub(lastRun) < 23*time.Hour {
			continue
		}
		lastRun = now
		yesterday := now.AddDate(0, 0, -1)
		start := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC)
		period, err := primitives.NewPeriod(start, start.AddDate(0, 0, 1))
		if err != nil {
			logger.Printf("reconciliation period error: %v", err)
			continue
		}
		for _, gridArea := range gridAreas {
			if _, err := aggregator.Reconcile(context.Background(), gridArea, period, now); err != nil {
				logger.Printf("reconciliation error grid_area=%s: %v", gridArea, err)
			}
		}
	}
}

type config struct {
	DatabaseURL         string
	HTTPAddr            string
	JWTSecret           string
	DataHubBaseURL      string
	NordpoolBaseURL     string
	PriceAreas          []pricing.PriceArea
	GridAreas           []string
	SettlementBatchSize int
	MessagingBatchSize  int
	SpotFetchHour       int
	ReconciliationHour  int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:         getenvDefault("DATABASE_URL", ""),
		HTTPAddr:            getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:           getenvDefault("AUTH_JWT_SECRET", ""),
		DataHubBaseURL:      getenvDefault("DATAHUB_BASE_URL", ""),
		NordpoolBaseURL:     getenvDefault("NORDPOOL_BASE_URL", ""),
		PriceAreas:          parsePriceAreas(getenvDefault("PRICE_AREAS", "DK1,DK2")),
		GridAreas:           parseList(getenvDefault("GRID_AREAS", "DK1,DK2")),
		SettlementBatchSize: getenvIntDefault("SETTLEMENT_BATCH_SIZE", 100),
		MessagingBatchSize:  getenvIntDefault("MESSAGING_BATCH_SIZE", 100),
		SpotFetchHour:       getenvIntDefault("SPOT_FETCH_HOUR", 13),
		ReconciliationHour:  getenvIntDefault("RECONCILIATION_HOUR", 4),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	if cfg.DataHubBaseURL == "" {
		log.Fatal("DATAHUB_BASE_URL is required")
	}
	if cfg.NordpoolBaseURL == "" {
		log.Fatal("NORDPOOL_BASE_URL is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePriceAreas(value string) []pricing.PriceArea {
	names := parseList(value)
	areas := make([]pricing.PriceArea, 0, len(names))
	for _, n := range names {
		areas = append(areas, pricing.PriceArea(n))
	}
	return areas
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
