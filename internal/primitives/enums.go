package primitives

// MeteringPointType enumerates the DataHub metering point type codes
// relevant to settlement (spec.md §2).
type MeteringPointType string

const (
	MeteringPointConsumption MeteringPointType = "consumption"
	MeteringPointProduction  MeteringPointType = "production"
	MeteringPointExchange    MeteringPointType = "exchange"
)

// SettlementMethod enumerates net/flex/profiled settlement methods.
type SettlementMethod string

const (
	SettlementMethodFlex      SettlementMethod = "flex"
	SettlementMethodProfiled  SettlementMethod = "profiled"
	SettlementMethodNonProfiled SettlementMethod = "non_profiled"
)

// Resolution enumerates the reading/price resolutions used across time
// series and price points.
type Resolution string

const (
	ResolutionPT1H  Resolution = "PT1H"
	ResolutionPT15M Resolution = "PT15M"
	ResolutionP1D   Resolution = "P1D"
	ResolutionP1M   Resolution = "P1M"
)

// PriceType enumerates the three DataHub charge shapes.
type PriceType string

const (
	PriceTypeTariff       PriceType = "tariff"
	PriceTypeSubscription PriceType = "subscription"
	PriceTypeFee          PriceType = "fee"
)

// PriceCategory enumerates the regulated charge categories used by the
// settlement validator's completeness check (spec.md §4.5).
type PriceCategory string

const (
	CategorySpotPris            PriceCategory = "SpotPris"
	CategoryNettarif            PriceCategory = "Nettarif"
	CategorySystemtarif         PriceCategory = "Systemtarif"
	CategoryTransmissionstarif  PriceCategory = "Transmissionstarif"
	CategoryElafgift            PriceCategory = "Elafgift"
	CategoryBalancetarif        PriceCategory = "Balancetarif"
	CategoryLeverandoertillaeg  PriceCategory = "Leverandørtillæg"
)

// RequiredPriceCategories lists the categories a metering point's active
// links must cover before invoicing (spec.md §4.5.1).
var RequiredPriceCategories = []PriceCategory{
	CategorySpotPris,
	CategoryNettarif,
	CategorySystemtarif,
	CategoryTransmissionstarif,
	CategoryElafgift,
	CategoryBalancetarif,
	CategoryLeverandoertillaeg,
}

// QuantityQuality enumerates observation quality flags.
type QuantityQuality string

const (
	QualityMeasured  QuantityQuality = "measured"
	QualityEstimated QuantityQuality = "estimated"
	QualityCalculated QuantityQuality = "calculated"
	QualityMissing   QuantityQuality = "missing"
)

// SettlementStatus enumerates the settlement lifecycle (spec.md §3.2).
type SettlementStatus string

const (
	SettlementCalculated SettlementStatus = "calculated"
	SettlementInvoiced   SettlementStatus = "invoiced"
	SettlementAdjusted   SettlementStatus = "adjusted"
	SettlementMigrated   SettlementStatus = "migrated"
)

// SettlementLineSource enumerates where a settlement line's rate came from.
type SettlementLineSource string

const (
	SourceDataHubCharge  SettlementLineSource = "datahub_charge"
	SourceSpotPrice      SettlementLineSource = "spot_price"
	SourceSupplierMargin SettlementLineSource = "supplier_margin"
)

// PricingModel enumerates the supplier's electricity cost pricing model.
type PricingModel string

const (
	PricingModelSpotAddon PricingModel = "spot_addon"
	PricingModelFixed     PricingModel = "fixed"
)

// ConnectionState enumerates the metering point's physical connection
// state as driven by BRS-008/-013.
type ConnectionState string

const (
	ConnectionConnected    ConnectionState = "connected"
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionClosedDown   ConnectionState = "closed_down"
)

// SettlementIssueStatus enumerates a SettlementIssue's lifecycle.
type SettlementIssueStatus string

const (
	IssueOpen      SettlementIssueStatus = "open"
	IssueResolved  SettlementIssueStatus = "resolved"
	IssueDismissed SettlementIssueStatus = "dismissed"
)

// ReconciliationStatus enumerates a ReconciliationResult's verdict.
type ReconciliationStatus string

const (
	ReconciliationBalanced  ReconciliationStatus = "balanced"
	ReconciliationDeviating ReconciliationStatus = "deviating"
)
