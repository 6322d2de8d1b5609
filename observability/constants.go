package observability

// Metric name prefixes
const (
	MetricPrefix = "nhl_app"
)

// Metric names
const (
	// Intake metrics
	WagersPlacedTotal = MetricPrefix + ".wagers.placed_total"

	// Settlement metrics
	WagersSettledTotal       = MetricPrefix + ".wagers.settled_total"
	SettlementPassesTotal    = MetricPrefix + ".settlement.passes_total"
	SettlementPassDuration   = MetricPrefix + ".settlement.pass_duration"
	SettlementConflictsTotal = MetricPrefix + ".settlement.conflicts_total"

	// Balance metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"

	// Upstream metrics
	UpstreamFetchesTotal  = MetricPrefix + ".upstream.fetches_total"
	UpstreamFetchDuration = MetricPrefix + ".upstream.fetch_duration"
)

// Label keys
const (
	LabelKind     = "kind"
	LabelStatus   = "status"
	LabelType     = "type"
	LabelEndpoint = "endpoint"
	LabelOutcome  = "outcome"
)

// Upstream fetch outcomes
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
