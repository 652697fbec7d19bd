package usecase

import "time"

const (
	// DefaultLedgerKey is the blob key holding the whole ledger.
	DefaultLedgerKey = "transactions"

	// DefaultPersistTimeout bounds a single ledger write.
	DefaultPersistTimeout = 10 * time.Second

	// DashboardRecentCount is how many movements the dashboard lists.
	DashboardRecentCount = 5

	// AnalysisContextSize is how many of the latest transactions are sent
	// along with an analysis question.
	AnalysisContextSize = 50

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultReportTitle heads exported reports.
	DefaultReportTitle = "Financial Report"
)
