package internal

// CatalogEntry is one aggregated reference record: a normalized OE number
// and every YV cross-reference code associated with it.
type CatalogEntry struct {
	OE string
	YV []string
}

type RunStatus string

const (
	RunOK       RunStatus = "OK"
	RunRejected RunStatus = "REJECTED"
	RunFailed   RunStatus = "FAILED"
)

// RunRecord is the per-request audit row kept in sqlite. It is written
// after the response is decided and never influences it.
type RunRecord struct {
	ID               int
	TraceID          string
	OriginalFilename string
	Keywords         string
	QueryCount       int
	MatchCount       int
	OutputFilename   *string
	Status           RunStatus
	Error            *string
	DurationMs       float64
	CreatedAt        string
}
