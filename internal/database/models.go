package database

// Cycle is the stored summary of one fetch/merge pass.
type Cycle struct {
	ID         int64
	StartedAt  string // RFC 3339, UTC
	FinishedAt string
	Fetched    int
	Added      int
	Outcome    string
	Error      *string
}

// Failed reports whether the cycle ended with an error.
func (c Cycle) Failed() bool {
	return c.Error != nil && *c.Error != ""
}

// Stats contains aggregate run history statistics.
type Stats struct {
	TotalCycles  int
	FailedCycles int
	TotalAdded   int
	LastCycleAt  *string
	StoredRows   int
}
