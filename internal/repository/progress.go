package repository

import "context"

// Progress is the read-shape for a job's counters (§4.3).
type Progress struct {
	JobID            string
	Status           string
	TotalRows        int
	ProcessedRows    int
	SuccessfulRows   int
	ErrorRows        int
	LastProcessedRow int
}

// Percentage returns round(processed/total*100, 2), or 0 when total is 0.
func (p Progress) Percentage() float64 {
	if p.TotalRows == 0 {
		return 0
	}
	pct := float64(p.ProcessedRows) / float64(p.TotalRows) * 100
	return float64(int(pct*100+0.5)) / 100
}

// ProgressStore is the fast-read cache in front of the durable job
// counters (C3). Writes happen inside the same chunk commit that writes
// the durable counters; reads fall back to the durable store on a cache
// miss and best-effort repopulate the cache.
type ProgressStore interface {
	Put(ctx context.Context, p Progress) error
	Get(ctx context.Context, jobID string) (Progress, bool, error)
	Invalidate(ctx context.Context, jobID string) error
}
