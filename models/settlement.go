package models

import (
	"fmt"
	"strings"
	"time"
)

// ResolveReport is the operator-facing outcome of one settlement pass
type ResolveReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Settled    int       `json:"settled"`
	Refunded   int       `json:"refunded"`
	Deferred   int       `json:"deferred"`
	Conflicts  int       `json:"conflicts"`
	Failures   int       `json:"failures"`
	PaidOut    int64     `json:"paid_out"`
	Lines      []string  `json:"log"`
}

// NewResolveReport starts a report at the given time
func NewResolveReport(now time.Time) *ResolveReport {
	return &ResolveReport{StartedAt: now, Lines: []string{}}
}

// Logf appends one line to the human-readable log
func (r *ResolveReport) Logf(format string, args ...any) {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

// String renders the log one entry per line
func (r *ResolveReport) String() string {
	return strings.Join(r.Lines, "\n")
}
