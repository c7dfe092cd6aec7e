package replication

import (
	"time"

	"github.com/jonwraymond/opswatch/store"
)

// Status is the outcome of a replication run.
type Status string

const (
	// StatusSuccess means the source was fully scanned.
	StatusSuccess Status = "success"
	// StatusFailed means the run ended early.
	StatusFailed Status = "failed"
)

// Result summarises one replication run.
type Result struct {
	Status Status `json:"status"`

	// ReplicatedCount is the number of records written successfully.
	ReplicatedCount int `json:"replicated_items"`

	// FailedCount is the number of records whose write failed.
	FailedCount int `json:"failed_items"`

	SourceRegion string    `json:"primary_region"`
	DestRegion   string    `json:"dr_region"`
	Timestamp    time.Time `json:"timestamp"`

	// Error is set when Status is StatusFailed.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the run completed.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Endpoint is one side of a replication run.
type Endpoint struct {
	Region string
	Store  store.Store
}
