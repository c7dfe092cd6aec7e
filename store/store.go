package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one deployment metric.
type Record struct {
	// ID is unique per record and preserved across regions.
	ID string `json:"id"`

	// Timestamp is when the metric was ingested.
	Timestamp time.Time `json:"timestamp"`

	DeploymentID    string  `json:"deployment_id"`
	Status          string  `json:"status"`
	DurationSeconds float64 `json:"duration"`

	// Region is the region that ingested the record. Replication copies it
	// unchanged, so a DR copy still names its origin.
	Region string `json:"region"`
}

// Validate reports whether the record can be stored.
func (r Record) Validate() error {
	if r.ID == "" {
		return ErrInvalidRecord
	}
	return nil
}

// Page is one slice of a Scan.
type Page struct {
	Records []Record

	// NextToken is passed to the next Scan call. Empty means no more pages.
	NextToken string
}

// Status is the operational state of a store's table.
type Status string

// StatusActive is the only state in which a table is considered healthy.
const StatusActive Status = "ACTIVE"

// Active reports whether s is StatusActive.
func (s Status) Active() bool {
	return s == StatusActive
}

// Store is a key-value metric store.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: every call honors cancellation and deadlines.
// - Errors: Get returns ErrNotFound on a miss; Put rejects invalid records
//   with ErrInvalidRecord.
type Store interface {
	// Get returns the record with the given id.
	Get(ctx context.Context, id string) (Record, error)

	// Put writes rec, replacing any record with the same id.
	Put(ctx context.Context, rec Record) error

	// Scan returns the page starting at pageToken ("" for the first page).
	Scan(ctx context.Context, pageToken string) (Page, error)

	// DescribeStatus returns the table state.
	DescribeStatus(ctx context.Context) (Status, error)

	// Close releases the underlying connection.
	Close() error
}

// NewRecord builds a record for ingestion. The id is a UUIDv7, which is both
// unique and ordered by creation time.
func NewRecord(deploymentID, status string, duration float64, region string, now time.Time) Record {
	if deploymentID == "" {
		deploymentID = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	if region == "" {
		region = "unknown"
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return Record{
		ID:              id.String(),
		Timestamp:       now.UTC(),
		DeploymentID:    deploymentID,
		Status:          status,
		DurationSeconds: duration,
		Region:          region,
	}
}

// DefaultListLimit is the number of records List returns when limit <= 0.
const DefaultListLimit = 50

// List reads up to limit records from s, following pages as needed.
func List(ctx context.Context, s Store, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	out := make([]Record, 0, limit)
	token := ""
	for {
		page, err := s.Scan(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}

		for _, rec := range page.Records {
			out = append(out, rec)
			if len(out) == limit {
				return out, nil
			}
		}

		if page.NextToken == "" {
			return out, nil
		}
		token = page.NextToken
	}
}
