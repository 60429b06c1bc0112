package calculation

import (
	"context"
	"time"

	"quotis/internal/core/id"
	"quotis/internal/domain"
)

// Repository defines persistence for Calculation documents.
// Implementations load and save the full hierarchy (groups, categories,
// items) and resolve the workflow state reference.
type Repository interface {
	// Create inserts the document with its table part.
	Create(ctx context.Context, calc *Calculation) error

	// GetByID loads the document, its hierarchy and its resolved state.
	GetByID(ctx context.Context, calcID id.ID) (*Calculation, error)

	// Update saves the document and replaces its table part, with
	// optimistic locking on the document row.
	Update(ctx context.Context, calc *Calculation) error

	// SetDeletionMark sets or clears the soft-delete mark.
	SetDeletionMark(ctx context.Context, calcID id.ID, marked bool) error

	// List retrieves document headers without their table part.
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Calculation], error)

	// NextNumber reserves the next document number.
	NextNumber(ctx context.Context) (string, error)
}

// HistoryStore records immutable revision snapshots of a calculation.
type HistoryStore interface {
	// Record stores a snapshot of the document under the given action
	// ("create", "update", "duplicate", ...).
	Record(ctx context.Context, calc *Calculation, action string) error

	// Revisions lists stored snapshots for a document, newest first.
	Revisions(ctx context.Context, calcID id.ID, limit int) ([]Revision, error)

	// Revision loads a single snapshot with its body.
	Revision(ctx context.Context, calcID, revisionID id.ID) (*Revision, error)
}

// Revision is one stored snapshot of a calculation.
type Revision struct {
	ID            id.ID   `db:"id" json:"id"`
	CalculationID id.ID   `db:"calculation_id" json:"calculationId"`
	Action        string  `db:"action" json:"action"`
	Version       int     `db:"version" json:"version"`
	OverallTotal  float64 `db:"overall_total" json:"overallTotal"`
	RecordedBy    string  `db:"recorded_by" json:"recordedBy,omitempty"`

	RecordedAt time.Time `db:"recorded_at" json:"recordedAt"`

	// Snapshot is the JSON document body, decompressed on read
	Snapshot []byte `db:"-" json:"snapshot,omitempty"`
}
