// Package state provides SQLite-based persistence for handoff.
package state

import (
	"io"

	"github.com/handoffdev/handoff/pkg/models"
)

// TaskSource exposes the parent tasks and sub-items the orchestration
// engine evaluates against.
type TaskSource interface {
	ActiveTask() (*Task, error)
	GetTask(id string) (*Task, error)
	MarkSubItemDone(taskID string, ref int) (bool, error)
}

// Ledger is the best-effort delegation telemetry sink.
type Ledger interface {
	Record(unit *models.Unit) error
	RecordOutcome(unitID string, status models.UnitStatus, summary string) error
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store defines the full persistence surface. It allows callers to
// work with any backend without depending on the concrete SQLite
// implementation.
type Store interface {
	io.Closer
	Migrator
	TaskSource
}

// Compile-time verification that DB implements the interfaces.
var (
	_ Store      = (*DB)(nil)
	_ Migrator   = (*DB)(nil)
	_ TaskSource = (*DB)(nil)
	_ Ledger     = (*DB)(nil)
)
