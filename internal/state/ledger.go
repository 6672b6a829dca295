package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/handoffdev/handoff/pkg/models"
)

// Delegation is one row in the telemetry ledger: a record of a unit
// being handed to a helper agent and, eventually, its outcome. The
// ledger is best-effort; the orchestration snapshot remains the source
// of truth for lifecycle state.
type Delegation struct {
	UnitID           string     `json:"unit_id"`
	TaskID           string     `json:"task_id"`
	SubItemRef       int        `json:"sub_item_ref"`
	Category         string     `json:"category"`
	RuleName         string     `json:"rule_name"`
	Status           string     `json:"status"`
	EstimatedSavings int        `json:"estimated_savings"`
	Summary          string     `json:"summary,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// LedgerMetrics aggregates the ledger for reporting.
type LedgerMetrics struct {
	Total        int            `json:"total"`
	Active       int            `json:"active"`
	Completed    int            `json:"completed"`
	Failed       int            `json:"failed"`
	TotalSavings int            `json:"total_savings"`
	ByCategory   map[string]int `json:"by_category"`
}

// SuccessRate returns completed/total, or 0 for an empty ledger.
func (m *LedgerMetrics) SuccessRate() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Completed) / float64(m.Total)
}

// Record appends a delegation to the ledger when a unit starts.
func (db *DB) Record(unit *models.Unit) error {
	startedAt := time.Now().UTC()
	if unit.StartedAt != nil {
		startedAt = *unit.StartedAt
	}

	_, err := db.Exec(`
		INSERT OR REPLACE INTO delegations
			(unit_id, task_id, sub_item_ref, category, rule_name, status, estimated_savings, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, unit.ID, unit.TaskID, unit.SubItemRef, string(unit.Category), unit.RuleName,
		string(models.UnitActive), unit.EstimatedSavings, formatTime(startedAt))
	if err != nil {
		return fmt.Errorf("record delegation: %w", err)
	}
	return nil
}

// RecordOutcome updates a ledger row with the unit's terminal state.
// Unknown unit ids are ignored.
func (db *DB) RecordOutcome(unitID string, status models.UnitStatus, summary string) error {
	_, err := db.Exec(`
		UPDATE delegations SET status = ?, summary = ?, finished_at = ? WHERE unit_id = ?
	`, string(status), summary, formatTime(time.Now()), unitID)
	if err != nil {
		return fmt.Errorf("record delegation outcome: %w", err)
	}
	return nil
}

// ListDelegations returns the ledger, newest first.
func (db *DB) ListDelegations() ([]Delegation, error) {
	rows, err := db.Query(`
		SELECT unit_id, task_id, sub_item_ref, category, rule_name, status,
		       estimated_savings, summary, started_at, finished_at
		FROM delegations ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list delegations: %w", err)
	}
	defer rows.Close()

	var out []Delegation
	for rows.Next() {
		var d Delegation
		var ruleName, summary sql.NullString
		var startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&d.UnitID, &d.TaskID, &d.SubItemRef, &d.Category, &ruleName,
			&d.Status, &d.EstimatedSavings, &summary, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan delegation: %w", err)
		}
		d.RuleName = ruleName.String
		d.Summary = summary.String
		d.StartedAt, _ = parseTime(startedAt)
		d.FinishedAt = parseNullableTime(finishedAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Metrics aggregates the ledger. Savings only count completed units.
func (db *DB) Metrics() (*LedgerMetrics, error) {
	delegations, err := db.ListDelegations()
	if err != nil {
		return nil, err
	}

	m := &LedgerMetrics{ByCategory: make(map[string]int)}
	for _, d := range delegations {
		m.Total++
		m.ByCategory[d.Category]++
		switch models.UnitStatus(d.Status) {
		case models.UnitCompleted:
			m.Completed++
			m.TotalSavings += d.EstimatedSavings
		case models.UnitFailed:
			m.Failed++
		default:
			m.Active++
		}
	}
	return m, nil
}
