package state

import (
	"testing"
	"time"

	"github.com/handoffdev/handoff/pkg/models"
)

func ledgerUnit(id, taskID string, category models.Category, savings int) *models.Unit {
	now := time.Now().UTC()
	return &models.Unit{
		ID:               id,
		TaskID:           taskID,
		SubItemRef:       0,
		RuleName:         "testing",
		Category:         category,
		EstimatedSavings: savings,
		Status:           models.UnitActive,
		CreatedAt:        now,
		StartedAt:        &now,
	}
}

func TestRecordAndListDelegations(t *testing.T) {
	db := openTestDB(t)

	if err := db.Record(ledgerUnit("u1", "t1", models.CategoryTest, 13000)); err != nil {
		t.Fatalf("record: %v", err)
	}

	list, err := db.ListDelegations()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 delegation, got %d", len(list))
	}
	d := list[0]
	if d.UnitID != "u1" || d.Category != "test" || d.Status != "active" {
		t.Errorf("unexpected delegation: %+v", d)
	}
	if d.FinishedAt != nil {
		t.Error("expected no finish time for active delegation")
	}
}

func TestRecordOutcome(t *testing.T) {
	db := openTestDB(t)

	db.Record(ledgerUnit("u1", "t1", models.CategoryExplore, 22000))

	if err := db.RecordOutcome("u1", models.UnitCompleted, "explored"); err != nil {
		t.Fatalf("record outcome: %v", err)
	}

	list, _ := db.ListDelegations()
	if list[0].Status != "completed" || list[0].Summary != "explored" {
		t.Errorf("unexpected outcome: %+v", list[0])
	}
	if list[0].FinishedAt == nil {
		t.Error("expected finish time")
	}

	// Unknown ids are ignored, not an error.
	if err := db.RecordOutcome("missing", models.UnitFailed, ""); err != nil {
		t.Errorf("unexpected error for unknown unit: %v", err)
	}
}

func TestLedgerMetrics(t *testing.T) {
	db := openTestDB(t)

	db.Record(ledgerUnit("u1", "t1", models.CategoryTest, 13000))
	db.Record(ledgerUnit("u2", "t1", models.CategoryExplore, 22000))
	db.Record(ledgerUnit("u3", "t2", models.CategoryTest, 13000))

	db.RecordOutcome("u1", models.UnitCompleted, "done")
	db.RecordOutcome("u2", models.UnitFailed, "")

	m, err := db.Metrics()
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.Total != 3 || m.Completed != 1 || m.Failed != 1 || m.Active != 1 {
		t.Errorf("unexpected counts: %+v", m)
	}
	if m.TotalSavings != 13000 {
		t.Errorf("savings must only count completed units, got %d", m.TotalSavings)
	}
	if m.ByCategory["test"] != 2 || m.ByCategory["explore"] != 1 {
		t.Errorf("unexpected category counts: %+v", m.ByCategory)
	}
	if rate := m.SuccessRate(); rate < 0.33 || rate > 0.34 {
		t.Errorf("unexpected success rate: %f", rate)
	}
}
