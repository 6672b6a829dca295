package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of a parent task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// SubItem is one unit of work inside a parent task. Ref is its stable
// index within the task.
type SubItem struct {
	Ref  int    `json:"ref"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Task is a parent task owning zero or more sub-items.
type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	SubItems    []SubItem  `json:"sub_items,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// PendingSubItems returns the sub-items not yet marked done.
func (t *Task) PendingSubItems() []SubItem {
	var pending []SubItem
	for _, s := range t.SubItems {
		if !s.Done {
			pending = append(pending, s)
		}
	}
	return pending
}

// IsComplete returns true when every sub-item is done.
func (t *Task) IsComplete() bool {
	for _, s := range t.SubItems {
		if !s.Done {
			return false
		}
	}
	return len(t.SubItems) > 0
}

// CreateTask creates a task with the given sub-item texts and returns it.
func (db *DB) CreateTask(name, description string, subItems []string) (*Task, error) {
	task := &Task{
		ID:          uuid.New().String()[:8],
		Name:        name,
		Description: description,
		Status:      TaskPending,
		CreatedAt:   time.Now().UTC(),
	}

	err := db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO tasks (id, name, description, status, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, task.ID, task.Name, task.Description, string(task.Status), formatTime(task.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}

		for i, text := range subItems {
			if _, err := tx.Exec(`
				INSERT INTO sub_items (task_id, idx, text, done) VALUES (?, ?, ?, 0)
			`, task.ID, i, text); err != nil {
				return fmt.Errorf("insert sub-item %d: %w", i, err)
			}
			task.SubItems = append(task.SubItems, SubItem{Ref: i, Text: text})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask retrieves a task and its sub-items by ID. Returns (nil, nil)
// when no task has that ID.
func (db *DB) GetTask(id string) (*Task, error) {
	row := db.QueryRow(`
		SELECT id, name, description, status, created_at, completed_at
		FROM tasks WHERE id = ?
	`, id)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	if err := db.loadSubItems(task); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns all tasks, optionally filtered by status, newest first.
func (db *DB) ListTasks(status *TaskStatus) ([]Task, error) {
	query := `
		SELECT id, name, description, status, created_at, completed_at
		FROM tasks
	`
	var args []any
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	for i := range tasks {
		if err := db.loadSubItems(&tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// ActiveTask returns the task currently in progress, or (nil, nil) when
// none is.
func (db *DB) ActiveTask() (*Task, error) {
	row := db.QueryRow(`
		SELECT id, name, description, status, created_at, completed_at
		FROM tasks WHERE status = ? ORDER BY created_at DESC LIMIT 1
	`, string(TaskInProgress))

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active task: %w", err)
	}

	if err := db.loadSubItems(task); err != nil {
		return nil, err
	}
	return task, nil
}

// StartTask marks the given task in progress. Any other in-progress
// task is demoted back to pending; exactly one task is active at a time.
func (db *DB) StartTask(id string) (*Task, error) {
	err := db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			UPDATE tasks SET status = ? WHERE status = ?
		`, string(TaskPending), string(TaskInProgress)); err != nil {
			return fmt.Errorf("demote active task: %w", err)
		}

		res, err := tx.Exec(`
			UPDATE tasks SET status = ? WHERE id = ?
		`, string(TaskInProgress), id)
		if err != nil {
			return fmt.Errorf("start task: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("task %s not found", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.GetTask(id)
}

// AddSubItem appends a sub-item to a task and returns its ref.
func (db *DB) AddSubItem(taskID, text string) (int, error) {
	var ref int
	err := db.Transaction(func(tx *sql.Tx) error {
		row := tx.QueryRow(`
			SELECT COALESCE(MAX(idx), -1) + 1 FROM sub_items WHERE task_id = ?
		`, taskID)
		if err := row.Scan(&ref); err != nil {
			return fmt.Errorf("next sub-item index: %w", err)
		}

		if _, err := tx.Exec(`
			INSERT INTO sub_items (task_id, idx, text, done) VALUES (?, ?, ?, 0)
		`, taskID, ref, text); err != nil {
			return fmt.Errorf("insert sub-item: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return ref, nil
}

// MarkSubItemDone marks a sub-item done. Returns false when the task or
// ref does not exist. A task whose sub-items are all done is marked done.
func (db *DB) MarkSubItemDone(taskID string, ref int) (bool, error) {
	res, err := db.Exec(`
		UPDATE sub_items SET done = 1 WHERE task_id = ? AND idx = ?
	`, taskID, ref)
	if err != nil {
		return false, fmt.Errorf("mark sub-item done: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	var remaining int
	row := db.QueryRow(`
		SELECT COUNT(*) FROM sub_items WHERE task_id = ? AND done = 0
	`, taskID)
	if err := row.Scan(&remaining); err != nil {
		return false, fmt.Errorf("count pending sub-items: %w", err)
	}
	if remaining == 0 {
		if _, err := db.Exec(`
			UPDATE tasks SET status = ?, completed_at = ? WHERE id = ?
		`, string(TaskDone), formatTime(time.Now()), taskID); err != nil {
			return false, fmt.Errorf("complete task: %w", err)
		}
	}
	return true, nil
}

// rowScanner abstracts sql.Row and sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	var createdAt string
	var completedAt sql.NullString
	var description sql.NullString

	err := row.Scan(&t.ID, &t.Name, &description, &t.Status, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}

	t.Description = description.String
	t.CreatedAt, _ = parseTime(createdAt)
	t.CompletedAt = parseNullableTime(completedAt)
	return &t, nil
}

func (db *DB) loadSubItems(task *Task) error {
	rows, err := db.Query(`
		SELECT idx, text, done FROM sub_items WHERE task_id = ? ORDER BY idx
	`, task.ID)
	if err != nil {
		return fmt.Errorf("load sub-items: %w", err)
	}
	defer rows.Close()

	task.SubItems = nil
	for rows.Next() {
		var s SubItem
		var done int
		if err := rows.Scan(&s.Ref, &s.Text, &done); err != nil {
			return fmt.Errorf("scan sub-item: %w", err)
		}
		s.Done = done != 0
		task.SubItems = append(task.SubItems, s)
	}
	return rows.Err()
}
