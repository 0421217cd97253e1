package domain

// TaskStatus represents the processing state of a single paper.
type TaskStatus string

// Possible paper status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusRetrying   TaskStatus = "retrying"
)

// IsValid reports whether the status is one of the defined TaskStatus values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusRetrying:
		return true
	default:
		return false
	}
}

// DailyStatus represents the state of one (date, category) batch run.
type DailyStatus string

// Possible batch status values
const (
	DailyStatusPending    DailyStatus = "pending"
	DailyStatusInProgress DailyStatus = "in_progress"
	DailyStatusCompleted  DailyStatus = "completed"
	DailyStatusFailed     DailyStatus = "failed"
	DailyStatusNoPapers   DailyStatus = "no_papers"
)

// IsValid reports whether the status is one of the defined DailyStatus values.
func (s DailyStatus) IsValid() bool {
	switch s {
	case DailyStatusPending, DailyStatusInProgress, DailyStatusCompleted,
		DailyStatusFailed, DailyStatusNoPapers:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the batch has reached a final state.
func (s DailyStatus) IsTerminal() bool {
	switch s {
	case DailyStatusCompleted, DailyStatusFailed, DailyStatusNoPapers:
		return true
	default:
		return false
	}
}
