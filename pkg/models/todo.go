package models

import "time"

// Todo is an admin task. A todo is in progress until Completed is set;
// Cancelled distinguishes abandoned todos from finished ones.
type Todo struct {
	ID        int64      `json:"id"`
	Content   string     `json:"content"`
	Assigned  *int64     `json:"assigned,omitempty"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Started   time.Time  `json:"started"`
	Completed *time.Time `json:"completed,omitempty"`
	Cancelled bool       `json:"cancelled"`
}

// Status returns the human-readable status tag used in listings.
func (t *Todo) Status() string {
	switch {
	case t.Completed != nil && t.Cancelled:
		return "cancelled"
	case t.Completed != nil:
		return "completed"
	default:
		return "in progress"
	}
}
