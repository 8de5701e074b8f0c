package models

import (
	"time"
)

type AllocationStatus string

const (
	AllocationAssigned   AllocationStatus = "assigned"
	AllocationInProgress AllocationStatus = "in-progress"
	AllocationCompleted  AllocationStatus = "completed"
	AllocationOverdue    AllocationStatus = "overdue"
)

// IsTerminal reports whether automatic expiration leaves the status alone.
func (s AllocationStatus) IsTerminal() bool {
	return s == AllocationCompleted || s == AllocationOverdue
}

type Allocation struct {
	ID          string           `json:"id"`
	LabID       string           `json:"lab_id"`
	UserID      string           `json:"user_id"`
	AllocatedBy string           `json:"allocated_by"`
	AllocatedAt time.Time        `json:"allocated_at"`
	DueDate     time.Time        `json:"due_date"`
	Status      AllocationStatus `json:"status"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Score       *float64         `json:"score,omitempty"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

func (a Allocation) RecordID() string { return a.ID }

func (a Allocation) Diverged() bool { return a.UpdatedAt != nil }

func (a Allocation) Touched(at time.Time) Allocation {
	a.UpdatedAt = &at
	return a
}

func (a Allocation) Clone() Allocation {
	a.CompletedAt = cloneTime(a.CompletedAt)
	a.Score = cloneFloat(a.Score)
	a.UpdatedAt = cloneTime(a.UpdatedAt)
	return a
}
