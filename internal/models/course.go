package models

import "time"

type Course struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Category    LabCategory `json:"category"`
	Description string      `json:"description"`
	Level       LabLevel    `json:"level"`
	Duration    int         `json:"duration"` // hours
	Tags        []string    `json:"tags"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

func (c Course) RecordID() string { return c.ID }

func (c Course) Diverged() bool { return c.UpdatedAt != nil }

func (c Course) Touched(at time.Time) Course {
	c.UpdatedAt = &at
	return c
}

func (c Course) Clone() Course {
	c.Tags = cloneStrings(c.Tags)
	c.UpdatedAt = cloneTime(c.UpdatedAt)
	return c
}
