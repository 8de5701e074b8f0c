package models

import (
	"time"
)

type LabCategory string

const (
	CategoryAIML           LabCategory = "AI/ML"
	CategoryDataScience    LabCategory = "Data Science"
	CategoryPython         LabCategory = "Python"
	CategoryWebDevelopment LabCategory = "Web Development"
	CategoryDevOps         LabCategory = "DevOps"
)

type LabLevel string

const (
	LevelBeginner     LabLevel = "Beginner"
	LevelIntermediate LabLevel = "Intermediate"
	LevelAdvanced     LabLevel = "Advanced"
)

type LabType string

const (
	LabTypeCourse        LabType = "course"
	LabTypeCertification LabType = "certification"
	LabTypeProject       LabType = "project"
)

const (
	// DefaultExpirationHours applies when a lab carries no usable expiration window.
	DefaultExpirationHours = 40
	MaxExpirationHours     = 168
)

// Default certification criteria for certification labs created without explicit criteria.
const (
	DefaultPassingScore = 80
	DefaultMaxAttempts  = 3
	DefaultTimeLimit    = 120
)

type CertificationCriteria struct {
	PassingScore int  `json:"passing_score"`
	MaxAttempts  int  `json:"max_attempts"`
	TimeLimit    *int `json:"time_limit,omitempty"` // minutes
}

func DefaultCertificationCriteria() *CertificationCriteria {
	limit := DefaultTimeLimit
	return &CertificationCriteria{
		PassingScore: DefaultPassingScore,
		MaxAttempts:  DefaultMaxAttempts,
		TimeLimit:    &limit,
	}
}

type Lab struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	CourseID     *string     `json:"course_id,omitempty"`
	CreatorID    string      `json:"creator_id"`
	Category     LabCategory `json:"category"`
	Level        LabLevel    `json:"level"`
	Type         LabType     `json:"type"`
	Duration     int         `json:"duration"` // minutes
	Instructions string      `json:"instructions"`
	Resources    []string    `json:"resources"`
	Tags         []string    `json:"tags"`
	CreatedAt    time.Time   `json:"created_at"`
	IsActive     bool        `json:"is_active"`

	EnvironmentURL  *string  `json:"environment_url,omitempty"`
	ExpirationHours *int     `json:"expiration_hours,omitempty"`
	Prerequisites   []string `json:"prerequisites,omitempty"`

	// Certification labs only
	CertificationCriteria *CertificationCriteria `json:"certification_criteria,omitempty"`

	// Project labs only
	ProjectDeliverables []string `json:"project_deliverables,omitempty"`
	EstimatedEffort     *string  `json:"estimated_effort,omitempty"`

	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ExpirationWindowHours returns the configured window, falling back to the default
// when the value is absent or not positive.
func (l *Lab) ExpirationWindowHours() int {
	if l == nil || l.ExpirationHours == nil || *l.ExpirationHours <= 0 {
		return DefaultExpirationHours
	}
	return *l.ExpirationHours
}

// NormalizeTypeFields drops optional fields that do not belong to the lab type and
// fills the certification defaults.
func (l *Lab) NormalizeTypeFields() {
	if l.Type == LabTypeCertification {
		if l.CertificationCriteria == nil {
			l.CertificationCriteria = DefaultCertificationCriteria()
		}
	} else {
		l.CertificationCriteria = nil
	}

	if l.Type != LabTypeProject {
		l.ProjectDeliverables = nil
		l.EstimatedEffort = nil
	}
}

func (l Lab) RecordID() string { return l.ID }

func (l Lab) Diverged() bool { return l.UpdatedAt != nil }

func (l Lab) Touched(at time.Time) Lab {
	l.UpdatedAt = &at
	return l
}

func (l Lab) Clone() Lab {
	l.CourseID = cloneString(l.CourseID)
	l.Resources = cloneStrings(l.Resources)
	l.Tags = cloneStrings(l.Tags)
	l.EnvironmentURL = cloneString(l.EnvironmentURL)
	l.ExpirationHours = cloneInt(l.ExpirationHours)
	l.Prerequisites = cloneStrings(l.Prerequisites)
	if l.CertificationCriteria != nil {
		criteria := *l.CertificationCriteria
		criteria.TimeLimit = cloneInt(criteria.TimeLimit)
		l.CertificationCriteria = &criteria
	}
	l.ProjectDeliverables = cloneStrings(l.ProjectDeliverables)
	l.EstimatedEffort = cloneString(l.EstimatedEffort)
	l.UpdatedAt = cloneTime(l.UpdatedAt)
	return l
}
