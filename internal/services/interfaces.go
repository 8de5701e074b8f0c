package services

import (
	"context"
	"time"

	"github.com/co-intel-labs/labs-1.0/internal/models"
)

// ===== ALLOCATION DTOs =====

type CreateAllocationRequest struct {
	LabID       string    `json:"lab_id" validate:"required"`
	UserID      string    `json:"user_id" validate:"required"`
	AllocatedBy string    `json:"allocated_by" validate:"required"`
	DueDate     time.Time `json:"due_date"`
}

// AllocationPatch carries an administrative edit. Nil fields are left unchanged.
type AllocationPatch struct {
	LabID       *string                  `json:"lab_id" validate:"omitempty,min=1"`
	UserID      *string                  `json:"user_id" validate:"omitempty,min=1"`
	AllocatedBy *string                  `json:"allocated_by" validate:"omitempty,min=1"`
	AllocatedAt *time.Time               `json:"allocated_at"`
	DueDate     *time.Time               `json:"due_date"`
	Status      *models.AllocationStatus `json:"status" validate:"omitempty,allocation_status"`
	CompletedAt *time.Time               `json:"completed_at"`
	Score       *float64                 `json:"score" validate:"omitempty,min=0,max=100"`
}

type AllocationFilter struct {
	UserID string
	LabID  string
	Status models.AllocationStatus
	// Search matches lab title, user name or user email, case-insensitively
	Search string
}

// AllocationDetails is an allocation joined with its lab and user for display
type AllocationDetails struct {
	models.Allocation
	LabTitle  string    `json:"lab_title"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LabStatus is the learner's view of one lab
type LabStatus struct {
	AllocationID string                  `json:"allocation_id"`
	Status       models.AllocationStatus `json:"status"`
	DueDate      time.Time               `json:"due_date"`
	ExpiresAt    time.Time               `json:"expires_at"`
	Progress     int                     `json:"progress"`
}

// ===== LAB DTOs =====

type CertificationCriteriaRequest struct {
	PassingScore int  `json:"passing_score" validate:"min=0,max=100"`
	MaxAttempts  int  `json:"max_attempts" validate:"min=1,max=10"`
	TimeLimit    *int `json:"time_limit" validate:"omitempty,min=1"`
}

type CreateLabRequest struct {
	Title                 string                        `json:"title" validate:"required,max=200"`
	Description           string                        `json:"description" validate:"required,max=2000"`
	CourseID              *string                       `json:"course_id"`
	Category              models.LabCategory            `json:"category" validate:"required,lab_category"`
	Level                 models.LabLevel               `json:"level" validate:"required,lab_level"`
	Type                  models.LabType                `json:"type" validate:"required,lab_type"`
	Duration              int                           `json:"duration" validate:"required,min=1"`
	Instructions          string                        `json:"instructions"`
	Resources             []string                      `json:"resources"`
	Tags                  []string                      `json:"tags"`
	EnvironmentURL        *string                       `json:"environment_url" validate:"omitempty,url"`
	ExpirationHours       *int                          `json:"expiration_hours" validate:"omitempty,expiration_hours"`
	Prerequisites         []string                      `json:"prerequisites"`
	CertificationCriteria *CertificationCriteriaRequest `json:"certification_criteria"`
	ProjectDeliverables   []string                      `json:"project_deliverables"`
	EstimatedEffort       *string                       `json:"estimated_effort"`
}

type UpdateLabRequest struct {
	Title                 *string                       `json:"title" validate:"omitempty,min=1,max=200"`
	Description           *string                       `json:"description" validate:"omitempty,max=2000"`
	CourseID              *string                       `json:"course_id"`
	Category              *models.LabCategory           `json:"category" validate:"omitempty,lab_category"`
	Level                 *models.LabLevel              `json:"level" validate:"omitempty,lab_level"`
	Type                  *models.LabType               `json:"type" validate:"omitempty,lab_type"`
	Duration              *int                          `json:"duration" validate:"omitempty,min=1"`
	Instructions          *string                       `json:"instructions"`
	Resources             []string                      `json:"resources"`
	Tags                  []string                      `json:"tags"`
	EnvironmentURL        *string                       `json:"environment_url" validate:"omitempty,url"`
	ExpirationHours       *int                          `json:"expiration_hours" validate:"omitempty,expiration_hours"`
	Prerequisites         []string                      `json:"prerequisites"`
	CertificationCriteria *CertificationCriteriaRequest `json:"certification_criteria"`
	ProjectDeliverables   []string                      `json:"project_deliverables"`
	EstimatedEffort       *string                       `json:"estimated_effort"`
	IsActive              *bool                         `json:"is_active"`
}

type LabFilter struct {
	Category   models.LabCategory
	Level      models.LabLevel
	Type       models.LabType
	CreatorID  string
	ActiveOnly bool
	// Search matches title, description or any tag, case-insensitively
	Search string
}

// ===== USER DTOs =====

type CreateUserRequest struct {
	Name   string          `json:"name" validate:"required,max=100"`
	Email  string          `json:"email" validate:"required,email"`
	Role   models.UserRole `json:"role" validate:"required,user_role"`
	Avatar *string         `json:"avatar" validate:"omitempty,url"`
}

type UpdateUserStatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,user_status"`
}

type UserFilter struct {
	Status models.UserStatus
	Role   models.UserRole
	// Search matches name or email, case-insensitively
	Search string
}

// ===== COURSE DTOs =====

type CreateCourseRequest struct {
	Name        string             `json:"name" validate:"required,max=200"`
	Category    models.LabCategory `json:"category" validate:"required,lab_category"`
	Description string             `json:"description" validate:"max=2000"`
	Level       models.LabLevel    `json:"level" validate:"required,lab_level"`
	Duration    int                `json:"duration" validate:"required,min=1"`
	Tags        []string           `json:"tags"`
}

// ===== DASHBOARD DTOs =====

type AdminStats struct {
	TotalLabs        int     `json:"total_labs"`
	TotalAllocations int     `json:"total_allocations"`
	TotalUsers       int     `json:"total_users"`
	CompletionRate   float64 `json:"completion_rate"`
}

type CreatorStats struct {
	MyLabs          int     `json:"my_labs"`
	ActiveLabs      int     `json:"active_labs"`
	Allocations     int     `json:"allocations"`
	AverageDuration float64 `json:"average_duration"`
}

type StudentStats struct {
	Assigned   int `json:"assigned"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}

type ActivityItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"` // allocation or lab
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type DashboardStats struct {
	Role           models.UserRole `json:"role"`
	Views          []models.View   `json:"views"`
	Admin          *AdminStats     `json:"admin,omitempty"`
	Creator        *CreatorStats   `json:"creator,omitempty"`
	Student        *StudentStats   `json:"student,omitempty"`
	RecentActivity []ActivityItem  `json:"recent_activity"`
}

// ===== SERVICE INTERFACES =====

type AllocationService interface {
	Create(ctx context.Context, req *CreateAllocationRequest) (*models.Allocation, error)
	Get(ctx context.Context, id string) (*models.Allocation, error)
	Lookup(ctx context.Context, id string) *models.Allocation
	List(ctx context.Context, filter AllocationFilter) ([]models.Allocation, error)
	ListByUser(ctx context.Context, userID string) ([]models.Allocation, error)
	Details(ctx context.Context, allocations []models.Allocation) []AllocationDetails
	Update(ctx context.Context, id string, patch *AllocationPatch) (*models.Allocation, error)
	UpdateStatus(ctx context.Context, id string, status models.AllocationStatus) (*models.Allocation, error)
	Start(ctx context.Context, id string) (*models.Allocation, error)
	Complete(ctx context.Context, id string, score *float64) (*models.Allocation, error)
	Sweep(ctx context.Context) int
	LabStatusForUser(ctx context.Context, labID, userID string) (*LabStatus, error)
}

type LabService interface {
	List(ctx context.Context, filter LabFilter) ([]models.Lab, error)
	ListByCreator(ctx context.Context, creatorID string) ([]models.Lab, error)
	Get(ctx context.Context, id string) (*models.Lab, error)
	Create(ctx context.Context, req *CreateLabRequest, creatorID string) (*models.Lab, error)
	Update(ctx context.Context, id string, req *UpdateLabRequest) (*models.Lab, error)
	SetActive(ctx context.Context, id string, active bool) (*models.Lab, error)
}

type UserService interface {
	List(ctx context.Context, filter UserFilter) ([]models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, req *CreateUserRequest) (*models.User, error)
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error)
	SendVerification(ctx context.Context, id string) (bool, error)
	ImportFromDirectory(ctx context.Context) (int, error)
}

type CourseService interface {
	List(ctx context.Context) ([]models.Course, error)
	Get(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, req *CreateCourseRequest) (*models.Course, error)
}

type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context)
	CurrentSession(ctx context.Context) *models.User
}

type DashboardService interface {
	GetStats(ctx context.Context, user *models.User) (*DashboardStats, error)
}

type ReportService interface {
	ExportAllocations(ctx context.Context, filter AllocationFilter) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Allocation() AllocationService
	Lab() LabService
	User() UserService
	Course() CourseService
	Auth() AuthService
	Dashboard() DashboardService
	Report() ReportService
	Sweeper() *ExpirationSweeper

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
