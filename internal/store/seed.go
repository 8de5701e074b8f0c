package store

import (
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/co-intel-labs/labs-1.0/internal/models"
)

//go:embed seed/*.json
var seedFS embed.FS

// Seed supplies the bundled default records for each collection.
type Seed struct {
	Labs        func() []models.Lab
	Users       func() []models.User
	Courses     func() []models.Course
	Allocations func(now time.Time) []models.Allocation
}

// DefaultSeed returns the bundled demo dataset.
func DefaultSeed() Seed {
	return Seed{
		Labs:        func() []models.Lab { return mustDecodeSeed[models.Lab]("seed/labs.json") },
		Users:       func() []models.User { return mustDecodeSeed[models.User]("seed/users.json") },
		Courses:     func() []models.Course { return mustDecodeSeed[models.Course]("seed/courses.json") },
		Allocations: DefaultAllocations,
	}
}

// EmptySeed starts every collection empty.
func EmptySeed() Seed {
	return Seed{}
}

// DefaultAllocations builds the demo allocations relative to now so that the
// expiration engine has one overdue candidate on first start.
func DefaultAllocations(now time.Time) []models.Allocation {
	completedAt := time.Date(2024, 1, 20, 15, 30, 0, 0, time.UTC)
	score := 95.0
	due := func(day int) time.Time { return time.Date(2024, 1, day, 23, 59, 59, 0, time.UTC) }

	return []models.Allocation{
		{
			ID:          "1",
			LabID:       "1",
			UserID:      "3",
			AllocatedBy: "1",
			AllocatedAt: now.Add(-45 * time.Hour),
			DueDate:     due(25),
			Status:      models.AllocationInProgress,
		},
		{
			ID:          "2",
			LabID:       "2",
			UserID:      "4",
			AllocatedBy: "1",
			AllocatedAt: now.Add(-2 * time.Hour),
			DueDate:     due(26),
			Status:      models.AllocationAssigned,
		},
		{
			ID:          "3",
			LabID:       "3",
			UserID:      "3",
			AllocatedBy: "1",
			AllocatedAt: now.Add(-10 * time.Hour),
			DueDate:     due(27),
			Status:      models.AllocationAssigned,
		},
		{
			ID:          "4",
			LabID:       "4",
			UserID:      "3",
			AllocatedBy: "1",
			AllocatedAt: now.Add(-50 * time.Hour),
			DueDate:     due(28),
			Status:      models.AllocationCompleted,
			CompletedAt: &completedAt,
			Score:       &score,
		},
	}
}

func mustDecodeSeed[T any](name string) []T {
	data, err := seedFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("read embedded seed %s: %v", name, err))
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("decode embedded seed %s: %v", name, err))
	}
	return out
}
