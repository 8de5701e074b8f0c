package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/store"
)

const recentActivityLimit = 5

type dashboardService struct {
	store       *store.RecordStore
	allocations AllocationService
	logger      *slog.Logger
}

func NewDashboardService(recordStore *store.RecordStore, allocations AllocationService, logger *slog.Logger) DashboardService {
	return &dashboardService{
		store:       recordStore,
		allocations: allocations,
		logger:      logger,
	}
}

// GetStats builds the role-specific dashboard for user.
func (s *dashboardService) GetStats(ctx context.Context, user *models.User) (*DashboardStats, error) {
	if user == nil {
		return nil, ErrForbidden
	}
	s.logger.Debug("Building dashboard", "user_id", user.ID, "role", user.Role)

	// One sweep for the whole dashboard, then plain reads.
	allocations, err := s.allocations.List(ctx, AllocationFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	labs := s.store.Labs.LoadAll(ctx)

	stats := &DashboardStats{
		Role:  user.Role,
		Views: models.AvailableViews(user.Role),
	}

	switch user.Role {
	case models.RoleAdmin:
		stats.Admin = adminStats(labs, allocations, len(s.store.Users.LoadAll(ctx)))
		stats.RecentActivity = recentLabs(labs)
	case models.RoleCreator:
		stats.Creator = creatorStats(user.ID, labs, allocations)
		stats.RecentActivity = recentLabs(labs)
	default:
		own := make([]models.Allocation, 0)
		for _, a := range allocations {
			if a.UserID == user.ID {
				own = append(own, a)
			}
		}
		stats.Student = studentStats(own)
		stats.RecentActivity = recentAllocations(own, indexLabs(labs))
	}

	return stats, nil
}

func adminStats(labs []models.Lab, allocations []models.Allocation, users int) *AdminStats {
	completed := 0
	for _, a := range allocations {
		if a.Status == models.AllocationCompleted {
			completed++
		}
	}

	var rate float64
	if len(allocations) > 0 {
		rate = roundTo(float64(completed)*100/float64(len(allocations)), 1)
	}

	return &AdminStats{
		TotalLabs:        len(labs),
		TotalAllocations: len(allocations),
		TotalUsers:       users,
		CompletionRate:   rate,
	}
}

func creatorStats(creatorID string, labs []models.Lab, allocations []models.Allocation) *CreatorStats {
	stats := &CreatorStats{}
	mine := make(map[string]struct{})
	totalDuration := 0

	for _, lab := range labs {
		if lab.CreatorID != creatorID {
			continue
		}
		mine[lab.ID] = struct{}{}
		stats.MyLabs++
		if lab.IsActive {
			stats.ActiveLabs++
		}
		totalDuration += lab.Duration
	}
	for _, a := range allocations {
		if _, ok := mine[a.LabID]; ok {
			stats.Allocations++
		}
	}
	if stats.MyLabs > 0 {
		stats.AverageDuration = roundTo(float64(totalDuration)/float64(stats.MyLabs), 1)
	}
	return stats
}

func studentStats(allocations []models.Allocation) *StudentStats {
	stats := &StudentStats{}
	for _, a := range allocations {
		switch a.Status {
		case models.AllocationAssigned:
			stats.Assigned++
		case models.AllocationInProgress:
			stats.InProgress++
		case models.AllocationCompleted:
			stats.Completed++
		case models.AllocationOverdue:
			stats.Overdue++
		}
	}
	return stats
}

func recentAllocations(allocations []models.Allocation, labs map[string]*models.Lab) []ActivityItem {
	sorted := append([]models.Allocation(nil), allocations...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AllocatedAt.After(sorted[j].AllocatedAt)
	})
	if len(sorted) > recentActivityLimit {
		sorted = sorted[:recentActivityLimit]
	}

	items := make([]ActivityItem, 0, len(sorted))
	for _, a := range sorted {
		title := "Unknown Lab"
		if lab := labs[a.LabID]; lab != nil {
			title = lab.Title
		}
		items = append(items, ActivityItem{
			ID:          a.ID,
			Type:        "allocation",
			Title:       title,
			Description: "Status: " + string(a.Status),
			Timestamp:   a.AllocatedAt,
		})
	}
	return items
}

func recentLabs(labs []models.Lab) []ActivityItem {
	sorted := append([]models.Lab(nil), labs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > recentActivityLimit {
		sorted = sorted[:recentActivityLimit]
	}

	items := make([]ActivityItem, 0, len(sorted))
	for _, lab := range sorted {
		items = append(items, ActivityItem{
			ID:          lab.ID,
			Type:        "lab",
			Title:       lab.Title,
			Description: fmt.Sprintf("%s · %s", lab.Category, lab.Level),
			Timestamp:   lab.CreatedAt,
		})
	}
	return items
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
