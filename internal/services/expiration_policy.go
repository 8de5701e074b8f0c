package services

import (
	"time"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/utils"
)

// ExpirationPolicy decides when an allocation has outlived its lab's window.
type ExpirationPolicy struct {
	clock utils.Clock
}

func NewExpirationPolicy(clock utils.Clock) *ExpirationPolicy {
	if clock == nil {
		clock = utils.SystemClock()
	}
	return &ExpirationPolicy{clock: clock}
}

// Window returns the expiration window of lab. A nil lab gets the default.
func (p *ExpirationPolicy) Window(lab *models.Lab) time.Duration {
	return time.Duration(lab.ExpirationWindowHours()) * time.Hour
}

// ExpiresAt returns the instant after which the allocation counts as expired.
func (p *ExpirationPolicy) ExpiresAt(allocation models.Allocation, lab *models.Lab) time.Time {
	return allocation.AllocatedAt.Add(p.Window(lab))
}

// IsExpired reports whether strictly more than the window has elapsed since allocation.
// It ignores status; callers skip terminal allocations.
func (p *ExpirationPolicy) IsExpired(allocation models.Allocation, lab *models.Lab) bool {
	return IsExpiredAt(allocation, lab, p.clock.Now())
}

func IsExpiredAt(allocation models.Allocation, lab *models.Lab, now time.Time) bool {
	elapsed := now.Sub(allocation.AllocatedAt)
	return elapsed > time.Duration(lab.ExpirationWindowHours())*time.Hour
}
