package validator

import (
	"fmt"
	"time"

	"github.com/co-intel-labs/labs-1.0/internal/models"
)

// BusinessValidator handles lifecycle rules that struct tags cannot express
type BusinessValidator struct {
	allowedTransitions map[models.AllocationStatus][]models.AllocationStatus
}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{
		// Learner-driven transitions. Overdue is only ever set by the expiration sweep
		// and administrative edits go through a separate path.
		allowedTransitions: map[models.AllocationStatus][]models.AllocationStatus{
			models.AllocationAssigned:   {models.AllocationInProgress, models.AllocationCompleted},
			models.AllocationInProgress: {models.AllocationCompleted},
			models.AllocationCompleted:  {},
			models.AllocationOverdue:    {},
		},
	}
}

// ValidateStatusTransition validates a learner-driven allocation status change
func (bv *BusinessValidator) ValidateStatusTransition(current, next models.AllocationStatus) ValidationErrors {
	for _, allowed := range bv.allowedTransitions[current] {
		if next == allowed {
			return nil
		}
	}

	return ValidationErrors{{
		Field:   "status",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "status_transition",
	}}
}

// ValidateDueDate checks that an allocation carries a due date
func (bv *BusinessValidator) ValidateDueDate(dueDate time.Time) ValidationErrors {
	if dueDate.IsZero() {
		return ValidationErrors{{Field: "due_date", Message: "is required", Rule: "required"}}
	}
	return nil
}
