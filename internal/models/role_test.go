package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRole_Can(t *testing.T) {
	tests := []struct {
		name       string
		role       UserRole
		capability Capability
		want       bool
	}{
		{"admin manages users", RoleAdmin, CapManageUsers, true},
		{"admin cannot create labs", RoleAdmin, CapCreateLab, false},
		{"admin edits any lab", RoleAdmin, CapEditAnyLab, true},
		{"creator edits only own labs", RoleCreator, CapEditAnyLab, false},
		{"creator creates labs", RoleCreator, CapCreateLab, true},
		{"creator cannot manage allocations", RoleCreator, CapManageAllocations, false},
		{"student takes labs", RoleStudent, CapTakeLab, true},
		{"student cannot view all allocations", RoleStudent, CapViewAllAllocations, false},
		{"unknown role has nothing", UserRole("guest"), CapViewCatalog, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Can(tt.capability))
		})
	}
}

func TestAvailableViews(t *testing.T) {
	assert.Equal(t, []View{ViewDashboard, ViewCatalog, ViewAllocations, ViewUsers}, AvailableViews(RoleAdmin))
	assert.Equal(t, []View{ViewDashboard, ViewCatalog, ViewCreateLab}, AvailableViews(RoleCreator))
	assert.Equal(t, []View{ViewDashboard, ViewCatalog}, AvailableViews(RoleStudent))
	assert.Empty(t, AvailableViews(UserRole("guest")))
}

func TestLab_ExpirationWindowHours(t *testing.T) {
	zero, twelve := 0, 12
	var nilLab *Lab
	assert.Equal(t, DefaultExpirationHours, nilLab.ExpirationWindowHours())
	assert.Equal(t, DefaultExpirationHours, (&Lab{}).ExpirationWindowHours())
	assert.Equal(t, DefaultExpirationHours, (&Lab{ExpirationHours: &zero}).ExpirationWindowHours())
	assert.Equal(t, 12, (&Lab{ExpirationHours: &twelve}).ExpirationWindowHours())
}

func TestLab_NormalizeTypeFields(t *testing.T) {
	effort := "10 hours"
	lab := Lab{
		Type:                LabTypeCertification,
		ProjectDeliverables: []string{"report"},
		EstimatedEffort:     &effort,
	}
	lab.NormalizeTypeFields()

	if assert.NotNil(t, lab.CertificationCriteria) {
		assert.Equal(t, 80, lab.CertificationCriteria.PassingScore)
		assert.Equal(t, 3, lab.CertificationCriteria.MaxAttempts)
		assert.Equal(t, 120, *lab.CertificationCriteria.TimeLimit)
	}
	assert.Nil(t, lab.ProjectDeliverables)
	assert.Nil(t, lab.EstimatedEffort)

	lab.Type = LabTypeCourse
	lab.NormalizeTypeFields()
	assert.Nil(t, lab.CertificationCriteria)
}

func TestLab_CloneIsDetached(t *testing.T) {
	hours := 10
	lab := Lab{ID: "1", Tags: []string{"a"}, ExpirationHours: &hours}
	clone := lab.Clone()
	clone.Tags[0] = "b"
	*clone.ExpirationHours = 20

	assert.Equal(t, "a", lab.Tags[0])
	assert.Equal(t, 10, *lab.ExpirationHours)
}
