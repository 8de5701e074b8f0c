package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/store"
	"github.com/co-intel-labs/labs-1.0/internal/validator"
)

func labRequest(labType models.LabType) *CreateLabRequest {
	return &CreateLabRequest{
		Title:               "Terraform on AWS",
		Description:         "Provision infrastructure as code",
		Category:            models.CategoryDevOps,
		Level:               models.LevelIntermediate,
		Type:                labType,
		Duration:            90,
		Resources:           []string{"https://developer.hashicorp.com/terraform", ""},
		Tags:                []string{"terraform", " ", "aws"},
		ProjectDeliverables: []string{"main.tf"},
		EstimatedEffort:     strPtr("6 hours"),
	}
}

func TestLabService_CreateAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, store.DefaultSeed())

	lab, err := env.labs.Create(ctx, labRequest(models.LabTypeCertification), "2")
	require.NoError(t, err)

	assert.NotEmpty(t, lab.ID)
	assert.Equal(t, "2", lab.CreatorID)
	assert.True(t, lab.IsActive)
	assert.Equal(t, testNow, lab.CreatedAt)
	require.NotNil(t, lab.ExpirationHours)
	assert.Equal(t, models.DefaultExpirationHours, *lab.ExpirationHours)
	assert.Equal(t, []string{"terraform", "aws"}, lab.Tags)
	assert.Equal(t, []string{"https://developer.hashicorp.com/terraform"}, lab.Resources)

	require.NotNil(t, lab.CertificationCriteria)
	assert.Equal(t, 80, lab.CertificationCriteria.PassingScore)
	assert.Equal(t, 3, lab.CertificationCriteria.MaxAttempts)
	require.NotNil(t, lab.CertificationCriteria.TimeLimit)
	assert.Equal(t, 120, *lab.CertificationCriteria.TimeLimit)

	// Project-only fields never appear on a certification lab.
	assert.Nil(t, lab.ProjectDeliverables)
	assert.Nil(t, lab.EstimatedEffort)
}

func TestLabService_CreateKeepsTypeFields(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, store.DefaultSeed())

	req := labRequest(models.LabTypeProject)
	req.ExpirationHours = intPtr(72)
	req.CertificationCriteria = &CertificationCriteriaRequest{PassingScore: 70, MaxAttempts: 2}

	lab, err := env.labs.Create(ctx, req, "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"main.tf"}, lab.ProjectDeliverables)
	assert.Equal(t, "6 hours", *lab.EstimatedEffort)
	assert.Nil(t, lab.CertificationCriteria)
	assert.Equal(t, 72, *lab.ExpirationHours)

	req = labRequest(models.LabTypeCertification)
	req.CertificationCriteria = &CertificationCriteriaRequest{PassingScore: 70, MaxAttempts: 2}
	lab, err = env.labs.Create(ctx, req, "2")
	require.NoError(t, err)
	assert.Equal(t, 70, lab.CertificationCriteria.PassingScore)
	assert.Nil(t, lab.CertificationCriteria.TimeLimit)
}

func TestLabService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, store.DefaultSeed())

	tests := []struct {
		name   string
		mutate func(r *CreateLabRequest)
		field  string
	}{
		{name: "missing title", mutate: func(r *CreateLabRequest) { r.Title = "" }, field: "title"},
		{name: "unknown category", mutate: func(r *CreateLabRequest) { r.Category = "Cooking" }, field: "category"},
		{name: "expiration too long", mutate: func(r *CreateLabRequest) { r.ExpirationHours = intPtr(200) }, field: "expiration_hours"},
		{name: "expiration zero", mutate: func(r *CreateLabRequest) { r.ExpirationHours = intPtr(0) }, field: "expiration_hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := labRequest(models.LabTypeCourse)
			tt.mutate(req)

			_, err := env.labs.Create(ctx, req, "2")
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}

	req := labRequest(models.LabTypeCourse)
	req.CourseID = strPtr("99")
	_, err := env.labs.Create(ctx, req, "2")
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestLabService_Update(t *testing.T) {
	ctx := context.Background()
	seed := store.DefaultSeed()
	env := newTestEnv(t, seed)

	projectType := models.LabTypeProject
	updated, err := env.labs.Update(ctx, "3", &UpdateLabRequest{Type: &projectType, Title: strPtr("Python Capstone")})
	require.NoError(t, err)
	assert.Equal(t, "Python Capstone", updated.Title)
	assert.Nil(t, updated.CertificationCriteria)
	assert.NotNil(t, updated.UpdatedAt)

	missing, err := env.labs.Update(ctx, "missing", &UpdateLabRequest{Title: strPtr("x")})
	assert.NoError(t, err)
	assert.Nil(t, missing)

	// An edited bundled lab wins over the bundled copy after a restart.
	env.reopen(seed)
	lab, err := env.labs.Get(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Python Capstone", lab.Title)
}

func TestLabService_ListAndSetActive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, store.DefaultSeed())

	_, err := env.labs.SetActive(ctx, "5", false)
	require.NoError(t, err)

	ids := func(labs []models.Lab) []string {
		out := make([]string, 0, len(labs))
		for _, l := range labs {
			out = append(out, l.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter LabFilter
		want   []string
	}{
		{name: "all", filter: LabFilter{}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "active only", filter: LabFilter{ActiveOnly: true}, want: []string{"1", "2", "3", "4"}},
		{name: "by type", filter: LabFilter{Type: models.LabTypeCertification}, want: []string{"3"}},
		{name: "search tag", filter: LabFilter{Search: "Docker"}, want: []string{"5"}},
		{name: "search title", filter: LabFilter{Search: "flask"}, want: []string{"4"}},
		{name: "unknown creator", filter: LabFilter{CreatorID: "nobody"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.labs.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	mine, err := env.labs.ListByCreator(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, mine, 5)
}
