package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/store"
)

func TestCourseService(t *testing.T) {
	ctx := context.Background()
	seed := store.DefaultSeed()
	env := newTestEnv(t, seed)

	courses, err := env.courses.List(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 3)

	created, err := env.courses.Create(ctx, &CreateCourseRequest{
		Name:     "Cloud Native Operations",
		Category: models.CategoryDevOps,
		Level:    models.LevelAdvanced,
		Duration: 30,
		Tags:     []string{"kubernetes", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"kubernetes"}, created.Tags)

	_, err = env.courses.Create(ctx, &CreateCourseRequest{Name: "No level", Category: models.CategoryDevOps, Duration: 1})
	assert.Error(t, err)

	// New courses are appended after the bundled catalog on restart.
	env.reopen(seed)
	courses, err = env.courses.List(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 4)
	assert.Equal(t, created.ID, courses[3].ID)

	got, err := env.courses.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
