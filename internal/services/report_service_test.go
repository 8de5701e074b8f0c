package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/store"
)

func TestReportService_ExportAllocations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, store.DefaultSeed())

	data, err := env.reports.ExportAllocations(ctx, AllocationFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(allocationSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Allocation ID", rows[0][0])
	assert.Equal(t, "Score", rows[0][9])

	first := rows[1]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "Introduction to Neural Networks", first[1])
	assert.Equal(t, "Mike Student", first[2])
	// Exports read through the sweeping path.
	assert.Equal(t, string(models.AllocationOverdue), first[4])

	last := rows[4]
	assert.Equal(t, "4", last[0])
	assert.Equal(t, "2024-01-20T15:30:00Z", last[8])
	assert.Equal(t, "95", last[9])
}

func TestReportService_ExportFiltered(t *testing.T) {
	env := newTestEnv(t, store.DefaultSeed())

	data, err := env.reports.ExportAllocations(context.Background(), AllocationFilter{UserID: "4"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(allocationSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
