package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/salesai/api-server-go/internal/model"
)

func TestExportService_UsageWorkbook(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	t.Run("renders one row per usage record plus a total", func(t *testing.T) {
		usageRepo := new(mockUsageRepo)
		svc := NewExportService(usageRepo)

		usageRepo.On("ListByPeriod", ctx, from, to).Return([]model.UsageRecord{
			{ID: "u-1", ProfileID: "profile-1", SessionID: "session-1", MinutesUsed: 5, PeriodStart: from, PeriodEnd: to, CreatedAt: from},
			{ID: "u-2", ProfileID: "profile-2", SessionID: "session-2", MinutesUsed: 7, PeriodStart: from, PeriodEnd: to, CreatedAt: from},
		}, nil)

		data, filename, err := svc.UsageWorkbook(ctx, from, to)
		require.NoError(t, err)
		assert.Equal(t, "usage_20250601_20250701.xlsx", filename)

		f, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer func() { _ = f.Close() }()

		sheet := f.GetSheetName(f.GetActiveSheetIndex())
		rows, err := f.GetRows(sheet)
		require.NoError(t, err)

		// header + 2 records + blank spacer + total
		require.Len(t, rows, 5)
		assert.Equal(t, "usage_id", rows[0][0])
		assert.Equal(t, "u-1", rows[1][0])
		assert.Equal(t, "5", rows[1][4])
		assert.Equal(t, "u-2", rows[2][0])
		assert.Equal(t, "total", rows[4][0])
		assert.Equal(t, "12", rows[4][4])
	})

	t.Run("produces an empty ledger without records", func(t *testing.T) {
		usageRepo := new(mockUsageRepo)
		svc := NewExportService(usageRepo)

		usageRepo.On("ListByPeriod", ctx, from, to).Return([]model.UsageRecord{}, nil)

		data, _, err := svc.UsageWorkbook(ctx, from, to)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})
}
