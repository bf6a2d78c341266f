package render

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

var generated = time.Date(2026, time.October, 1, 6, 0, 0, 0, time.UTC)

func monthlyPayload() models.MonthlyPayload {
	return models.MonthlyPayload{
		Username: "alice",
		Subscriptions: []models.LineItem{
			{Name: "Netflix", Price: 17.99},
			{Name: "Amazon Prime", Price: 10.00},
		},
		CancelledTotal: 54.99,
		Period:         "September 2026",
		GeneratedAt:    generated,
		GrandTotal:     82.98,
		Budget:         100.00,
		Note:           "Within budget.",
	}
}

func yearlyPayload() models.YearlyPayload {
	return models.YearlyPayload{
		Username: "alice",
		Year:     2025,
		MonthlyReports: []models.MonthTotal{
			{Month: time.January, TotalAmount: 20.00},
			{Month: time.February, TotalAmount: 22.50},
		},
		YearlyBudgetAmount: 1200.00,
		GrandTotal:         42.50,
		Note:               "Missing months: March, April.",
		Incomplete:         true,
		GeneratedAt:        generated,
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format      string
		wantExt     string
		wantErr     bool
		contentType string
	}{
		{format: "pdf", wantExt: "pdf", contentType: "application/pdf"},
		{format: "XLSX", wantExt: "xlsx", contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{format: "docx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := New(tt.format, "$")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, r.Extension())
			assert.Equal(t, tt.contentType, r.ContentType())
		})
	}
}

func TestFilename(t *testing.T) {
	r := NewPDF("$")
	assert.Equal(t, "alice_monthly_2026_09.pdf", Filename(r, "alice", models.ReportMonthly, 2026, time.September))
	assert.Equal(t, "alice_yearly_2025.pdf", Filename(r, "alice", models.ReportYearly, 2025, 0))
}

func TestPDF_Render(t *testing.T) {
	r := NewPDF("€")

	monthly, err := r.RenderMonthly(context.Background(), monthlyPayload())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(monthly, []byte("%PDF-")))

	yearly, err := r.RenderYearly(context.Background(), yearlyPayload())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(yearly, []byte("%PDF-")))
}

func TestPDF_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDF("$").RenderMonthly(ctx, monthlyPayload())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestXLSX_RenderMonthly(t *testing.T) {
	data, err := NewXLSX("$").RenderMonthly(context.Background(), monthlyPayload())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"Subscription report", "September 2026"}, rows[0])
	assert.Equal(t, []string{"User", "alice"}, rows[1])
	assert.Equal(t, []string{"Netflix", "17.99"}, rows[5])
	assert.Equal(t, []string{"Amazon Prime", "10"}, rows[6])
	assert.Equal(t, []string{"Cancelled subscriptions", "54.99"}, rows[7])
	assert.Equal(t, []string{"Grand total", "82.98"}, rows[8])
	assert.Equal(t, []string{"Monthly budget", "100"}, rows[9])
	assert.Equal(t, []string{"Note", "Within budget."}, rows[11])
}

func TestXLSX_RenderYearly(t *testing.T) {
	data, err := NewXLSX("$").RenderYearly(context.Background(), yearlyPayload())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	total, err := f.GetCellValue(sheetName, "B8", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "42.5", total)

	month, err := f.GetCellValue(sheetName, "A6")
	require.NoError(t, err)
	assert.Equal(t, "January", month)
}

func TestMonthlySummary(t *testing.T) {
	out := MonthlySummary("$", monthlyPayload())

	assert.Contains(t, out, "Subscriptions for September 2026")
	assert.Contains(t, out, "Netflix")
	assert.Contains(t, out, "$17.99")
	assert.Contains(t, out, "Cancelled subscriptions")
	assert.Contains(t, out, "$82.98")
	assert.Contains(t, out, "Within budget.")
}

func TestYearlySummary(t *testing.T) {
	out := YearlySummary("$", yearlyPayload())

	assert.Contains(t, out, "Subscriptions in 2025")
	assert.Contains(t, out, "February")
	assert.Contains(t, out, "$22.50")
	assert.Contains(t, out, "$1200.00")
	assert.Contains(t, out, "Missing months: March, April.")
}
