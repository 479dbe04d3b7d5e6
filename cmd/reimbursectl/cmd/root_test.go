package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	"github.com/garyjia/fleet-reimbursement/internal/infrastructure/spreadsheet"
)

func setupCLI(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()

	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("database:\n  path: %s\nredis:\n  enabled: false\n", filepath.Join(dir, "cli.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	workbook, err := os.Create(filepath.Join(dir, "rates.xlsx"))
	require.NoError(t, err)
	defer workbook.Close()

	err = spreadsheet.NewRateWorkbook(zap.NewNop()).WriteBands(workbook, &entity.RateConfiguration{
		CompanyID: 3,
		TripBands: []entity.RateBand{
			{VehicleType: entity.VehicleTypeCar, RangeDirection: entity.RangeUnder, ThresholdDistance: decimal.NewFromInt(100),
				PricingMode: entity.PricingFixed, FixedAmount: decimal.NewFromInt(50)},
			{VehicleType: entity.VehicleTypeCar, RangeDirection: entity.RangeOver, ThresholdDistance: decimal.NewFromInt(100),
				PricingMode: entity.PricingFixed, FixedAmount: decimal.NewFromInt(80)},
		},
		FuelBands: []entity.RateBand{
			{VehicleType: entity.VehicleTypeVan, RangeDirection: entity.RangeUnder, ThresholdDistance: decimal.NewFromInt(1000),
				PricingMode: entity.PricingFixed, FixedAmount: decimal.NewFromInt(3), DistancePerFuelUnit: decimal.NewFromInt(10)},
		},
	})
	require.NoError(t, err)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_ImportShowAndQuote(t *testing.T) {
	dir := setupCLI(t)
	configFlag := "--config=" + filepath.Join(dir, "config.yaml")

	out, err := execute(t, "migrate", configFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	out, err = execute(t, "rates", "import", configFlag, "--company=3", "--file="+filepath.Join(dir, "rates.xlsx"), "--name=Imported")
	require.NoError(t, err)
	var imported entity.RateConfiguration
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	assert.Equal(t, "Imported", imported.Name)
	assert.Len(t, imported.TripBands, 2)
	assert.Len(t, imported.FuelBands, 1)

	out, err = execute(t, "rates", "show", configFlag, "--company=3")
	require.NoError(t, err)
	assert.Contains(t, out, `"company_id": 3`)

	tests := []struct {
		name   string
		args   []string
		amount string
	}{
		{"trip under", []string{"quote", "trip", "--company=3", "--vehicle-type=car", "--distance=60", "--extra=10"}, "50"},
		{"trip over", []string{"quote", "trip", "--company=3", "--vehicle-type=car", "--distance=150", "--extra=0"}, "80"},
		{"fuel", []string{"quote", "fuel", "--company=3", "--vehicle-type=van", "--opening=1000", "--closing=1100"}, "30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append(tt.args, configFlag)...)
			require.NoError(t, err)

			var quote struct {
				Amount decimal.Decimal `json:"amount"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &quote))
			assert.Equal(t, tt.amount, quote.Amount.String())
		})
	}

	exported := filepath.Join(dir, "export.xlsx")
	_, err = execute(t, "rates", "export", configFlag, "--company=3", "--out="+exported)
	require.NoError(t, err)
	info, err := os.Stat(exported)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestCLI_Errors(t *testing.T) {
	dir := setupCLI(t)
	configFlag := "--config=" + filepath.Join(dir, "config.yaml")

	_, err := execute(t, "rates", "show", configFlag, "--company=99")
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = execute(t, "quote", "trip", configFlag, "--company=3", "--vehicle-type=car", "--distance=abc")
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = execute(t, "rates", "import", configFlag, "--company=3", "--file="+filepath.Join(dir, "missing.xlsx"))
	assert.Error(t, err)
}
