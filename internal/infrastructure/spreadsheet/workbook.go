package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
)

// Sheet names of a rate workbook
const (
	TripSheet = "Trip Rates"
	FuelSheet = "Fuel Rates"
)

var header = []string{
	"Vehicle Type", "Direction", "Threshold", "Pricing Mode",
	"Fixed Amount", "Percentage", "Distance Per Fuel Unit", "Comment",
}

const (
	colVehicleType = iota
	colDirection
	colThreshold
	colPricingMode
	colFixedAmount
	colPercentage
	colDistancePerUnit
	colComment
)

// RateWorkbook reads and writes rate tables as xlsx files.
// Each sheet holds one band per row below a header; row order is table order.
type RateWorkbook struct {
	logger *zap.Logger
}

// NewRateWorkbook creates a new workbook codec
func NewRateWorkbook(logger *zap.Logger) port.RateWorkbook {
	return &RateWorkbook{logger: logger}
}

// ReadBands implements port.RateWorkbook. A missing sheet yields no bands of that kind.
func (w *RateWorkbook) ReadBands(r io.Reader) ([]entity.RateBand, []entity.RateBand, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	tripBands, err := w.readSheet(f, TripSheet, entity.RequestKindTrip)
	if err != nil {
		return nil, nil, err
	}
	fuelBands, err := w.readSheet(f, FuelSheet, entity.RequestKindFuel)
	if err != nil {
		return nil, nil, err
	}

	if len(tripBands) == 0 && len(fuelBands) == 0 {
		return nil, nil, entity.NewValidationError("workbook", "no rate bands found in %q or %q", TripSheet, FuelSheet)
	}

	w.logger.Info("Rate workbook parsed",
		zap.Int("trip_bands", len(tripBands)),
		zap.Int("fuel_bands", len(fuelBands)))
	return tripBands, fuelBands, nil
}

func (w *RateWorkbook) readSheet(f *excelize.File, sheet string, kind entity.RequestKind) ([]entity.RateBand, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var bands []entity.RateBand
	for i, row := range rows {
		if i == 0 || isBlank(row) {
			continue
		}

		band, err := parseRow(row, kind)
		if err != nil {
			// Spreadsheet rows are 1-based
			return nil, entity.NewValidationError(fmt.Sprintf("%s row %d", sheet, i+1), "%v", err)
		}
		band.Sequence = len(bands) + 1
		bands = append(bands, band)
	}
	return bands, nil
}

func parseRow(row []string, kind entity.RequestKind) (entity.RateBand, error) {
	band := entity.RateBand{
		Kind:           kind,
		VehicleType:    entity.VehicleType(strings.ToLower(cell(row, colVehicleType))),
		RangeDirection: entity.RangeDirection(strings.ToLower(cell(row, colDirection))),
		PricingMode:    entity.PricingMode(strings.ToLower(cell(row, colPricingMode))),
		Comment:        cell(row, colComment),
	}

	var err error
	if band.ThresholdDistance, err = decimalCell(row, colThreshold); err != nil {
		return band, err
	}
	if band.FixedAmount, err = decimalCell(row, colFixedAmount); err != nil {
		return band, err
	}
	if band.PercentageRate, err = decimalCell(row, colPercentage); err != nil {
		return band, err
	}
	if band.DistancePerFuelUnit, err = decimalCell(row, colDistancePerUnit); err != nil {
		return band, err
	}
	return band, nil
}

// WriteBands implements port.RateWorkbook
func (w *RateWorkbook) WriteBands(out io.Writer, cfg *entity.RateConfiguration) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TripSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(FuelSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeSheet(f, TripSheet, cfg.TripBands); err != nil {
		return err
	}
	if err := writeSheet(f, FuelSheet, cfg.FuelBands); err != nil {
		return err
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Info("Rate workbook written",
		zap.Int64("company_id", cfg.CompanyID),
		zap.Int("trip_bands", len(cfg.TripBands)),
		zap.Int("fuel_bands", len(cfg.FuelBands)))
	return nil
}

func writeSheet(f *excelize.File, sheet string, bands []entity.RateBand) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", sheet, err)
	}

	for i, b := range bands {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			string(b.VehicleType),
			string(b.RangeDirection),
			b.ThresholdDistance.String(),
			string(b.PricingMode),
			b.FixedAmount.String(),
			b.PercentageRate.String(),
			b.DistancePerFuelUnit.String(),
			b.Comment,
		}
		if err := f.SetSheetRow(sheet, cellRef, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", i+2, sheet, err)
		}
	}
	return nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// decimalCell parses a numeric cell; empty cells are zero
func decimalCell(row []string, idx int) (decimal.Decimal, error) {
	raw := cell(row, idx)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("column %q: %q is not a number", header[idx], raw)
	}
	return d, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Verify interface compliance
var _ port.RateWorkbook = (*RateWorkbook)(nil)
