package port

import (
	"context"
	"io"

	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
)

// RateCache stores rate table snapshots in front of the database.
// Entries live under a per-company generation; a reader takes the generation
// before it loads from the database and writes back under that generation.
type RateCache interface {
	// Generation returns the current cache generation of a company
	Generation(ctx context.Context, companyID int64) (int64, error)

	// Get returns the cached bands and whether the key was present
	Get(ctx context.Context, companyID, generation int64, kind entity.RequestKind, vehicleType entity.VehicleType) ([]entity.RateBand, bool, error)
	Set(ctx context.Context, companyID, generation int64, kind entity.RequestKind, vehicleType entity.VehicleType, bands []entity.RateBand) error

	// InvalidateCompany moves the company to a new generation and drops the old tables.
	// A write still carrying an older generation lands on a key nobody reads.
	InvalidateCompany(ctx context.Context, companyID int64) error
}

// RateWorkbook converts rate bands to and from spreadsheet workbooks
type RateWorkbook interface {
	// ReadBands parses trip and fuel bands, keeping row order as table order
	ReadBands(r io.Reader) (tripBands, fuelBands []entity.RateBand, err error)

	// WriteBands renders a configuration in the layout ReadBands accepts
	WriteBands(w io.Writer, cfg *entity.RateConfiguration) error
}
