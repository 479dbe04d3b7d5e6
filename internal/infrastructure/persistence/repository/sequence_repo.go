package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	"github.com/garyjia/fleet-reimbursement/internal/infrastructure/persistence/sqlite"
)

// SequenceRepository implements port.SequenceRepository on the sequences table
type SequenceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db *sql.DB, logger *zap.Logger) port.SequenceRepository {
	return &SequenceRepository{
		db:     db,
		logger: logger,
	}
}

// Next increments the counter of code and formats the value it held
func (r *SequenceRepository) Next(ctx context.Context, code string) (string, error) {
	query := `
		UPDATE sequences
		SET next_number = next_number + 1
		WHERE code = ?
		RETURNING prefix, padding, next_number - 1
	`

	var (
		prefix  string
		padding int
		number  int64
	)
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, code).Scan(&prefix, &padding, &number)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: sequence %q", entity.ErrNotFound, code)
	}
	if err != nil {
		r.logger.Error("Failed to advance sequence", zap.String("code", code), zap.Error(err))
		return "", fmt.Errorf("failed to advance sequence: %w", err)
	}

	return fmt.Sprintf("%s%0*d", prefix, padding, number), nil
}

// Verify interface compliance
var _ port.SequenceRepository = (*SequenceRepository)(nil)
