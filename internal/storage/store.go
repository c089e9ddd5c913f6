package storage

import (
	"context"

	"pdcoea/internal/model"
)

// Store defines persistence operations for run and sweep records.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns at most limit runs, newest first. limit <= 0 lists all.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	SaveSweep(ctx context.Context, sweep model.SweepRecord) error
	GetSweep(ctx context.Context, id string) (model.SweepRecord, bool, error)
}
