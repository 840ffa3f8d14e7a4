package mcp

import (
	"context"

	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/storage"
	"github.com/claude/calilog/internal/storage/sqlite"
)

// DataSource abstracts the data layer for MCP tools. Both repositories
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	ListPrograms(ctx context.Context) ([]models.Program, error)
	GetProgramByID(ctx context.Context, id int64) (models.Program, error)
	GetProgramExercisesSync(ctx context.Context, programID int64) ([]models.ProgramExercise, error)
	GetLatestSession(ctx context.Context, exerciseID int64) ([]models.TrainingRecord, error)
	ListIntervalPrograms(ctx context.Context) ([]models.IntervalProgram, error)
	ListIntervalRecords(ctx context.Context, limit int) ([]models.IntervalRecord, error)
	GetDataStats(ctx context.Context) (*models.DataStats, error)
}

// Compile-time checks.
var (
	_ DataSource = (*storage.DB)(nil)
	_ DataSource = (*sqlite.Store)(nil)
	_ DataSource = (*HTTPClient)(nil)
)
