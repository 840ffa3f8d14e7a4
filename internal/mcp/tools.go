package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/calilog/internal/models"
)

const defaultRecordLimit = 20

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List all exercises with type (Dynamic counts reps, Isometric counts seconds), laterality and challenge defaults."),
)

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("List all workout programs."),
)

var toolGetProgram = mcp.NewTool("get_program",
	mcp.WithDescription("Get a program with its exercises in execution order, including sets, target value and rest interval per exercise."),
	mcp.WithNumber("program_id", mcp.Required(), mcp.Description("Program ID")),
)

var toolGetLatestSession = mcp.NewTool("get_latest_session",
	mcp.WithDescription("Get the sets of the most recently recorded session of an exercise. Unilateral exercises have right and left values."),
	mcp.WithNumber("exercise_id", mcp.Required(), mcp.Description("Exercise ID")),
)

var toolListIntervalPrograms = mcp.NewTool("list_interval_programs",
	mcp.WithDescription("List all interval circuit programs with work, rest, rounds and round rest durations."),
)

var toolListIntervalRecords = mcp.NewTool("list_interval_records",
	mcp.WithDescription("List recorded interval runs, newest first, with completed rounds and the exercises attempted."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of records. Defaults to 20.")),
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Get training log statistics: catalog sizes, total sets and sessions, date range and volume per exercise."),
)

// programDetail is a program with its exercise slots resolved.
type programDetail struct {
	Program   models.Program      `json:"program"`
	Exercises []programSlotDetail `json:"exercises"`
}

type programSlotDetail struct {
	models.ProgramExercise
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// --- Tool handlers ---

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.ds.ListExercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(exercises)
}

func (h *handlers) listPrograms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programs, err := h.ds.ListPrograms(ctx)
	if err != nil {
		h.log.Error("mcp list_programs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(programs)
}

func (h *handlers) getProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("program_id")
	if err != nil {
		return mcp.NewToolResultError("program_id parameter is required"), nil
	}

	p, err := h.ds.GetProgramByID(ctx, int64(id))
	if errors.Is(err, models.ErrNotFound) {
		return mcp.NewToolResultError("program not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_program", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	slots, err := h.ds.GetProgramExercisesSync(ctx, p.ID)
	if err != nil {
		h.log.Error("mcp get_program exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	exercises, err := h.ds.ListExercises(ctx)
	if err != nil {
		h.log.Error("mcp get_program catalog", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	byID := make(map[int64]models.Exercise, len(exercises))
	for _, ex := range exercises {
		byID[ex.ID] = ex
	}

	detail := programDetail{Program: p, Exercises: make([]programSlotDetail, 0, len(slots))}
	for _, s := range slots {
		ex, ok := byID[s.ExerciseID]
		if !ok {
			continue
		}
		detail.Exercises = append(detail.Exercises, programSlotDetail{ProgramExercise: s, Name: ex.Name, Unit: ex.Unit()})
	}
	return jsonResult(detail)
}

func (h *handlers) getLatestSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}

	records, err := h.ds.GetLatestSession(ctx, int64(id))
	if err != nil {
		h.log.Error("mcp get_latest_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if records == nil {
		records = []models.TrainingRecord{}
	}
	return jsonResult(records)
}

func (h *handlers) listIntervalPrograms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programs, err := h.ds.ListIntervalPrograms(ctx)
	if err != nil {
		h.log.Error("mcp list_interval_programs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(programs)
}

func (h *handlers) listIntervalRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultRecordLimit)
	if limit <= 0 {
		limit = defaultRecordLimit
	}
	records, err := h.ds.ListIntervalRecords(ctx, limit)
	if err != nil {
		h.log.Error("mcp list_interval_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(records)
}

func (h *handlers) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetDataStats(ctx)
	if err != nil {
		h.log.Error("mcp get_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
