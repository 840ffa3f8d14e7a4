package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) catalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exercises, err := h.ds.ListExercises(ctx)
	if err != nil {
		return nil, err
	}

	programs, err := h.ds.ListPrograms(ctx)
	if err != nil {
		h.log.Warn("catalog: program query failed", "error", err)
	}

	circuits, err := h.ds.ListIntervalPrograms(ctx)
	if err != nil {
		h.log.Warn("catalog: interval program query failed", "error", err)
	}

	return textResource(req.Params.URI, map[string]any{
		"exercises":         exercises,
		"programs":          programs,
		"interval_programs": circuits,
	})
}

func (h *handlers) recentIntervals(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	records, err := h.ds.ListIntervalRecords(ctx, 10)
	if err != nil {
		return nil, err
	}
	return textResource(req.Params.URI, records)
}

func textResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
