package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/extract"
)

// slides creates a named presentation or lists recent ones.
func (r *Registry) slides(ctx context.Context, req Request) (Payload, error) {
	lower := strings.ToLower(req.Message)

	if containsAny(lower, "create", "new") {
		title := extract.Title(req.Message, "New Presentation")

		res, err := r.deps.Google.Post(ctx, req.Cred, "/v1/presentations", map[string]any{
			"title": title,
		})
		if err != nil {
			return nil, err
		}

		created := res.Get("title").String()
		if created == "" {
			created = title
		}
		return Payload{
			"action":               "create_presentation",
			"presentation_created": true,
			"presentation_id":      res.Get("presentationId").String(),
			"presentation_title":   created,
			"response":             fmt.Sprintf("✅ Presentation '%s' has been created successfully!", created),
		}, nil
	}

	files, err := r.listDriveByMIME(ctx, req.Cred, "application/vnd.google-apps.presentation")
	if err != nil {
		return nil, err
	}
	return Payload{
		"action":        "list_presentations",
		"presentations": files,
		"response":      fmt.Sprintf("You have %d presentations.", len(files)),
	}, nil
}
