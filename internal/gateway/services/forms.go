package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/extract"
)

// forms creates or lists Google Forms. Creation goes through the Drive API —
// a form is a Drive file with the forms MIME type.
func (r *Registry) forms(ctx context.Context, req Request) (Payload, error) {
	lower := strings.ToLower(req.Message)

	if containsAny(lower, "create", "new") {
		title := extract.Title(req.Message, "New Form")

		res, err := r.deps.Google.Post(ctx, req.Cred, "/drive/v3/files", map[string]any{
			"name":     title,
			"mimeType": "application/vnd.google-apps.form",
		})
		if err != nil {
			return nil, err
		}

		created := res.Get("name").String()
		if created == "" {
			created = title
		}
		return Payload{
			"action":       "create_form",
			"form_created": true,
			"form_id":      res.Get("id").String(),
			"form_title":   created,
			"response":     fmt.Sprintf("✅ Form '%s' has been created successfully! You can now add questions to it.", created),
			"next_step":    "You can open the form in Google Forms to add questions and customize it.",
		}, nil
	}

	files, err := r.listDriveByMIME(ctx, req.Cred, "application/vnd.google-apps.form")
	if err != nil {
		return nil, err
	}
	return Payload{
		"action":   "list_forms",
		"forms":    files,
		"response": fmt.Sprintf("You have %d forms.", len(files)),
	}, nil
}
