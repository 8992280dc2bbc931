package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/extract"
)

// docs creates a named document or lists recent ones.
func (r *Registry) docs(ctx context.Context, req Request) (Payload, error) {
	lower := strings.ToLower(req.Message)

	if containsAny(lower, "create", "new") {
		title := extract.Title(req.Message, "New Document")

		res, err := r.deps.Google.Post(ctx, req.Cred, "/v1/documents", map[string]any{
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
			"action":           "create_document",
			"document_created": true,
			"document_id":      res.Get("documentId").String(),
			"document_title":   created,
			"response":         fmt.Sprintf("✅ Document '%s' has been created successfully! What content would you like to add to it?", created),
			"next_step":        `You can now add content by saying something like "Add a paragraph about..." or "Write an introduction..."`,
		}, nil
	}

	files, err := r.listDriveByMIME(ctx, req.Cred, "application/vnd.google-apps.document")
	if err != nil {
		return nil, err
	}
	return Payload{
		"action":    "list_documents",
		"documents": files,
		"response":  fmt.Sprintf("You have %d recent documents.", len(files)),
	}, nil
}

// listDriveByMIME lists the five most recent Drive files of the given type.
// Docs, Sheets, Slides, and Forms all list through Drive.
func (r *Registry) listDriveByMIME(ctx context.Context, cred Credential, mimeType string) ([]Payload, error) {
	res, err := r.deps.Google.Get(ctx, cred, "/drive/v3/files", url.Values{
		"pageSize": {"5"},
		"q":        {fmt.Sprintf("mimeType='%s'", mimeType)},
		"fields":   {"files(id, name, modifiedTime)"},
	})
	if err != nil {
		return nil, err
	}

	var files []Payload
	for _, f := range res.Get("files").Array() {
		files = append(files, Payload{
			"id":           f.Get("id").String(),
			"name":         f.Get("name").String(),
			"modifiedTime": f.Get("modifiedTime").String(),
		})
	}
	return files, nil
}
