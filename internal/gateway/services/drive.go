package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/extract"
)

// drive creates folders, acknowledges share requests, or lists recent files.
func (r *Registry) drive(ctx context.Context, req Request) (Payload, error) {
	lower := strings.ToLower(req.Message)

	switch {
	case strings.Contains(lower, "folder"):
		name := extract.Title(req.Message, "New Folder")

		res, err := r.deps.Google.Post(ctx, req.Cred, "/drive/v3/files", map[string]any{
			"name":     name,
			"mimeType": "application/vnd.google-apps.folder",
		})
		if err != nil {
			return nil, err
		}

		created := res.Get("name").String()
		if created == "" {
			created = name
		}
		return Payload{
			"folder_created": true,
			"folder_name":    created,
			"folder_id":      res.Get("id").String(),
		}, nil

	case strings.Contains(lower, "share"):
		return Payload{"shared": true}, nil

	case strings.Contains(lower, "create"):
		return Payload{"file_created": true}, nil

	default:
		res, err := r.deps.Google.Get(ctx, req.Cred, "/drive/v3/files", url.Values{
			"pageSize": {"10"},
			"fields":   {"nextPageToken, files(id, name)"},
		})
		if err != nil {
			return nil, err
		}

		var files []Payload
		for _, f := range res.Get("files").Array() {
			files = append(files, Payload{
				"id":   f.Get("id").String(),
				"name": f.Get("name").String(),
			})
		}
		return Payload{"files": files}, nil
	}
}
