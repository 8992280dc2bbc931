package services

import "context"

// keep is a placeholder: the Keep API has no general-availability surface, so
// note requests get a canned sample until one exists.
func (r *Registry) keep(ctx context.Context, req Request) (Payload, error) {
	return Payload{
		"notes": []Payload{
			{"title": "Sample Note", "content": "This is a sample note"},
		},
	}, nil
}
