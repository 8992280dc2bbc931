package services

import (
	"context"
	"net/url"
)

// tasks lists the user's tasks from their first task list.
func (r *Registry) tasks(ctx context.Context, req Request) (Payload, error) {
	lists, err := r.deps.Google.Get(ctx, req.Cred, "/tasks/v1/users/@me/lists", nil)
	if err != nil {
		return nil, err
	}

	items := lists.Get("items").Array()
	if len(items) == 0 {
		return Payload{"tasks": []Payload{}}, nil
	}

	listID := items[0].Get("id").String()
	res, err := r.deps.Google.Get(ctx, req.Cred, "/tasks/v1/lists/"+url.PathEscape(listID)+"/tasks", nil)
	if err != nil {
		return nil, err
	}

	return Payload{"tasks": res.Get("items").Value()}, nil
}
