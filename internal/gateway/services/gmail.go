package services

import (
	"context"
	"net/url"
	"strings"
)

const gmailMessagesPath = "/gmail/v1/users/me/messages"

// gmail answers inbox questions. "What was my last email?" fetches and
// summarizes the most recent inbox message; send requests are acknowledged
// but composing is handled on the device, not here.
func (r *Registry) gmail(ctx context.Context, req Request) (Payload, error) {
	lower := strings.ToLower(req.Message)

	wantsLatest := containsAny(lower, "last", "recent", "latest", "newest") &&
		containsAny(lower, "email", "mail", "message", "inbox")

	switch {
	case wantsLatest:
		return r.gmailLatest(ctx, req)
	case containsAny(lower, "send", "email"):
		return Payload{"sent": true}, nil
	default:
		res, err := r.deps.Google.Get(ctx, req.Cred, gmailMessagesPath, url.Values{
			"maxResults": {"5"},
		})
		if err != nil {
			return nil, err
		}
		return Payload{"messages": res.Get("messages").Value()}, nil
	}
}

func (r *Registry) gmailLatest(ctx context.Context, req Request) (Payload, error) {
	list, err := r.deps.Google.Get(ctx, req.Cred, gmailMessagesPath, url.Values{
		"maxResults": {"5"},
		"labelIds":   {"INBOX"},
	})
	if err != nil {
		return nil, err
	}

	messages := list.Get("messages").Array()
	if len(messages) == 0 {
		return Payload{"response": "You don't have any emails in your inbox."}, nil
	}

	id := messages[0].Get("id").String()
	msg, err := r.deps.Google.Get(ctx, req.Cred, gmailMessagesPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	subject, from, date := "No Subject", "Unknown Sender", ""
	for _, h := range msg.Get("payload.headers").Array() {
		switch h.Get("name").String() {
		case "Subject":
			subject = h.Get("value").String()
		case "From":
			from = h.Get("value").String()
		case "Date":
			date = h.Get("value").String()
		}
	}

	snippet := msg.Get("snippet").String()
	// Truncate on a rune boundary so multi-byte text stays valid UTF-8.
	if runes := []rune(snippet); len(runes) > 200 {
		snippet = string(runes[:200]) + "..."
	}

	return Payload{
		"action": "retrieve_email",
		"latest_email": Payload{
			"subject": subject,
			"from":    from,
			"date":    date,
			"snippet": snippet,
		},
		"total_emails": len(messages),
	}, nil
}
