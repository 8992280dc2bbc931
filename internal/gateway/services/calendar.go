package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/extract"
)

const calendarEventsPath = "/calendar/v3/calendars/primary/events"

var (
	urlPattern      = regexp.MustCompile(`https?://\S+`)
	meetLinkPattern = regexp.MustCompile(`meet\.google\.com/\S+`)
)

// calendar routes a calendar message to one of the sub-commands, defaulting
// to listing events over the time range detected in the message.
func (r *Registry) calendar(ctx context.Context, req Request) (Payload, error) {
	lower := strings.ToLower(req.Message)

	switch {
	case containsAny(lower, "invite", "attendees") && strings.Contains(lower, "meeting"):
		return r.calendarInvite(ctx, req)
	case containsAny(lower, "create event", "schedule", "add event", "new event"):
		return r.calendarCreate(ctx, req)
	case containsAny(lower, "delete", "cancel", "remove"):
		return r.calendarDelete(ctx, req)
	case containsAny(lower, "search", "find"):
		return r.calendarSearch(ctx, req)
	case containsAny(lower, "update", "modify", "change", "edit"):
		return Payload{
			"action": "update_events",
			"result": "Event update functionality available",
		}, nil
	default:
		return r.calendarList(ctx, req, extract.TimeRange(req.Message))
	}
}

// calendarList fetches up to 10 events in the detected time range. Event
// descriptions are scrubbed of URLs and Meet links so raw links are never
// spoken back at the user.
func (r *Registry) calendarList(ctx context.Context, req Request, timeRange string) (Payload, error) {
	timeMin, timeMax := extract.RangeBounds(timeRange, r.deps.Now().UTC())

	res, err := r.deps.Google.Get(ctx, req.Cred, calendarEventsPath, url.Values{
		"timeMin":      {timeMin.Format(time.RFC3339)},
		"timeMax":      {timeMax.Format(time.RFC3339)},
		"maxResults":   {"10"},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
	})
	if err != nil {
		return nil, err
	}

	var events []Payload
	for _, item := range res.Get("items").Array() {
		summary := item.Get("summary").String()
		if summary == "" {
			summary = "Untitled Event"
		}
		events = append(events, Payload{
			"id":          item.Get("id").String(),
			"summary":     summary,
			"start":       item.Get("start").Value(),
			"end":         item.Get("end").Value(),
			"location":    item.Get("location").String(),
			"description": scrubLinks(item.Get("description").String()),
		})
	}

	return Payload{
		"events":     events,
		"time_range": timeRange,
	}, nil
}

// calendarCreate inserts a one-hour event starting an hour from now.
func (r *Registry) calendarCreate(ctx context.Context, req Request) (Payload, error) {
	title := extract.Title(req.Message, "New Event")
	start := r.deps.Now().Add(time.Hour)
	end := start.Add(time.Hour)

	_, err := r.deps.Google.Post(ctx, req.Cred, calendarEventsPath, map[string]any{
		"summary": title,
		"start":   map[string]string{"dateTime": start.Format(time.RFC3339)},
		"end":     map[string]string{"dateTime": end.Format(time.RFC3339)},
	})
	if err != nil {
		return nil, err
	}

	return Payload{
		"action": "create_event",
		"result": "Event created successfully",
		"event_details": Payload{
			"title":      title,
			"start_time": start.Format("January 2, 2006 at 3:04 PM"),
		},
	}, nil
}

// calendarInvite creates a meeting and reports its details. Attendee
// resolution from contacts is not wired yet, so the invite goes out without
// guests.
func (r *Registry) calendarInvite(ctx context.Context, req Request) (Payload, error) {
	title := extract.Title(req.Message, "Meeting")
	start := r.deps.Now().Add(time.Hour)
	end := start.Add(time.Hour)

	_, err := r.deps.Google.Post(ctx, req.Cred, calendarEventsPath, map[string]any{
		"summary":     title,
		"description": "Scheduled via assistant",
		"start":       map[string]string{"dateTime": start.Format(time.RFC3339)},
		"end":         map[string]string{"dateTime": end.Format(time.RFC3339)},
		"attendees":   []any{},
	})
	if err != nil {
		return nil, err
	}

	return Payload{
		"action": "create_event",
		"result": "Meeting scheduled successfully",
		"event_details": Payload{
			"title":      title,
			"start_time": start.Format("January 2, 2006 at 3:04 PM"),
		},
	}, nil
}

// calendarDelete removes upcoming events matching the message text as a
// search query. Individual delete failures are counted, not fatal.
func (r *Registry) calendarDelete(ctx context.Context, req Request) (Payload, error) {
	res, err := r.deps.Google.Get(ctx, req.Cred, calendarEventsPath, url.Values{
		"timeMin":      {r.deps.Now().UTC().Format(time.RFC3339)},
		"maxResults":   {"10"},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
		"q":            {req.Message},
	})
	if err != nil {
		return nil, err
	}

	deleted := 0
	for _, item := range res.Get("items").Array() {
		id := item.Get("id").String()
		if err := r.deps.Google.Delete(ctx, req.Cred, calendarEventsPath+"/"+url.PathEscape(id)); err != nil {
			r.deps.Logger.Warn("failed to delete event", "event_id", id, "error", err)
			continue
		}
		deleted++
	}

	return Payload{
		"action":       "delete_events",
		"result":       fmt.Sprintf("Deleted %d event(s)", deleted),
		"search_query": req.Message,
	}, nil
}

// calendarSearch finds events matching the message text.
func (r *Registry) calendarSearch(ctx context.Context, req Request) (Payload, error) {
	res, err := r.deps.Google.Get(ctx, req.Cred, calendarEventsPath, url.Values{
		"q":            {req.Message},
		"maxResults":   {"10"},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
	})
	if err != nil {
		return nil, err
	}

	var events []Payload
	for _, item := range res.Get("items").Array() {
		summary := item.Get("summary").String()
		if summary == "" {
			summary = "Untitled Event"
		}
		events = append(events, Payload{
			"id":          item.Get("id").String(),
			"summary":     summary,
			"start":       item.Get("start").Value(),
			"end":         item.Get("end").Value(),
			"location":    item.Get("location").String(),
			"description": scrubLinks(item.Get("description").String()),
		})
	}

	return Payload{
		"action":       "search_events",
		"events":       events,
		"search_query": req.Message,
	}, nil
}

// scrubLinks strips URLs and Meet links from event descriptions and collapses
// the leftover whitespace.
func scrubLinks(description string) string {
	if description == "" {
		return ""
	}
	description = urlPattern.ReplaceAllString(description, "")
	description = meetLinkPattern.ReplaceAllString(description, "")
	return strings.Join(strings.Fields(description), " ")
}

// containsAny reports whether s contains any of the substrings.
func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
