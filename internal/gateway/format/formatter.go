// Package format renders structured service payloads into the plain text the
// user reads. Formatting is pure: same payload in, same text out, no I/O.
package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/services"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// Text normalizes a reply before it leaves the gateway: trimmed, with runs of
// blank lines collapsed.
func Text(s string) string {
	s = strings.TrimSpace(s)
	return blankLines.ReplaceAllString(s, "\n\n")
}

// Service renders one service payload to display text. Payloads that carry a
// prebuilt "response" string use it as-is; the rest get per-service rendering.
func Service(service string, payload services.Payload) string {
	if payload == nil {
		return "Done."
	}
	if response, ok := payload["response"].(string); ok && response != "" {
		return Text(response)
	}

	switch service {
	case "calendar":
		return Text(calendarText(payload))
	case "gmail":
		return Text(gmailText(payload))
	case "drive":
		return Text(driveText(payload))
	case "contacts":
		return Text(contactsText(payload))
	case "tasks":
		return Text(tasksText(payload))
	case "keep":
		return Text(keepText(payload))
	case "sheets":
		if payload["updated_cells"] != nil {
			return "Spreadsheet updated."
		}
	}

	if result, ok := payload["result"].(string); ok && result != "" {
		return Text(result)
	}
	return "Done."
}

func calendarText(payload services.Payload) string {
	if result, ok := payload["result"].(string); ok && result != "" {
		return result
	}

	events, ok := payload["events"].([]services.Payload)
	if !ok {
		return "Done."
	}

	timeRange, _ := payload["time_range"].(string)
	if timeRange == "" {
		timeRange = "upcoming"
	}

	if len(events) == 0 {
		return fmt.Sprintf("You have no events %s.", rangePhrase(timeRange))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You have %d event(s) %s:\n", len(events), rangePhrase(timeRange))
	for _, event := range events {
		summary, _ := event["summary"].(string)
		fmt.Fprintf(&sb, "• %s", summary)
		if when := eventStart(event); when != "" {
			fmt.Fprintf(&sb, " — %s", when)
		}
		if location, _ := event["location"].(string); location != "" {
			fmt.Fprintf(&sb, " (%s)", location)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// rangePhrase turns a range token into the wording used in replies:
// "today" reads naturally as-is, weekday and month names get "on"/"in".
func rangePhrase(timeRange string) string {
	switch timeRange {
	case "today", "tomorrow", "this week", "next week":
		return timeRange
	case "upcoming":
		return "coming up"
	}
	if len(timeRange) > 0 && timeRange[0] >= 'A' && timeRange[0] <= 'Z' {
		switch timeRange {
		case "January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December":
			return "in " + timeRange
		default:
			return "on " + timeRange
		}
	}
	return timeRange
}

// eventStart renders a calendar event's start as human-readable text. Events
// carry either a dateTime (timed) or a date (all-day).
func eventStart(event services.Payload) string {
	start, ok := event["start"].(map[string]any)
	if !ok {
		return ""
	}
	if dt, ok := start["dateTime"].(string); ok && dt != "" {
		if t, err := time.Parse(time.RFC3339, dt); err == nil {
			return t.Format("Mon Jan 2 at 3:04 PM")
		}
		return dt
	}
	if d, ok := start["date"].(string); ok && d != "" {
		return d + " (all day)"
	}
	return ""
}

func gmailText(payload services.Payload) string {
	if latest, ok := payload["latest_email"].(services.Payload); ok {
		subject, _ := latest["subject"].(string)
		from, _ := latest["from"].(string)
		snippet, _ := latest["snippet"].(string)
		text := fmt.Sprintf("Your latest email is from %s: \"%s\"", from, subject)
		if snippet != "" {
			text += "\n" + snippet
		}
		return text
	}
	if sent, ok := payload["sent"].(bool); ok && sent {
		return "Email sent."
	}
	if messages, ok := payload["messages"].([]any); ok {
		return fmt.Sprintf("You have %d recent emails.", len(messages))
	}
	return "Done."
}

func driveText(payload services.Payload) string {
	switch {
	case payload["folder_created"] == true:
		name, _ := payload["folder_name"].(string)
		return fmt.Sprintf("Folder '%s' created in Drive.", name)
	case payload["file_created"] == true:
		return "File created in Drive."
	case payload["shared"] == true:
		return "File shared."
	}

	files, ok := payload["files"].([]services.Payload)
	if !ok {
		return "Done."
	}
	if len(files) == 0 {
		return "Your Drive has no files."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "You have %d file(s) in Drive:\n", len(files))
	for _, f := range files {
		name, _ := f["name"].(string)
		fmt.Fprintf(&sb, "• %s\n", name)
	}
	return sb.String()
}

func contactsText(payload services.Payload) string {
	contacts, ok := payload["contacts"].([]services.Payload)
	if !ok || len(contacts) == 0 {
		return "No matching contacts found."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d contact(s):\n", len(contacts))
	for _, c := range contacts {
		name, _ := c["name"].(string)
		fmt.Fprintf(&sb, "• %s", name)
		if phones, ok := c["phones"].([]string); ok && len(phones) > 0 {
			fmt.Fprintf(&sb, " — %s", phones[0])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func tasksText(payload services.Payload) string {
	tasks, ok := payload["tasks"].([]any)
	if !ok || len(tasks) == 0 {
		return "You have no tasks."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "You have %d task(s):\n", len(tasks))
	for _, t := range tasks {
		if m, ok := t.(map[string]any); ok {
			if title, ok := m["title"].(string); ok && title != "" {
				fmt.Fprintf(&sb, "• %s\n", title)
			}
		}
	}
	return sb.String()
}

func keepText(payload services.Payload) string {
	notes, ok := payload["notes"].([]services.Payload)
	if !ok || len(notes) == 0 {
		return "You have no notes."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "You have %d note(s):\n", len(notes))
	for _, n := range notes {
		title, _ := n["title"].(string)
		fmt.Fprintf(&sb, "• %s\n", title)
	}
	return sb.String()
}
