package format_test

import (
	"strings"
	"testing"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/format"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/services"
)

func TestService_PrebuiltResponseWins(t *testing.T) {
	payload := services.Payload{
		"response": "✅ Document 'Budget Plan' has been created successfully!",
		"action":   "create_document",
	}
	got := format.Service("docs", payload)
	if !strings.Contains(got, "Budget Plan") {
		t.Errorf("got %q", got)
	}
}

func TestService_CalendarEvents(t *testing.T) {
	payload := services.Payload{
		"time_range": "today",
		"events": []services.Payload{
			{
				"summary":  "Standup",
				"start":    map[string]any{"dateTime": "2025-06-11T09:00:00Z"},
				"location": "Room 4",
			},
			{
				"summary": "Offsite",
				"start":   map[string]any{"date": "2025-06-11"},
			},
		},
	}
	got := format.Service("calendar", payload)
	for _, want := range []string{"2 event(s) today", "Standup", "Room 4", "Offsite", "all day"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestService_CalendarEmpty(t *testing.T) {
	payload := services.Payload{"time_range": "tomorrow", "events": []services.Payload{}}
	got := format.Service("calendar", payload)
	if got != "You have no events tomorrow." {
		t.Errorf("got %q", got)
	}
}

func TestService_CalendarWeekdayPhrase(t *testing.T) {
	payload := services.Payload{"time_range": "Friday", "events": []services.Payload{}}
	got := format.Service("calendar", payload)
	if got != "You have no events on Friday." {
		t.Errorf("got %q", got)
	}
}

func TestService_GmailLatest(t *testing.T) {
	payload := services.Payload{
		"latest_email": services.Payload{
			"subject": "Q2 Report",
			"from":    "boss@example.com",
			"snippet": "Quarterly numbers attached",
		},
	}
	got := format.Service("gmail", payload)
	if !strings.Contains(got, "boss@example.com") || !strings.Contains(got, "Q2 Report") {
		t.Errorf("got %q", got)
	}
}

func TestService_DriveFiles(t *testing.T) {
	payload := services.Payload{
		"files": []services.Payload{{"name": "taxes.pdf"}, {"name": "notes.txt"}},
	}
	got := format.Service("drive", payload)
	if !strings.Contains(got, "2 file(s)") || !strings.Contains(got, "taxes.pdf") {
		t.Errorf("got %q", got)
	}
}

func TestService_UnknownPayloadIsSafe(t *testing.T) {
	if got := format.Service("slides", services.Payload{"weird": 42}); got != "Done." {
		t.Errorf("got %q", got)
	}
	if got := format.Service("slides", nil); got != "Done." {
		t.Errorf("nil payload: got %q", got)
	}
}

func TestText_CollapsesBlankLines(t *testing.T) {
	got := format.Text("  hello\n\n\n\nworld  ")
	if got != "hello\n\nworld" {
		t.Errorf("got %q", got)
	}
}
