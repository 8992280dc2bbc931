package extract_test

import (
	"testing"
	"time"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/extract"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		fallback string
		want     string
	}{
		{"called marker", "create a document called Budget Plan", "New Document", "Budget Plan"},
		{"titled marker", "make a doc titled quarterly review", "New Document", "Quarterly Review"},
		{"about marker", "new document about garden plans", "New Document", "Garden Plans"},
		{"for marker", "create a spreadsheet for expenses", "New Spreadsheet", "Expenses"},
		{"no marker", "create a new document", "New Document", "New Document"},
		{"marker ordering", "spreadsheet called Taxes for 2025", "New Spreadsheet", "Taxes For 2025"},
		{"marker at end", "create a document called", "New Document", "New Document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extract.Title(tt.text, tt.fallback); got != tt.want {
				t.Errorf("Title(%q): got %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestTitle_Idempotent(t *testing.T) {
	text := "create a document called Budget Plan"
	first := extract.Title(text, "New Document")
	for i := 0; i < 10; i++ {
		if got := extract.Title(text, "New Document"); got != first {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
}

func TestTimeRange(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"what's on my calendar today", "today"},
		{"what's on my calendar tomorrow", "tomorrow"},
		{"meetings this week", "this week"},
		{"anything next week?", "next week"},
		{"calendar for monday", "Monday"},
		{"events in january", "January"},
		{"show my calendar", "upcoming"},
	}
	for _, tt := range tests {
		if got := extract.TimeRange(tt.text); got != tt.want {
			t.Errorf("TimeRange(%q): got %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestRangeBounds(t *testing.T) {
	// Wednesday 2025-06-11 15:04:05 UTC.
	now := time.Date(2025, 6, 11, 15, 4, 5, 0, time.UTC)

	t.Run("today", func(t *testing.T) {
		min, max := extract.RangeBounds(extract.RangeToday, now)
		if min.Day() != 11 || min.Hour() != 0 {
			t.Errorf("min: got %v", min)
		}
		if max.Day() != 11 || max.Hour() != 23 {
			t.Errorf("max: got %v", max)
		}
	})

	t.Run("tomorrow", func(t *testing.T) {
		min, max := extract.RangeBounds(extract.RangeTomorrow, now)
		if min.Day() != 12 || max.Day() != 12 {
			t.Errorf("got min %v max %v", min, max)
		}
	})

	t.Run("this week starts monday", func(t *testing.T) {
		min, max := extract.RangeBounds(extract.RangeThisWeek, now)
		if min.Weekday() != time.Monday || min.Day() != 9 {
			t.Errorf("min: got %v", min)
		}
		if max.Weekday() != time.Sunday || max.Day() != 15 {
			t.Errorf("max: got %v", max)
		}
	})

	t.Run("next week", func(t *testing.T) {
		min, _ := extract.RangeBounds(extract.RangeNextWeek, now)
		if min.Weekday() != time.Monday || min.Day() != 16 {
			t.Errorf("min: got %v", min)
		}
	})

	t.Run("weekday next occurrence", func(t *testing.T) {
		min, _ := extract.RangeBounds("Friday", now)
		if min.Weekday() != time.Friday || min.Day() != 13 {
			t.Errorf("min: got %v", min)
		}
		// Same weekday as now rolls forward a full week.
		min, _ = extract.RangeBounds("Wednesday", now)
		if min.Day() != 18 {
			t.Errorf("same-day token: got %v, want next week's Wednesday", min)
		}
	})

	t.Run("upcoming default 30 days", func(t *testing.T) {
		min, max := extract.RangeBounds(extract.RangeUpcoming, now)
		if !min.Equal(now) {
			t.Errorf("min: got %v, want now", min)
		}
		if max.Sub(min) < 29*24*time.Hour || max.Sub(min) > 31*24*time.Hour {
			t.Errorf("horizon: got %v", max.Sub(min))
		}
	})

	t.Run("month token falls back to upcoming", func(t *testing.T) {
		min, max := extract.RangeBounds("January", now)
		if !min.Equal(now) || max.Sub(min) < 29*24*time.Hour {
			t.Errorf("got min %v max %v", min, max)
		}
	})
}

func TestSMS_ImmediateSend(t *testing.T) {
	cmd, ok := extract.SMS("Text Mom saying I'll be late")
	if !ok {
		t.Fatal("expected ok")
	}
	if cmd.RecipientQuery != "Mom" {
		t.Errorf("recipient: got %q, want Mom", cmd.RecipientQuery)
	}
	if cmd.Body != "I'll be late" {
		t.Errorf("body: got %q, want I'll be late", cmd.Body)
	}
	if cmd.Schedule != nil {
		t.Errorf("schedule: got %+v, want nil (immediate)", cmd.Schedule)
	}
}

func TestSMS_ToSayVariant(t *testing.T) {
	cmd, ok := extract.SMS(`Send a message to John to say "meeting moved to 3"`)
	if !ok {
		t.Fatal("expected ok")
	}
	if cmd.RecipientQuery != "John" {
		t.Errorf("recipient: got %q, want John", cmd.RecipientQuery)
	}
	if cmd.Body != "meeting moved to 3" {
		t.Errorf("body: got %q (quotes should be trimmed)", cmd.Body)
	}
}

func TestSMS_FillerStrippingKeepsNames(t *testing.T) {
	cmd, ok := extract.SMS("Text Tony saying hi")
	if !ok {
		t.Fatal("expected ok")
	}
	if cmd.RecipientQuery != "Tony" {
		t.Errorf("recipient: got %q, want Tony (filler stripping must be token-level)", cmd.RecipientQuery)
	}
}

func TestSMS_SoftFailure(t *testing.T) {
	for _, text := range []string{
		"send a text to Mom",
		"text",
		"saying hello",
	} {
		if _, ok := extract.SMS(text); ok {
			t.Errorf("SMS(%q): expected soft failure", text)
		}
	}
}

func TestSMS_Scheduled(t *testing.T) {
	cmd, ok := extract.SMS("Text Mom tomorrow at 5 pm saying don't forget dinner")
	if !ok {
		t.Fatal("expected ok")
	}
	if cmd.Schedule == nil {
		t.Fatal("expected schedule")
	}
	if cmd.Schedule.When != "tomorrow at 5 pm" {
		t.Errorf("when: got %q", cmd.Schedule.When)
	}
	if cmd.Schedule.Recurrence != "" {
		t.Errorf("recurrence: got %q, want empty", cmd.Schedule.Recurrence)
	}
	// The temporal phrase belongs to the schedule, never to the recipient.
	if cmd.RecipientQuery != "Mom" {
		t.Errorf("recipient: got %q, want Mom", cmd.RecipientQuery)
	}
	if cmd.Body != "don't forget dinner" {
		t.Errorf("body: got %q", cmd.Body)
	}
}

func TestSMS_Recurring(t *testing.T) {
	cmd, ok := extract.SMS("Send a message to Dad every week saying checking in")
	if !ok {
		t.Fatal("expected ok")
	}
	if cmd.Schedule == nil || cmd.Schedule.Recurrence != "weekly" {
		t.Fatalf("schedule: got %+v, want weekly recurrence", cmd.Schedule)
	}
	if cmd.RecipientQuery != "Dad" {
		t.Errorf("recipient: got %q, want Dad", cmd.RecipientQuery)
	}
}

func TestSMS_RecurringWithTime(t *testing.T) {
	cmd, ok := extract.SMS("Text Mom every day at 8 am saying take your meds")
	if !ok {
		t.Fatal("expected ok")
	}
	if cmd.Schedule == nil {
		t.Fatal("expected schedule")
	}
	if cmd.Schedule.Recurrence != "daily" || cmd.Schedule.When != "at 8 am" {
		t.Errorf("schedule: got %+v", cmd.Schedule)
	}
	if cmd.RecipientQuery != "Mom" {
		t.Errorf("recipient: got %q, want Mom", cmd.RecipientQuery)
	}
	if cmd.Body != "take your meds" {
		t.Errorf("body: got %q", cmd.Body)
	}
}

func TestSMS_Idempotent(t *testing.T) {
	text := "Text Mom tomorrow saying hello"
	first, ok1 := extract.SMS(text)
	for i := 0; i < 10; i++ {
		again, ok2 := extract.SMS(text)
		if ok1 != ok2 || again.RecipientQuery != first.RecipientQuery || again.Body != first.Body {
			t.Fatalf("run %d: extraction not idempotent", i)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"5550134", true},
		{"+1 (555) 013-4000", true},
		{"Mom", false},
		{"555CALL", false},
		{"", false},
		{"+ -", false},
	}
	for _, tt := range tests {
		if got := extract.IsNumeric(tt.in); got != tt.want {
			t.Errorf("IsNumeric(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}
