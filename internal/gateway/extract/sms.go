package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Schedule describes when a message should be delivered instead of sent
// immediately.
type Schedule struct {
	// When is the temporal phrase as it appeared in the message,
	// e.g. "tomorrow at 5 pm" or "in 20 minutes".
	When string
	// Recurrence is "daily", "weekly", or "monthly" for repeating sends,
	// empty for one-shot schedules.
	Recurrence string
}

// SMSCommand holds the parameters extracted from a messaging request.
type SMSCommand struct {
	// RecipientQuery is the free-text recipient ("Mom", "555-0134"), stripped
	// of filler verbs and scheduling phrases, ready for contact resolution.
	RecipientQuery string
	// Body is the message text with surrounding quotes trimmed.  Original
	// casing is preserved.
	Body string
	// Schedule is non-nil when the command carries temporal scheduling cues;
	// dispatch then follows the schedule path instead of immediate send.
	Schedule *Schedule
}

// bodyMarker splits recipient from message body.  "to say" is normalised to
// this form before splitting.
const bodyMarker = "saying"

// fillerWords are stripped from the recipient segment as whole tokens.
var fillerWords = map[string]struct{}{
	"text":    {},
	"send":    {},
	"message": {},
	"to":      {},
	"a":       {},
	"an":      {},
}

var recurrencePhrases = []struct {
	phrase string
	token  string
}{
	{"every day", "daily"},
	{"daily", "daily"},
	{"every morning", "daily"},
	{"every evening", "daily"},
	{"every night", "daily"},
	{"every week", "weekly"},
	{"weekly", "weekly"},
	{"every month", "monthly"},
	{"monthly", "monthly"},
}

// whenPatterns match one-shot temporal phrases.  Checked in order; the first
// match becomes Schedule.When.
var whenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:tomorrow|tonight)(?:\s+at\s+\d{1,2}(?::\d{2})?\s*(?:am|pm)?)?`),
	regexp.MustCompile(`(?i)\bin\s+\d+\s+(?:minute|hour|day)s?\b`),
	regexp.MustCompile(`(?i)\bat\s+\d{1,2}(?::\d{2})?\s*(?:am|pm)\b`),
	regexp.MustCompile(`(?i)\bon\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b(?:\s+at\s+\d{1,2}(?::\d{2})?\s*(?:am|pm)?)?`),
}

// SMS parses a messaging request into an SMSCommand.
//
// The message is split on "saying" (with "to say" normalised to "saying"
// first).  The segment before the split, minus filler verbs, is the recipient
// query; the segment after, with surrounding quote characters trimmed, is the
// body.  If the split yields fewer than two non-empty segments the extraction
// fails soft: ok is false and the caller should surface a generic help reply
// rather than dispatching garbage.
func SMS(text string) (cmd SMSCommand, ok bool) {
	lower := strings.ToLower(text)

	// Locate the body marker, accepting the "to say" variant.
	idx := strings.Index(lower, bodyMarker)
	markerLen := len(bodyMarker)
	if idx < 0 {
		idx = strings.Index(lower, "to say")
		markerLen = len("to say")
	}
	if idx < 0 {
		return SMSCommand{}, false
	}

	before := text[:idx]
	after := text[idx+markerLen:]

	sched, before := detectSchedule(lower[:idx], before)
	recipient := stripFiller(before)
	body := strings.Trim(strings.TrimSpace(after), `"'`)
	if recipient == "" || body == "" {
		return SMSCommand{}, false
	}

	return SMSCommand{
		RecipientQuery: recipient,
		Body:           body,
		Schedule:       sched,
	}, true
}

// stripFiller removes filler verbs from the recipient segment, token by token,
// so contact names containing filler substrings ("Tony", "Tomas") survive.
func stripFiller(segment string) string {
	var kept []string
	for _, word := range strings.Fields(segment) {
		if _, filler := fillerWords[strings.ToLower(word)]; filler {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// detectSchedule scans the recipient side of the command for temporal
// scheduling cues.  Matched phrases are excised from the returned segment so
// the recipient query carries only the recipient, never the scheduling text.
// The schedule is nil when the message is an immediate send.
func detectSchedule(lower, segment string) (*Schedule, string) {
	var sched Schedule
	var spans [][2]int

	for _, rec := range recurrencePhrases {
		if i := strings.Index(lower, rec.phrase); i >= 0 {
			sched.Recurrence = rec.token
			spans = append(spans, [2]int{i, i + len(rec.phrase)})
			break
		}
	}
	for _, pat := range whenPatterns {
		if loc := pat.FindStringIndex(lower); loc != nil {
			sched.When = strings.TrimSpace(lower[loc[0]:loc[1]])
			spans = append(spans, [2]int{loc[0], loc[1]})
			break
		}
	}
	if sched.When == "" && sched.Recurrence == "" {
		return nil, segment
	}
	if sched.When == "" {
		// Recurring with no anchor: first delivery follows the recurrence.
		sched.When = sched.Recurrence
	}

	// Cut matched spans out, rightmost first so earlier offsets stay valid.
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] > spans[j][0] })
	for _, sp := range spans {
		segment = segment[:sp[0]] + segment[sp[1]:]
	}
	return &sched, segment
}
