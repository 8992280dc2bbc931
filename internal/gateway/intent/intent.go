// Package intent classifies free-form chat messages into an action category
// and target service.
//
// Classification is deterministic keyword matching against an ordered rule
// table — no language model is involved in routing decisions.  Matching is
// case-insensitive substring matching, not tokenised or stemmed: a service
// keyword appearing inside an unrelated word still matches (e.g. "form"
// inside "information").  This imprecision is a known, accepted limitation of
// the rule table; tightening it to word-boundary matching would change
// routing behaviour and must not be done silently.
package intent

// Kind is the high-level category of an incoming message.
type Kind string

const (
	// KindStructured means the message targets a specific productivity service.
	KindStructured Kind = "structured"
	// KindOpenEnded means no service keyword matched; the message is routed
	// to the language-model / fallback path.
	KindOpenEnded Kind = "open_ended"
)

// Classification is the result of classifying one message.  It is produced
// once per message and never reused for subsequent messages — there is no
// sticky routing.
type Classification struct {
	// Kind is structured or open_ended.
	Kind Kind `json:"kind"`
	// Service is the matched service identifier (e.g. "calendar", "sms").
	// Empty when Kind == KindOpenEnded.
	Service string `json:"service,omitempty"`
	// Keyword is the rule-table keyword that selected the service.  Kept as
	// the raw classification signal for observability.
	Keyword string `json:"keyword,omitempty"`
}

// Structured reports whether the classification targets a service.
func (c Classification) Structured() bool {
	return c.Kind == KindStructured
}
