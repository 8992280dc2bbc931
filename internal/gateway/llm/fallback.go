package llm

import (
	"strings"
	"time"
)

// fallbackRule maps trigger phrases to a canned reply. Rules are checked in
// order; the first rule with any phrase present in the lowercased message
// wins. replyAt, when set, composes the reply from the current time.
type fallbackRule struct {
	phrases []string
	reply   string
	replyAt func(now time.Time) string
}

const fallbackHelp = `I can help you with:
📅 Calendar - Check events, create meetings, schedule appointments
📧 Gmail - Send emails, check messages
📁 Drive - Manage files and folders
📊 Sheets - Create and edit spreadsheets
📝 Docs - Create and edit documents
👥 Contacts - Find and manage your contacts
📱 SMS - Send text messages to your contacts
📸 Images - Process photos and extract information

Just ask me things like "What's on my calendar today?" or "Text John saying I'll be late" and I'll help you!`

const fallbackDefault = "I understand you're trying to communicate with me. While my full AI capabilities are temporarily limited, I'm still here to help you with Google services like Calendar, Gmail, Drive, and Contacts. Try asking me about your calendar or to help with a specific Google service!"

var fallbackRules = []fallbackRule{
	{
		phrases: []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"},
		reply:   "Hello! I'm your AI assistant. I can help you with Google services like Calendar, Gmail, Drive, Contacts, and more. What can I do for you today?",
	},
	{
		phrases: []string{"how are you", "how do you do", "what's up"},
		reply:   "I'm doing great and ready to help! I can assist you with managing your Google services, checking your calendar, sending messages, and much more.",
	},
	{
		phrases: []string{"help", "what can you do", "capabilities", "features"},
		reply:   fallbackHelp,
	},
	{
		phrases: []string{"time", "date", "today", "now"},
		replyAt: func(now time.Time) string {
			return "The current date and time is " +
				now.Format("Monday, January 2, 2006 at 3:04 PM") +
				". How can I help you today?"
		},
	},
	{
		phrases: []string{"thank you", "thanks", "thank", "appreciate"},
		reply:   "You're welcome! I'm here whenever you need help with your Google services or anything else.",
	},
	{
		phrases: []string{"bye", "goodbye", "see you", "farewell"},
		reply:   "Goodbye! Feel free to come back anytime you need assistance with your Google services or other tasks.",
	},
}

// Fallback returns a rule-based reply for an open-ended message when the
// model backend is unavailable. It never fails: messages matching no rule get
// a capability summary so the user always hears back.
func Fallback(message string, now time.Time) string {
	lower := strings.ToLower(strings.TrimSpace(message))

	for _, rule := range fallbackRules {
		for _, phrase := range rule.phrases {
			if !strings.Contains(lower, phrase) {
				continue
			}
			if rule.replyAt != nil {
				return rule.replyAt(now)
			}
			return rule.reply
		}
	}
	return fallbackDefault
}
