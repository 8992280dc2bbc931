package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/extract"
)

// Instruction markers the mobile app watches for in chat responses. The
// gateway never sends SMS itself; it hands the composed message to the device.
const (
	InstructionSendSMS     = "SEND_SMS"
	InstructionScheduleSMS = "SCHEDULE_SMS"
)

var scheduleIDPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// sms handles messaging requests: immediate sends, scheduled sends, listing
// schedules, and cancelling them.
func (r *Registry) sms(ctx context.Context, req Request) (Payload, error) {
	lower := strings.ToLower(req.Message)

	if cmd, ok := extract.SMS(req.Message); ok {
		if cmd.Schedule != nil {
			return r.smsSchedule(ctx, req, cmd)
		}
		return r.smsSend(ctx, req, cmd)
	}

	switch {
	case strings.Contains(lower, "list") && strings.Contains(lower, "scheduled"):
		msgs, err := r.deps.Schedules.ListPending(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		return Payload{
			"action":             "list_scheduled_sms",
			"scheduled_messages": msgs,
			"response":           fmt.Sprintf("You have %d scheduled SMS messages", len(msgs)),
		}, nil

	case strings.Contains(lower, "cancel"):
		id := scheduleIDPattern.FindString(lower)
		if id == "" {
			return Payload{
				"action":   "cancel_sms",
				"response": "Please provide the schedule ID to cancel",
			}, nil
		}
		if err := r.deps.Schedules.Cancel(ctx, req.UserID, id); err != nil {
			return nil, err
		}
		return Payload{
			"action":   "cancel_sms",
			"response": "Scheduled SMS cancelled.",
		}, nil
	}

	return Payload{
		"action":   "sms",
		"response": `SMS functionality ready. Try saying "Text [contact] saying [message]"`,
	}, nil
}

// smsSend composes an immediate SMS and signals the device to open its SMS
// app with the recipient and body prefilled.
func (r *Registry) smsSend(ctx context.Context, req Request, cmd extract.SMSCommand) (Payload, error) {
	phone, name := r.resolveRecipient(ctx, req.Cred, cmd.RecipientQuery)

	return Payload{
		"action":          "send_sms",
		"recipient":       phone,
		"contact_name":    name,
		"message_content": cmd.Body,
		"instruction":     InstructionSendSMS,
		"status":          "ready_to_send",
		"response":        fmt.Sprintf("✅ SMS to %s: \"%s\" is ready. Opening SMS app...", name, cmd.Body),
	}, nil
}

// smsSchedule persists the message for later delivery by the device.
func (r *Registry) smsSchedule(ctx context.Context, req Request, cmd extract.SMSCommand) (Payload, error) {
	phone, name := r.resolveRecipient(ctx, req.Cred, cmd.RecipientQuery)

	msg, err := r.deps.Schedules.Create(ctx, req.UserID, phone, name,
		cmd.Body, cmd.Schedule.When, cmd.Schedule.Recurrence)
	if err != nil {
		return nil, err
	}

	confirmation := fmt.Sprintf("✅ SMS to %s scheduled for %s.", name, cmd.Schedule.When)
	if cmd.Schedule.Recurrence != "" {
		confirmation = fmt.Sprintf("✅ SMS to %s scheduled %s.", name, cmd.Schedule.Recurrence)
	}

	return Payload{
		"action":          "schedule_sms",
		"schedule_id":     msg.ID,
		"recipient":       phone,
		"contact_name":    name,
		"message_content": cmd.Body,
		"schedule": Payload{
			"when":       cmd.Schedule.When,
			"recurrence": cmd.Schedule.Recurrence,
		},
		"instruction": InstructionScheduleSMS,
		"status":      "scheduled",
		"response":    confirmation,
	}, nil
}

// resolveRecipient looks the query up in the user's contacts. Raw phone
// numbers skip the lookup; resolution failures fall back to the query text so
// the device can still try it as a number.
func (r *Registry) resolveRecipient(ctx context.Context, cred Credential, query string) (phone, name string) {
	phone, name = query, query

	if extract.IsNumeric(query) || !cred.Valid() || r.deps.Contacts == nil {
		return phone, name
	}

	contact, err := r.deps.Contacts.Search(ctx, cred, query)
	if err != nil {
		r.deps.Logger.Warn("contact search failed", "error", err)
		return phone, name
	}
	if contact == nil {
		return phone, name
	}

	if contact.Phone != "" {
		phone = contact.Phone
	}
	if contact.DisplayName != "" {
		name = contact.DisplayName
	}
	return phone, name
}
