package notify

import (
	"context"
	"fmt"
	"unicode/utf8"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	model "github.com/cowin-slot-notifier/src/model"
)

const maxSMSLength = 320

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// SMS sends a one-message summary through Twilio. Recipients are E.164 numbers.
type SMS struct {
	from string
	api  messageCreator
}

func NewSMS(accountSID, authToken, from string) *SMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMS{from: from, api: client.Api}
}

func (s *SMS) Name() string {
	return "sms"
}

func (s *SMS) Deliver(ctx context.Context, recipient string, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(s.from)
	params.SetBody(smsBody(p))

	if _, err := s.api.CreateMessage(params); err != nil {
		return fmt.Errorf("create twilio message: %w", err)
	}
	return nil
}

func smsBody(p Payload) string {
	var body string
	switch p.Kind {
	case Success:
		body = fmt.Sprintf("Vaccine slots available: %d session(s) for age %d+.", len(p.Rows), p.MinAgeLimit)
		if len(p.Rows) > 0 {
			first := p.Rows[0]
			body += fmt.Sprintf(" Earliest: %s (%s) on %s, %d available, %s.",
				first.CenterName, first.Pincode, first.Date.Format(model.DateFormat), first.AvailableCapacity, first.VaccineName)
		}
	case Failure:
		body = "Vaccine availability check failed: " + p.Detail
	default:
		body = "Hello, you will get an SMS once a vaccine slot is available."
	}

	if len(body) > maxSMSLength {
		cut := maxSMSLength - 3
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	return body
}
