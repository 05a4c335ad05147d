// Package whatsapp entrega notificaciones por WhatsApp vía Twilio.
package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"petshop-manager/internal/domain/notifications"
)

var ErrNoRecipient = errors.New("owner has no whatsapp number")

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// BusinessNamer la implementa settings.Service.
type BusinessNamer interface {
	BusinessName() string
}

type Sender struct {
	api      messageCreator
	from     string
	business BusinessNamer
}

func New(accountSID, authToken, fromNumber string, business BusinessNamer) *Sender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Sender{api: client.Api, from: fromNumber, business: business}
}

func (s *Sender) Configured() bool { return s.from != "" }

func (s *Sender) Send(ctx context.Context, m notifications.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var p notifications.CheckoutPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	to := e164(p.OwnerWhatsApp)
	if to == "" {
		return ErrNoRecipient
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + to)
	params.SetFrom("whatsapp:" + e164(s.from))
	params.SetBody(s.checkoutText(p))
	if p.AfterPhoto != "" {
		params.SetMediaUrl([]string{p.AfterPhoto})
	}

	if _, err := s.api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	return nil
}

func (s *Sender) checkoutText(p notifications.CheckoutPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s! %s já está pronto(a).", p.OwnerName, p.PetName)
	if p.Service != "" {
		fmt.Fprintf(&b, "\nServiço: %s", p.Service)
	}
	if p.Notes != "" {
		fmt.Fprintf(&b, "\nObservações: %s", p.Notes)
	}
	if s.business != nil && s.business.BusinessName() != "" {
		fmt.Fprintf(&b, "\n\n%s", s.business.BusinessName())
	}
	return b.String()
}

func e164(raw string) string {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "whatsapp:"))
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "+") {
		raw = "+" + raw
	}
	return raw
}
