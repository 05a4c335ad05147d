// Package webhook entrega notificaciones como POST JSON a la URL configurada en settings.
package webhook

import (
	"context"
	"errors"
	"strings"

	"petshop-manager/internal/domain/notifications"
	"petshop-manager/internal/platform/httpclient"
)

var ErrNoURL = errors.New("webhook url not configured")

// URLSource la implementa settings.Service; la URL puede cambiar en caliente.
type URLSource interface {
	WebhookURL() string
}

type Sender struct {
	client *httpclient.Client
	urls   URLSource
}

func New(client *httpclient.Client, urls URLSource) *Sender {
	return &Sender{client: client, urls: urls}
}

func (s *Sender) Configured() bool {
	return strings.TrimSpace(s.urls.WebhookURL()) != ""
}

// Send publica el payload tal cual. Sin auth; el body de la respuesta se ignora.
func (s *Sender) Send(ctx context.Context, m notifications.Message) error {
	url := strings.TrimSpace(s.urls.WebhookURL())
	if url == "" {
		return ErrNoURL
	}
	return s.client.PostJSON(ctx, url, map[string]string{
		"X-Notification-ID":   m.ID,
		"X-Notification-Kind": string(m.Kind),
	}, m.Payload)
}
