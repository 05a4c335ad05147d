package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"petshop-manager/internal/domain/notifications"
)

type fakeAPI struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeAPI) CreateMessage(p *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = p
	return &twilioApi.ApiV2010Message{}, f.err
}

type name string

func (n name) BusinessName() string { return string(n) }

func payload(t *testing.T, p notifications.CheckoutPayload) []byte {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return raw
}

func TestSend_BuildsWhatsAppMessage(t *testing.T) {
	api := &fakeAPI{}
	s := &Sender{api: api, from: "+15550001111", business: name("PetShop Manager")}

	err := s.Send(context.Background(), notifications.Message{Payload: payload(t, notifications.CheckoutPayload{
		PetName: "Thor", OwnerName: "Maria", OwnerWhatsApp: "5511999990000",
		Service: "Banho", AfterPhoto: "https://cdn/thor.jpg",
	})})
	require.NoError(t, err)

	require.NotNil(t, api.params.To)
	assert.Equal(t, "whatsapp:+5511999990000", *api.params.To)
	assert.Equal(t, "whatsapp:+15550001111", *api.params.From)
	assert.Contains(t, *api.params.Body, "Thor")
	assert.Contains(t, *api.params.Body, "PetShop Manager")
	assert.Equal(t, []string{"https://cdn/thor.jpg"}, *api.params.MediaUrl)
}

func TestSend_NoRecipient(t *testing.T) {
	s := &Sender{api: &fakeAPI{}, from: "+15550001111"}
	err := s.Send(context.Background(), notifications.Message{Payload: payload(t, notifications.CheckoutPayload{PetName: "Thor"})})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSend_APIError(t *testing.T) {
	s := &Sender{api: &fakeAPI{err: errors.New("21211 invalid to")}, from: "+15550001111"}
	err := s.Send(context.Background(), notifications.Message{Payload: payload(t, notifications.CheckoutPayload{OwnerWhatsApp: "+551199"})})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
}
