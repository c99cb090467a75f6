package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/agricoop/magasin-service/internal/config"
	"github.com/agricoop/magasin-service/internal/events"
)

func TestConfirmationLink(t *testing.T) {
	n := NewNotificationService(nil, zap.NewNop(), config.NotificationConfig{PublicURL: "https://coop.example/"})

	link := n.ConfirmationLink("a.b+c.d")
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/auth/confirm", parsed.Path)
	assert.Equal(t, "a.b+c.d", parsed.Query().Get("token"))
}

func TestNotificationHandlersLogEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	n := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{
		EmailFrom:  "noreply@coop.example",
		WebhookURL: "https://hooks.coop.example",
		PublicURL:  "https://coop.example",
	})
	n.RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:    events.EventUserRegistered,
		Payload: events.UserRegisteredPayload{UserID: 1, Username: "awa", Email: "awa@example.com", ConfirmationToken: "tok"},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:      events.EventLotWithdrawn,
		MagasinID: 1,
		Payload:   events.LotWithdrawnPayload{LotID: 1, Quantity: 2},
	}))

	assert.Equal(t, 1, logs.FilterMessage("UserRegistered").Len())
	assert.Equal(t, 1, logs.FilterMessage("sendEmailNotificationStub").Len())
	assert.Equal(t, 1, logs.FilterMessage(string(events.EventLotWithdrawn)).Len())
	assert.Equal(t, 1, logs.FilterMessage("sendWebhookNotificationStub").Len())
}
