package service

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/agricoop/magasin-service/internal/config"
	"github.com/agricoop/magasin-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventLotAdmitted, n.handleStockEvent)
	n.dispatcher.Subscribe(events.EventLotWithdrawn, n.handleStockEvent)
	n.dispatcher.Subscribe(events.EventLotTransferred, n.handleStockEvent)
}

// ConfirmationLink builds the link mailed to a new account.
func (n *NotificationService) ConfirmationLink(token string) string {
	return strings.TrimRight(n.cfg.PublicURL, "/") + "/api/v1/auth/confirm?token=" + url.QueryEscape(token)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		return nil
	}
	n.logger.Info("UserRegistered", zap.Int64("user_id", payload.UserID), zap.String("username", payload.Username))
	n.sendEmailNotificationStub(ctx, payload.Email, "Confirmez votre compte", n.ConfirmationLink(payload.ConfirmationToken))
	return nil
}

func (n *NotificationService) handleStockEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.Int64("magasin_id", event.MagasinID),
		zap.Int64("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, to, subject, body string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || to == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_length", len(body)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}
