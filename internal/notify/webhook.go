// Package notify implements the notification dispatcher collaborator. The
// engine treats dispatch as opaque: retry policy and payload shape live here.
package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"vigil/internal/logger"
	"vigil/internal/models"
)

// WebhookDispatcher delivers alert instances to the configuration's webhook
// URL as JSON. Other channels (email, SMS) are recorded as skipped; their
// transports live in a separate delivery service.
type WebhookDispatcher struct {
	client *resty.Client
}

// NewWebhookDispatcher builds a dispatcher with the given request timeout
func NewWebhookDispatcher(timeout time.Duration) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &WebhookDispatcher{client: client}
}

// Send delivers the alert to every configured channel and returns one log
// entry per attempt.
func (d *WebhookDispatcher) Send(ctx context.Context, settings models.NotificationSettings, inst *models.AlertInstance) ([]models.NotificationLog, error) {
	log := logger.WithComponent("webhook_dispatcher")

	var logs []models.NotificationLog
	for _, channel := range settings.Channels {
		switch channel {
		case models.ChannelWebhook:
			entry := d.sendWebhook(ctx, settings.WebhookURL, inst)
			logs = append(logs, entry)
		default:
			// Non-webhook channels are handled by the delivery service; record
			// the handoff so the instance's log is complete.
			logs = append(logs, models.NotificationLog{
				ID:        uuid.New().String(),
				Channel:   channel,
				Recipient: firstRecipient(settings),
				SentAt:    time.Now().UTC(),
				Status:    "queued",
			})
		}
	}

	if len(logs) == 0 {
		log.Debug().
			Str("alert_id", inst.ID).
			Msg("no notification channels configured")
	}

	return logs, nil
}

func (d *WebhookDispatcher) sendWebhook(ctx context.Context, url string, inst *models.AlertInstance) models.NotificationLog {
	entry := models.NotificationLog{
		ID:        uuid.New().String(),
		Channel:   models.ChannelWebhook,
		Recipient: url,
		SentAt:    time.Now().UTC(),
	}

	if url == "" {
		entry.Status = "failed"
		return entry
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(inst).
		Post(url)

	entry.RetryCount = 0
	if resp != nil {
		entry.RetryCount = resp.Request.Attempt - 1
	}

	switch {
	case err != nil:
		entry.Status = "failed"
		log := logger.WithComponent("webhook_dispatcher")
		log.Error().
			Err(err).
			Str("alert_id", inst.ID).
			Str("url", url).
			Msg("webhook delivery failed")
	case resp.IsError():
		entry.Status = "failed"
		log := logger.WithComponent("webhook_dispatcher")
		log.Warn().
			Int("status", resp.StatusCode()).
			Str("alert_id", inst.ID).
			Str("url", url).
			Msg("webhook delivery rejected")
	default:
		entry.Status = "sent"
	}

	return entry
}

func firstRecipient(settings models.NotificationSettings) string {
	if len(settings.Recipients) > 0 {
		return settings.Recipients[0]
	}
	return ""
}
