package fcm

import (
	"context"
	"log/slog"

	"firebase.google.com/go/v4/messaging"

	"github.com/tinywideclouds/go-notification-relay/notificationrelay/config"
	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
)

// FCM rejects SendEach calls with more than 500 messages.
const fcmBatchLimit = 500

// MessagingClient defines the subset of the Firebase Messaging API we use.
// This interface allows us to mock the client for unit testing.
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendEach(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
}

type Dispatcher struct {
	client   MessagingClient
	defaults config.MessageConfig
	logger   *slog.Logger
}

// NewDispatcher accepts the concrete client but stores it as the interface.
// Note: *messaging.Client automatically satisfies this interface.
func NewDispatcher(client MessagingClient, defaults config.MessageConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client:   client,
		defaults: defaults,
		logger:   logger.With("component", "FCMDispatcher"),
	}
}

// Send delivers one message and returns the FCM message ID.
// Failures come back as *dispatch.ProviderError.
func (d *Dispatcher) Send(ctx context.Context, token string, n dispatch.Notification) (string, error) {
	messageID, err := d.client.Send(ctx, d.buildMessage(token, n))
	if err != nil {
		pe := dispatch.NewProviderError(ErrorCode(err), err)
		d.logger.Error("FCM send failed", "code", pe.Code, "err", err)
		return "", pe
	}

	d.logger.Info("FCM message sent", "message_id", messageID)
	return messageID, nil
}

// SendBatch sends one message per token, in chunks FCM accepts, and merges the
// per-chunk responses in token order. A transport failure on any chunk fails
// the whole call.
func (d *Dispatcher) SendBatch(ctx context.Context, tokens []string, n dispatch.Notification) (*dispatch.BatchResult, error) {
	result := &dispatch.BatchResult{Responses: make([]dispatch.TokenResult, 0, len(tokens))}
	if len(tokens) == 0 {
		return result, nil
	}

	for _, batch := range chunkTokens(tokens, fcmBatchLimit) {
		msgs := make([]*messaging.Message, len(batch))
		for i, token := range batch {
			msgs[i] = d.buildMessage(token, n)
		}

		br, err := d.client.SendEach(ctx, msgs)
		if err != nil {
			pe := dispatch.NewProviderError(ErrorCode(err), err)
			d.logger.Error("FCM batch send failed", "code", pe.Code, "batch_size", len(batch), "err", err)
			return nil, pe
		}

		result.SuccessCount += br.SuccessCount
		result.FailureCount += br.FailureCount
		for i, resp := range br.Responses {
			if i >= len(batch) || resp == nil {
				continue
			}
			tr := dispatch.TokenResult{
				Token:     batch[i],
				Success:   resp.Success,
				MessageID: resp.MessageID,
			}
			if resp.Error != nil {
				tr.Error = dispatch.NewProviderError(ErrorCode(resp.Error), resp.Error)
			}
			result.Responses = append(result.Responses, tr)
		}
	}

	d.logger.Info("FCM batch sent",
		"tokens", len(tokens),
		"success", result.SuccessCount,
		"failure", result.FailureCount,
	)
	return result, nil
}

func (d *Dispatcher) buildMessage(token string, n dispatch.Notification) *messaging.Message {
	data := n.Data
	if data == nil {
		data = map[string]string{}
	}
	badge := d.defaults.APNSBadge

	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Content.Title,
			Body:  n.Content.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: d.defaults.AndroidPriority,
			Notification: &messaging.AndroidNotification{
				ChannelID: d.defaults.AndroidChannelID,
				Priority:  androidNotificationPriority(d.defaults.AndroidPriority),
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound:            d.defaults.APNSSound,
					Badge:            &badge,
					ContentAvailable: d.defaults.APNSContentAvailable,
				},
			},
		},
	}
}

func androidNotificationPriority(priority string) messaging.AndroidNotificationPriority {
	if priority == "high" {
		return messaging.PriorityHigh
	}
	return messaging.PriorityDefault
}

func chunkTokens(tokens []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(tokens); i += size {
		end := i + size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, tokens[i:end])
	}
	return chunks
}
