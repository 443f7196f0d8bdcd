// Package fcm forwards notifications to Firebase Cloud Messaging.
package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/tinywideclouds/go-notification-relay/notificationrelay/config"
)

// newMessagingClient builds the SDK client from a service-account document.
// Tests replace it to observe exactly what reaches the SDK.
var newMessagingClient = func(ctx context.Context, projectID string, credentialsJSON []byte) (MessagingClient, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create FCM messaging client: %w", err)
	}
	return client, nil
}

// NewMessagingClient authenticates to FCM with the given credentials.
// Credentials are validated first so a bad key fails at startup rather than on
// the first send.
func NewMessagingClient(ctx context.Context, creds *config.Credentials) (MessagingClient, error) {
	if creds == nil {
		return nil, fmt.Errorf("firebase credentials are nil")
	}
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid firebase credentials: %w", err)
	}
	doc, err := creds.ServiceAccountJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode firebase credentials: %w", err)
	}
	return newMessagingClient(ctx, creds.ProjectID, doc)
}
