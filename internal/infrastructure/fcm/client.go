package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/go-trip-api/internal/config"
	"google.golang.org/api/option"
)

// TokenResult is the per-token outcome of a multicast call. Unregistered marks
// tokens the provider reports as permanently dead; everything else that failed
// carries Err only and must not trigger deactivation.
type TokenResult struct {
	Token        string
	Err          error
	Unregistered bool
}

// Sender delivers one message to a set of device tokens in a single provider
// call. Implementations must accept at most 500 tokens per call.
type Sender interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]TokenResult, error)
}

type sender struct {
	client *messaging.Client
}

// NewSender builds an FCM-backed Sender from a service-account credentials file.
func NewSender(cfg *config.Config) (Sender, error) {
	opts := []option.ClientOption{}
	if cfg.FCMCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FCMCredentialsFile))
	}
	app, err := firebase.NewApp(context.Background(), nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(context.Background())
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return &sender{client: client}, nil
}

func (s *sender) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]TokenResult, error) {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, err
	}

	results := make([]TokenResult, len(resp.Responses))
	for i, r := range resp.Responses {
		results[i] = TokenResult{Token: tokens[i]}
		if !r.Success {
			results[i].Err = r.Error
			results[i].Unregistered = messaging.IsUnregistered(r.Error)
		}
	}
	return results, nil
}
