package push

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-trip-api/internal/infrastructure/fcm"
)

// MaxTokensPerBatch is the push provider's hard ceiling on tokens per
// multicast call. It is a provider constant, not a tuning knob.
const MaxTokensPerBatch = 500

// batchTimeout bounds each individual provider call.
const batchTimeout = 10 * time.Second

// DeliveryReport summarizes one dispatch. Delivery is best-effort: the report
// is for logs and tests, and nothing in it is an error condition.
type DeliveryReport struct {
	Tokens      int
	Batches     int
	Sent        int
	Failed      int
	Deactivated int
}

// Service delivers a title/body/payload to every active device of a set of
// users. It never returns an error: delivery failures stay inside this
// boundary, and the only side effect beyond provider calls is deactivating
// tokens the provider confirms as permanently invalid.
type Service interface {
	SendToUser(ctx context.Context, userID, title, body string, data map[string]string) DeliveryReport
	SendToUsers(ctx context.Context, userIDs []string, title, body string, data map[string]string) DeliveryReport
}

type tokenRegistry interface {
	ListActiveTokens(ctx context.Context, userIDs []string) ([]string, error)
	Deactivate(ctx context.Context, token string) error
}

type service struct {
	devices tokenRegistry
	sender  fcm.Sender
}

func NewService(devices tokenRegistry, sender fcm.Sender) Service {
	return &service{devices: devices, sender: sender}
}

func (s *service) SendToUser(ctx context.Context, userID, title, body string, data map[string]string) DeliveryReport {
	return s.SendToUsers(ctx, []string{userID}, title, body, data)
}

func (s *service) SendToUsers(ctx context.Context, userIDs []string, title, body string, data map[string]string) DeliveryReport {
	var report DeliveryReport

	if s.sender == nil {
		return report
	}

	tokens, err := s.devices.ListActiveTokens(ctx, userIDs)
	if err != nil {
		slog.Warn("push: failed to resolve device tokens", "err", err)
		return report
	}
	if len(tokens) == 0 {
		return report
	}
	report.Tokens = len(tokens)

	for start := 0; start < len(tokens); start += MaxTokensPerBatch {
		end := start + MaxTokensPerBatch
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]
		report.Batches++

		batchCtx, cancel := context.WithTimeout(ctx, batchTimeout)
		results, err := s.sender.SendMulticast(batchCtx, batch, title, body, data)
		cancel()
		if err != nil {
			// Whole-batch transport failure: no per-token evidence, so no
			// deactivation. Remaining batches are still attempted.
			slog.Warn("push: batch send failed", "batch_size", len(batch), "err", err)
			report.Failed += len(batch)
			continue
		}

		for _, r := range results {
			switch {
			case r.Err == nil:
				report.Sent++
			case r.Unregistered:
				report.Failed++
				if err := s.devices.Deactivate(ctx, r.Token); err != nil {
					slog.Warn("push: failed to deactivate dead token", "err", err)
				} else {
					report.Deactivated++
					slog.Info("push: deactivated unregistered token")
				}
			default:
				report.Failed++
				slog.Warn("push: token send failed", "err", r.Err)
			}
		}
	}

	return report
}
