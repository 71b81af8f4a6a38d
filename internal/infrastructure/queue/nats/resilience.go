package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
	"github.com/aviladevs/fiscal-importer/internal/infrastructure/resilience"
)

// transientPublishErrors are worth retrying and count against the breaker.
var transientPublishErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrConnectionDraining,
	nats.ErrDisconnected,
	nats.ErrReconnectBufExceeded,
}

// rejectedPayloadErrors come from the message itself, so retrying cannot help
// and the server is not at fault.
var rejectedPayloadErrors = []error{
	nats.ErrMaxPayload,
	nats.ErrBadSubject,
}

func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case resilience.IsCircuitOpen(err), matchesAny(err, transientPublishErrors):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case matchesAny(err, rejectedPayloadErrors):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func wrapTemporaryIfNeeded(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyNATSError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
