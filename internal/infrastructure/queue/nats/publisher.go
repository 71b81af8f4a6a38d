package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
	"github.com/aviladevs/fiscal-importer/internal/infrastructure/resilience"
)

const DefaultSubjectPrefix = "fiscal.documents"

// Publisher announces committed documents on <prefix>.<kind>.imported.
type Publisher struct {
	conn     *nats.Conn
	prefix   string
	executor *resilience.Executor
	publish  func(subject string, data []byte) error
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, subjectPrefix string) (*Publisher, error) {
	return NewWithOptions(url, subjectPrefix, Options{})
}

func NewWithOptions(url, subjectPrefix string, options Options) (*Publisher, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 10
	}
	retryOnFailedConnect := false
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("fiscal-importer"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "connect nats", err)
	}
	p := newPublisher(subjectPrefix, options.ResilienceExecutor, conn.Publish)
	p.conn = conn
	return p, nil
}

func newPublisher(prefix string, executor *resilience.Executor, publish func(string, []byte) error) *Publisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{prefix: prefix, executor: executor, publish: publish}
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.FlushTimeout(5 * time.Second); err != nil {
		slog.Warn("nats_flush_failed", "error", err)
	}
	p.conn.Close()
}

func (p *Publisher) Subject(kind domain.DocumentKind) string {
	return p.prefix + "." + strings.ToLower(string(kind)) + ".imported"
}

func (p *Publisher) PublishDocumentImported(ctx context.Context, event domain.DocumentEvent) error {
	if !event.Kind.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "publish document event", fmt.Errorf("unknown kind %q", event.Kind))
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal document event: %w", err)
	}
	subject := p.Subject(event.Kind)

	call := func(_ context.Context) error {
		if err := p.publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if p.executor != nil {
		err = p.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}
