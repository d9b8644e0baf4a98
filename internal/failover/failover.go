// Package failover runs chain reads against an ordered list of JSON-RPC
// endpoints, one fresh connection per attempt, stopping at the first success.
package failover

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"onchain_yield_api/internal/port"
	"onchain_yield_api/pkg/metrics"
)

const tracerName = "onchain_yield_api/failover"

var ErrEndpointsExhausted = stderrors.New("all rpc endpoints failed")

// ExhaustedError is returned when every endpoint failed. Err is the failure of
// the last endpoint tried.
type ExhaustedError struct {
	Attempts int
	Endpoint string
	Err      error
}

func (e *ExhaustedError) Error() string {
	reason := "unknown error"
	if e.Err != nil && e.Err.Error() != "" {
		reason = e.Err.Error()
	}
	return fmt.Sprintf("all %d rpc endpoints failed, last error: %s", e.Attempts, reason)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (e *ExhaustedError) Is(target error) bool { return target == ErrEndpointsExhausted }

// Dialer opens a connection bound to exactly one endpoint.
type Dialer func(ctx context.Context, endpoint string) (port.ChainReader, error)

type Operation[T any] func(ctx context.Context, conn port.ChainReader) (T, error)

type Executor struct {
	endpoints      []string
	dial           Dialer
	attemptTimeout time.Duration
	metrics        *metrics.Metrics
}

// New builds an executor over a fixed endpoint order. attemptTimeout bounds a
// single attempt; zero leaves attempts bounded only by the caller's context.
func New(endpoints []string, dial Dialer, attemptTimeout time.Duration, m *metrics.Metrics) (*Executor, error) {
	if len(endpoints) == 0 {
		return nil, stderrors.New("failover: endpoint list is empty")
	}
	if dial == nil {
		return nil, stderrors.New("failover: dialer is nil")
	}
	if attemptTimeout < 0 {
		return nil, fmt.Errorf("failover: negative attempt timeout %s", attemptTimeout)
	}
	return &Executor{
		endpoints:      append([]string(nil), endpoints...),
		dial:           dial,
		attemptTimeout: attemptTimeout,
		metrics:        m,
	}, nil
}

func (e *Executor) Endpoints() []string {
	return append([]string(nil), e.endpoints...)
}

// Do tries op against each endpoint in order and returns the first success.
// There is no retry within an endpoint. Once ctx is done no further endpoint
// is tried.
func Do[T any](ctx context.Context, e *Executor, op Operation[T]) (T, error) {
	var zero T
	var lastErr error
	var lastEndpoint string

	for _, endpoint := range e.endpoints {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("failover aborted: %w", err)
		}

		res, err := attempt(ctx, e, endpoint, op)
		if err == nil {
			e.metrics.RPCAttempt(endpoint, nil)
			return res, nil
		}
		// the caller gave up mid-attempt, the endpoint is not at fault
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, fmt.Errorf("failover aborted: %w", ctxErr)
		}

		e.metrics.RPCAttempt(endpoint, err)
		lastErr = err
		lastEndpoint = endpoint
		zap.L().Warn("rpc endpoint failed", zap.String("endpoint", endpoint), zap.Error(err))
	}

	return zero, &ExhaustedError{
		Attempts: len(e.endpoints),
		Endpoint: lastEndpoint,
		Err:      lastErr,
	}
}

func attempt[T any](ctx context.Context, e *Executor, endpoint string, op Operation[T]) (res T, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "rpc.attempt",
		trace.WithAttributes(attribute.String("rpc.endpoint", endpoint)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if e.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.attemptTimeout)
		defer cancel()
	}

	conn, err := e.dial(ctx, endpoint)
	if err != nil {
		return res, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	return op(ctx, conn)
}
