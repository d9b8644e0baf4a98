package failover_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"onchain_yield_api/internal/failover"
	"onchain_yield_api/internal/port"
	"onchain_yield_api/pkg/metrics"
)

type fakeConn struct {
	endpoint string
	closed   bool
}

func (c *fakeConn) BlockNumber(ctx context.Context) (uint64, error) { return 0, nil }
func (c *fakeConn) CallContract(ctx context.Context, msg ethereum.CallMsg, n *big.Int) ([]byte, error) {
	return nil, nil
}
func (c *fakeConn) Close() { c.closed = true }

type recordingDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	fail  map[string]error
}

func (d *recordingDialer) dial(ctx context.Context, endpoint string) (port.ChainReader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail[endpoint]; err != nil {
		return nil, err
	}
	c := &fakeConn{endpoint: endpoint}
	d.conns = append(d.conns, c)
	return c, nil
}

func newExecutor(t *testing.T, endpoints []string, d *recordingDialer, timeout time.Duration) *failover.Executor {
	t.Helper()
	zap.ReplaceGlobals(zap.NewNop())
	ex, err := failover.New(endpoints, d.dial, timeout, nil)
	require.NoError(t, err)
	return ex
}

func TestDo_LastEndpointSucceeds(t *testing.T) {
	endpoints := []string{"rpc-a", "rpc-b", "rpc-c", "rpc-d"}
	d := &recordingDialer{}
	ex := newExecutor(t, endpoints, d, 0)

	var attempted []string
	got, err := failover.Do(context.Background(), ex, func(ctx context.Context, conn port.ChainReader) (uint64, error) {
		ep := conn.(*fakeConn).endpoint
		attempted = append(attempted, ep)
		if ep != "rpc-d" {
			return 0, errors.New(ep + " down")
		}
		return 4242, nil
	})

	require.NoError(t, err)
	assert.Equal(t, uint64(4242), got)
	assert.Equal(t, endpoints, attempted)
}

func TestDo_StopsAtFirstSuccess(t *testing.T) {
	d := &recordingDialer{}
	ex := newExecutor(t, []string{"rpc-a", "rpc-b", "rpc-c"}, d, 0)

	calls := 0
	got, err := failover.Do(context.Background(), ex, func(ctx context.Context, conn port.ChainReader) (string, error) {
		calls++
		return conn.(*fakeConn).endpoint, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "rpc-a", got)
	assert.Equal(t, 1, calls)
	require.Len(t, d.conns, 1)
}

func TestDo_AllFailCarriesLastError(t *testing.T) {
	d := &recordingDialer{}
	ex := newExecutor(t, []string{"rpc-a", "rpc-b", "rpc-c"}, d, 0)

	calls := 0
	_, err := failover.Do(context.Background(), ex, func(ctx context.Context, conn port.ChainReader) (int, error) {
		calls++
		return 0, errors.New(conn.(*fakeConn).endpoint + " timeout")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, failover.ErrEndpointsExhausted)

	var exhausted *failover.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "rpc-c", exhausted.Endpoint)
	assert.Equal(t, "rpc-c timeout", exhausted.Err.Error())
	assert.Contains(t, err.Error(), "last error: rpc-c timeout")
}

func TestDo_DialFailureFailsOver(t *testing.T) {
	d := &recordingDialer{fail: map[string]error{"rpc-a": errors.New("bad url")}}
	ex := newExecutor(t, []string{"rpc-a", "rpc-b"}, d, 0)

	got, err := failover.Do(context.Background(), ex, func(ctx context.Context, conn port.ChainReader) (string, error) {
		return conn.(*fakeConn).endpoint, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "rpc-b", got)
}

func TestDo_ClosesEveryConnection(t *testing.T) {
	d := &recordingDialer{}
	ex := newExecutor(t, []string{"rpc-a", "rpc-b"}, d, 0)

	_, _ = failover.Do(context.Background(), ex, func(ctx context.Context, conn port.ChainReader) (int, error) {
		return 0, errors.New("nope")
	})

	require.Len(t, d.conns, 2)
	for _, c := range d.conns {
		assert.True(t, c.closed, "connection to %s left open", c.endpoint)
	}
	assert.NotSame(t, d.conns[0], d.conns[1])
}

func TestDo_AttemptTimeoutMovesOn(t *testing.T) {
	d := &recordingDialer{}
	ex := newExecutor(t, []string{"hung", "healthy"}, d, 20*time.Millisecond)

	got, err := failover.Do(context.Background(), ex, func(ctx context.Context, conn port.ChainReader) (string, error) {
		ep := conn.(*fakeConn).endpoint
		if ep == "hung" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return ep, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "healthy", got)
}

func TestDo_CancelledContextStopsLoop(t *testing.T) {
	d := &recordingDialer{}
	ex := newExecutor(t, []string{"rpc-a", "rpc-b", "rpc-c"}, d, 0)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := failover.Do(ctx, ex, func(ctx context.Context, conn port.ChainReader) (int, error) {
		calls++
		cancel()
		return 0, ctx.Err()
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, failover.ErrEndpointsExhausted)
}

func TestDo_CallerDeadlineDuringLastAttempt(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())
	reg := prometheus.NewRegistry()
	d := &recordingDialer{}
	ex, err := failover.New([]string{"hung"}, d.dial, 10*time.Second, metrics.New(reg))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = failover.Do(ctx, ex, func(ctx context.Context, conn port.ChainReader) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, failover.ErrEndpointsExhausted)

	n, err := testutil.GatherAndCount(reg, "yield_rpc_attempts_total")
	require.NoError(t, err)
	assert.Zero(t, n, "an abandoned attempt is not an endpoint failure")
}

func TestNew_RejectsEmptyEndpoints(t *testing.T) {
	d := &recordingDialer{}
	_, err := failover.New(nil, d.dial, 0, nil)
	assert.Error(t, err)
}

func TestExhaustedError_UnknownReason(t *testing.T) {
	err := &failover.ExhaustedError{Attempts: 2}
	assert.Equal(t, "all 2 rpc endpoints failed, last error: unknown error", err.Error())
}

func TestExecutor_EndpointsIsACopy(t *testing.T) {
	d := &recordingDialer{}
	ex := newExecutor(t, []string{"rpc-a"}, d, 0)
	eps := ex.Endpoints()
	eps[0] = "mutated"
	assert.Equal(t, []string{"rpc-a"}, ex.Endpoints())
}
