package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status struct {
	Status string
	Checks map[string]string
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) status {
	t.Helper()
	var s status
	require.NoError(t, jx.DecodeBytes(w.Body.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "status":
			v, err := d.Str()
			s.Status = v
			return err
		case "checks":
			s.Checks = map[string]string{}
			return d.Obj(func(d *jx.Decoder, name string) error {
				v, err := d.Str()
				s.Checks[name] = v
				return err
			})
		}
		return d.Skip()
	}))
	return s
}

func passing(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func runN(p *probe, n int) {
	for range n {
		p.run(context.Background())
	}
}

func live(h *Health) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	return w
}

func ready(h *Health) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	return w
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	h := New()
	h.AddLivenessCheck("a", time.Second, passing)
	h.AddLivenessCheck("b", time.Second, passing)

	w := live(h)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decodeStatus(t, w).Status)
}

func TestLiveEndpoint_FailingPastThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("postgres", time.Second, failing("connection refused"))

	runN(h.probes[0], 2)
	assert.Equal(t, http.StatusOK, live(h).Code)

	runN(h.probes[0], 1)
	w := live(h)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	s := decodeStatus(t, w)
	assert.Equal(t, "unhealthy", s.Status)
	assert.Equal(t, "connection refused", s.Checks["postgres"])
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)
	h.AddLivenessCheck("goroutines", time.Second, failing("too many"))
	runN(h.probes[1], 3)

	w := ready(h)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decodeStatus(t, w).Checks, "_readiness")

	h.SetReady(true)
	assert.Equal(t, http.StatusOK, ready(h).Code, "liveness failures do not affect readiness")
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestReadyEndpoint_OneFailing(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)
	h.Add(Check{Name: "kafka", Kind: Readiness, Func: failing("no brokers"), FailureThreshold: 1})
	h.SetReady(true)

	for _, p := range h.probes {
		runN(p, 1)
	}

	w := ready(h)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	s := decodeStatus(t, w)
	assert.Equal(t, map[string]string{"kafka": "no brokers"}, s.Checks)
	assert.False(t, h.IsReady())
}

func TestProbeRecovers(t *testing.T) {
	var (
		mu  sync.Mutex
		err = errors.New("down")
	)
	h := New()
	h.AddReadinessCheck("flaky", time.Second, func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		return err
	})
	h.SetReady(true)

	runN(h.probes[0], 3)
	require.False(t, h.IsReady())

	mu.Lock()
	err = nil
	mu.Unlock()
	runN(h.probes[0], 1)
	assert.True(t, h.IsReady())
}

func TestStartAndStop(t *testing.T) {
	h := New()
	h.Add(Check{Name: "x", Kind: Liveness, Func: failing("bad"), FailureThreshold: 1})
	h.Start(context.Background(), 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return live(h).Code == http.StatusServiceUnavailable
	}, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestPingCheck(t *testing.T) {
	assert.NoError(t, PingCheck(pinger{})(context.Background()))
	assert.Error(t, PingCheck(pinger{err: errors.New("closed")})(context.Background()))
}

func TestKafkaCheck_NoBrokers(t *testing.T) {
	assert.Error(t, KafkaCheck(nil)(context.Background()))
}

func TestBacklogCheck(t *testing.T) {
	count := func(n int64) func(context.Context) (int64, error) {
		return func(context.Context) (int64, error) { return n, nil }
	}
	assert.NoError(t, BacklogCheck(count(10), 10)(context.Background()))
	assert.Error(t, BacklogCheck(count(11), 10)(context.Background()))
}
