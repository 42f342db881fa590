package autocomplete

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symptom-checker/internal/common/logger"
	"symptom-checker/internal/common/metrics"
)

// ==========================
// Test doubles
// ==========================

// fakeTimers records scheduled callbacks so tests decide when the quiet period ends.
type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

func (ft *fakeTimers) afterFunc(d time.Duration, f func()) stopper {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	ft.timers = append(ft.timers, t)
	return t
}

// fireLast runs the most recently scheduled timer, as the runtime would once it elapses.
func (ft *fakeTimers) fireLast() {
	ft.mu.Lock()
	t := ft.timers[len(ft.timers)-1]
	ft.mu.Unlock()
	t.f()
}

func (ft *fakeTimers) count() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.timers)
}

type reply struct {
	tokens []string
	err    error
}

// gatedSource blocks each query until the test releases it.
type gatedSource struct {
	mu      sync.Mutex
	queries []string
	gates   map[string]chan reply
}

func newGatedSource() *gatedSource {
	return &gatedSource{gates: make(map[string]chan reply)}
}

func (s *gatedSource) gate(query string) chan reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.gates[query]
	if !ok {
		ch = make(chan reply, 1)
		s.gates[query] = ch
	}
	return ch
}

func (s *gatedSource) Autocomplete(ctx context.Context, query string) ([]string, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	select {
	case r := <-s.gate(query):
		return r.tokens, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *gatedSource) release(query string, tokens []string, err error) {
	s.gate(query) <- reply{tokens: tokens, err: err}
}

func (s *gatedSource) issued() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func newTestSearcher(t *testing.T, source Source) (*Searcher, *fakeTimers) {
	t.Helper()
	timers := &fakeTimers{}
	s := NewSearcher(DefaultConfig(), source, logger.NewTestLogger(t))
	s.afterFunc = timers.afterFunc
	t.Cleanup(s.Close)
	return s, timers
}

// waitForQueries polls until the source has received n queries.
func waitForQueries(t *testing.T, src *gatedSource, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(src.issued()) >= n }, time.Second, time.Millisecond)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestSearcher_DebounceOnlyLastInputQueries(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)

	s.OnInput("ch")
	s.OnInput("che")
	s.OnInput("Chest P")
	assert.Equal(t, 3, timers.count())
	assert.Equal(t, 300*time.Millisecond, timers.timers[2].d)
	assert.True(t, timers.timers[0].stopped)
	assert.True(t, timers.timers[1].stopped)

	// A superseded timer that fires anyway does nothing.
	timers.timers[0].f()
	assert.Empty(t, src.issued())

	timers.fireLast()
	assert.True(t, s.Snapshot().Searching)
	assert.Equal(t, "chest_p", s.Snapshot().Query)

	src.release("chest_p", []string{"chest_pain", "chest_tightness"}, nil)
	s.Wait()

	st := s.Snapshot()
	assert.Equal(t, []string{"chest_p"}, src.issued())
	assert.Equal(t, []string{"chest pain", "chest tightness"}, st.Suggestions)
	assert.Equal(t, []string{"chest_pain", "chest_tightness"}, st.Tokens)
	assert.False(t, st.Searching)
}

func TestSearcher_PreservesCollaboratorOrder(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)

	s.OnInput("fe")
	timers.fireLast()
	src.release("fe", []string{"fever", "feeling_faint", "fatigue"}, nil)
	s.Wait()

	assert.Equal(t, []string{"fever", "feeling faint", "fatigue"}, s.Snapshot().Suggestions)
}

func TestSearcher_OutOfOrderResponsesDiscarded(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)

	s.OnInput("hea")
	timers.fireLast() // query A
	s.OnInput("headache")
	timers.fireLast() // query B
	waitForQueries(t, src, 2)

	src.release("headache", []string{"headache"}, nil)
	require.Eventually(t, func() bool { return !s.Snapshot().Searching }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"headache"}, s.Snapshot().Suggestions)

	src.release("hea", []string{"head_injury", "heartburn"}, nil)
	s.Wait()

	assert.Equal(t, []string{"headache"}, s.Snapshot().Suggestions, "late response A must not overwrite B")
}

func TestSearcher_StaleFailureDiscarded(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)

	s.OnInput("co")
	timers.fireLast()
	s.OnInput("cough")
	timers.fireLast()
	waitForQueries(t, src, 2)

	src.release("cough", []string{"cough"}, nil)
	src.release("co", nil, errors.New("connection reset"))
	s.Wait()

	assert.Equal(t, []string{"cough"}, s.Snapshot().Suggestions)
}

func TestSearcher_ShortInputIssuesNoQuery(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)

	s.OnInput("fev")
	timers.fireLast()
	src.release("fev", []string{"fever"}, nil)
	s.Wait()
	require.Equal(t, []string{"fever"}, s.Snapshot().Suggestions)

	for _, in := range []string{"f", " f ", "", "   "} {
		s.OnInput(in)
		st := s.Snapshot()
		assert.Empty(t, st.Suggestions, "input %q", in)
		assert.False(t, st.Searching)
	}
	assert.Equal(t, 1, timers.count(), "short input schedules no timer")
	assert.Equal(t, []string{"fev"}, src.issued())
}

func TestSearcher_ShortInputClearsSearchingAndDropsInFlight(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)

	s.OnInput("nau")
	timers.fireLast()
	require.True(t, s.Snapshot().Searching)

	s.OnInput("n")
	assert.False(t, s.Snapshot().Searching)

	src.release("nau", []string{"nausea"}, nil)
	s.Wait()
	assert.Empty(t, s.Snapshot().Suggestions)
}

func TestSearcher_TransportFailureDegradesToEmpty(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)

	s.OnInput("fe")
	timers.fireLast()
	src.release("fe", []string{"fever"}, nil)
	s.Wait()

	s.OnInput("fev")
	timers.fireLast()
	src.release("fev", nil, errors.New("dial tcp: connection refused"))
	s.Wait()

	st := s.Snapshot()
	assert.Empty(t, st.Suggestions)
	assert.False(t, st.Searching)
	assert.Equal(t, []string{"fe", "fev"}, src.issued(), "failures are not retried")
}

func TestSearcher_BlurClearsAndIgnoresLateResponse(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)

	s.OnInput("diz")
	timers.fireLast()
	s.Blur()

	st := s.Snapshot()
	assert.Empty(t, st.Suggestions)
	assert.False(t, st.Searching)

	src.release("diz", []string{"dizziness"}, nil)
	s.Wait()
	assert.Empty(t, s.Snapshot().Suggestions)
	assert.Equal(t, []string{"diz"}, src.issued(), "blur does not cancel the in-flight call")
}

func TestSearcher_BlurCancelsPendingTimer(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)

	s.OnInput("diz")
	s.Blur()
	timers.fireLast()

	assert.Empty(t, src.issued())
	assert.False(t, s.Snapshot().Searching)
}

func TestSearcher_Select(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)

	s.OnInput("sore")
	timers.fireLast()
	src.release("sore", []string{"sore_throat", "sore_muscles"}, nil)
	s.Wait()

	token, err := s.Select(1)
	require.NoError(t, err)
	assert.Equal(t, "sore_muscles", token)
	assert.Empty(t, s.Snapshot().Suggestions)

	_, err = s.Select(0)
	assert.True(t, errors.Is(err, ErrNoSuggestion))
}

func TestSearcher_ListenerSeesChanges(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)

	var mu sync.Mutex
	var states []State
	s.SetListener(func(st State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, st)
	})

	s.OnInput("fa")
	timers.fireLast()
	src.release("fa", []string{"fatigue"}, nil)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, states, 2)
	assert.True(t, states[0].Searching)
	assert.Equal(t, []string{"fatigue"}, states[1].Suggestions)
}

func TestSearcher_TimeoutDegrades(t *testing.T) {
	src := newGatedSource()
	timers := &fakeTimers{}
	cfg := DefaultConfig()
	cfg.Timeout = 10 * time.Millisecond
	s := NewSearcher(cfg, src, logger.NewNoOpLogger())
	s.afterFunc = timers.afterFunc
	defer s.Close()

	s.OnInput("ab")
	timers.fireLast()
	s.Wait()

	assert.False(t, s.Snapshot().Searching)
	assert.Empty(t, s.Snapshot().Suggestions)
}

func TestSearcher_RealTimerDebounce(t *testing.T) {
	src := newGatedSource()
	cfg := DefaultConfig()
	cfg.QuietPeriod = 100 * time.Millisecond
	s := NewSearcher(cfg, src, logger.NewNoOpLogger())
	defer s.Close()

	s.OnInput("co")
	s.OnInput("cou")
	s.OnInput("coug")

	waitForQueries(t, src, 1)
	src.release("coug", []string{"cough"}, nil)
	require.Eventually(t, func() bool { return len(s.Snapshot().Suggestions) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"coug"}, src.issued())
}

func TestSearcher_InputAfterCloseIgnored(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)
	s.Close()

	s.OnInput("fever")
	assert.Equal(t, 0, timers.count())
}

func TestSearcher_CloseDuringQueryIsNotAFailure(t *testing.T) {
	src := newGatedSource()
	s, timers := newTestSearcher(t, src)
	failed := metrics.AutocompleteQueries.WithLabelValues(metrics.OutcomeFailed)
	before := counterValue(t, failed)

	s.OnInput("fe")
	timers.fireLast()
	waitForQueries(t, src, 1)

	s.Close()
	assert.Equal(t, before, counterValue(t, failed))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
