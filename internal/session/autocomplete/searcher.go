// Package autocomplete turns keystrokes into debounced suggestion queries and
// never lets an older response overwrite a newer one.
package autocomplete

import (
	"context"
	"fmt"
	"sync"
	"time"

	commonerrors "symptom-checker/internal/common/errors"
	"symptom-checker/internal/common/logger"
	"symptom-checker/internal/common/metrics"
	"symptom-checker/internal/session/supersede"
	"symptom-checker/internal/session/textnorm"
)

var ErrNoSuggestion = commonerrors.New(commonerrors.ErrCodeIndexOutOfRange, "No suggestion at that position")

// Source is the remote autocomplete collaborator. It receives a storage-form
// prefix and returns storage-form tokens.
type Source interface {
	Autocomplete(ctx context.Context, query string) ([]string, error)
}

// State is what the presentation layer sees.
type State struct {
	Query       string   // storage form of the last issued query
	Suggestions []string // display form, in collaborator order
	Tokens      []string // storage form, parallel to Suggestions
	Searching   bool
}

type stopper interface {
	Stop() bool
}

type timerFunc func(d time.Duration, f func()) stopper

func realAfterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

type Searcher struct {
	config *Config
	source Source
	logger logger.Logger

	slot supersede.Slot[State]

	mu        sync.Mutex
	raw       string
	timer     stopper
	pending   uint64 // bumps on every reschedule so a fired-but-superseded timer is ignored
	closed    bool
	listener  func(State)
	afterFunc timerFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSearcher(cfg *Config, source Source, log logger.Logger) *Searcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Searcher{
		config:    cfg,
		source:    source,
		logger:    logger.OrNop(log).With(map[string]interface{}{"component": "autocomplete"}),
		afterFunc: realAfterFunc,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetListener registers fn to receive the state after every visible change.
// fn runs outside the searcher's locks.
func (s *Searcher) SetListener(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}

// OnInput records raw and restarts the debounce timer. Input shorter than
// MinLength clears suggestions immediately and issues no query.
func (s *Searcher) OnInput(raw string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.raw = raw
	s.stopTimerLocked()

	if textnorm.Len(raw) < s.config.MinLength {
		s.slot.Issue(clearState)
		s.mu.Unlock()
		metrics.AutocompleteQueries.WithLabelValues(metrics.OutcomeShortCircuit).Inc()
		s.notify()
		return
	}

	id := s.pending
	s.timer = s.afterFunc(s.config.QuietPeriod, func() { s.fire(id) })
	s.mu.Unlock()
}

// Blur clears suggestions. An in-flight query keeps running but its response
// will be discarded.
func (s *Searcher) Blur() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.slot.Issue(clearState)
	s.mu.Unlock()

	s.notify()
}

// Select returns the storage-form token of the suggestion at index and
// clears the suggestion list.
func (s *Searcher) Select(index int) (string, error) {
	st := s.slot.Load()
	if index < 0 || index >= len(st.Tokens) {
		return "", ErrNoSuggestion.WithDetails(fmt.Sprintf("index %d, size %d", index, len(st.Tokens)))
	}
	token := st.Tokens[index]

	s.mu.Lock()
	s.raw = ""
	s.stopTimerLocked()
	s.slot.Issue(clearState)
	s.mu.Unlock()

	s.notify()
	return token, nil
}

// Snapshot returns a copy of the current state.
func (s *Searcher) Snapshot() State {
	return copyState(s.slot.Load())
}

// Wait blocks until every in-flight query has settled.
func (s *Searcher) Wait() {
	s.wg.Wait()
}

// Close stops the timer, cancels in-flight queries and waits for them.
func (s *Searcher) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Searcher) stopTimerLocked() {
	s.pending++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Searcher) fire(id uint64) {
	s.mu.Lock()
	if s.closed || id != s.pending {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	query := textnorm.Normalize(s.raw)
	gen := s.slot.Issue(func(st *State) {
		st.Query = query
		st.Searching = true
	})
	s.wg.Add(1)
	s.mu.Unlock()

	metrics.AutocompleteQueries.WithLabelValues(metrics.OutcomeIssued).Inc()
	s.notify()

	go s.search(gen, query)
}

func (s *Searcher) search(gen uint64, query string) {
	defer s.wg.Done()

	ctx := s.ctx
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	tokens, err := s.source.Autocomplete(ctx, query)
	if err != nil && s.ctx.Err() != nil {
		s.logger.Debug("Autocomplete query cancelled on close", map[string]interface{}{
			"query":      query,
			"generation": gen,
		})
		return
	}
	if err != nil {
		applied := s.slot.Apply(gen, func(st *State) {
			st.Suggestions = nil
			st.Tokens = nil
			st.Searching = false
		})
		if !applied {
			s.discard(gen, query)
			return
		}
		stdErr := commonerrors.NewAutocompleteTransportError(err)
		s.logger.Warn("Autocomplete query failed", map[string]interface{}{
			"query":     query,
			"errorCode": string(stdErr.Code),
			"error":     stdErr.Details,
		})
		metrics.AutocompleteQueries.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.notify()
		return
	}

	display := make([]string, len(tokens))
	for i, t := range tokens {
		display[i] = textnorm.ToDisplay(t)
	}
	applied := s.slot.Apply(gen, func(st *State) {
		st.Suggestions = display
		st.Tokens = append([]string(nil), tokens...)
		st.Searching = false
	})
	if !applied {
		s.discard(gen, query)
		return
	}
	metrics.AutocompleteQueries.WithLabelValues(metrics.OutcomeApplied).Inc()
	s.notify()
}

func (s *Searcher) discard(gen uint64, query string) {
	s.logger.Debug("Discarding stale autocomplete response", map[string]interface{}{
		"query":      query,
		"generation": gen,
		"latest":     s.slot.Latest(),
		"errorCode":  string(commonerrors.ErrCodeStaleResponseDiscarded),
	})
	metrics.AutocompleteQueries.WithLabelValues(metrics.OutcomeStale).Inc()
}

func (s *Searcher) notify() {
	s.mu.Lock()
	fn := s.listener
	s.mu.Unlock()
	if fn != nil {
		fn(s.Snapshot())
	}
}

func clearState(st *State) {
	st.Query = ""
	st.Suggestions = nil
	st.Tokens = nil
	st.Searching = false
}

func copyState(st State) State {
	st.Suggestions = append([]string(nil), st.Suggestions...)
	st.Tokens = append([]string(nil), st.Tokens...)
	return st
}
