// Package session composes the symptom set, autocomplete searcher and analysis
// orchestrator into one controller per user session.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	commonerrors "symptom-checker/internal/common/errors"
	"symptom-checker/internal/common/logger"
	"symptom-checker/internal/common/metrics"
	"symptom-checker/internal/models"
	"symptom-checker/internal/session/analysis"
	"symptom-checker/internal/session/autocomplete"
	"symptom-checker/internal/session/symptomset"
	"symptom-checker/internal/session/textnorm"
)

type QuickSelectItem struct {
	Token    string
	Label    string
	Selected bool
}

// Snapshot is a read-only copy of everything the presentation layer renders.
type Snapshot struct {
	SessionID   string
	Symptoms    []string // display form
	Tokens      []string // storage form
	InputError  string
	Suggestions []string
	Searching   bool
	QuickSelect []QuickSelectItem
	Profile     models.Profile
	Analysis    analysis.State
}

type Controller struct {
	id         string
	logger     logger.Logger
	errHandler *commonerrors.ErrorHandler

	searcher     *autocomplete.Searcher
	orchestrator *analysis.Orchestrator

	mu       sync.Mutex
	symptoms *symptomset.Set
	inputErr *commonerrors.StandardError
	profile  models.Profile

	// pubMu orders publishes so subscribers receive snapshots in the order
	// they were taken. Acquired before mu and subsMu.
	pubMu  sync.Mutex
	subsMu sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
	closed bool
}

func New(cfg *Config, source autocomplete.Source, analyzer analysis.Analyzer, log logger.Logger) *Controller {
	if cfg == nil {
		cfg = &Config{}
	}
	id := uuid.New().String()
	log = logger.OrNop(log).With(map[string]interface{}{"sessionId": id})

	c := &Controller{
		id:           id,
		logger:       log,
		errHandler:   commonerrors.NewErrorHandler(log),
		searcher:     autocomplete.NewSearcher(cfg.Autocomplete, source, log),
		orchestrator: analysis.NewOrchestrator(cfg.Analysis, analyzer, log),
		symptoms:     symptomset.New(),
		subs:         make(map[int]chan Snapshot),
	}
	c.searcher.SetListener(func(autocomplete.State) { c.publish() })
	c.orchestrator.SetListener(func(analysis.State) { c.publish() })

	metrics.ActiveSessions.Inc()
	log.Info("Session started", nil)
	return c
}

func (c *Controller) ID() string {
	return c.id
}

// Input feeds a keystroke to the autocomplete searcher and clears any inline error.
func (c *Controller) Input(raw string) {
	c.clearInputError()
	c.searcher.OnInput(raw)
	c.publish()
}

// Blur closes the suggestion list.
func (c *Controller) Blur() {
	c.searcher.Blur()
}

// Submit adds typed text as a symptom.
func (c *Controller) Submit(raw string) error {
	c.mu.Lock()
	_, err := c.symptoms.Add(raw)
	c.mu.Unlock()

	if err != nil {
		return c.rejectInput("submit", err)
	}
	c.clearInputError()
	c.searcher.Blur()
	c.publish()
	return nil
}

// SelectSuggestion adds the suggestion at index using its storage-form token.
func (c *Controller) SelectSuggestion(index int) error {
	token, err := c.searcher.Select(index)
	if err != nil {
		return c.rejectInput("select", err)
	}
	return c.addToken("select", token)
}

// QuickSelect adds the common symptom at index. Already selected entries are
// a no-op that leaves no inline error.
func (c *Controller) QuickSelect(index int) error {
	if index < 0 || index >= len(models.CommonSymptoms) {
		return c.rejectInput("quick-select", symptomset.ErrIndexOutOfRange)
	}
	token := models.CommonSymptoms[index]

	c.mu.Lock()
	_, err := c.symptoms.AddToken(token)
	c.mu.Unlock()

	if errors.Is(err, symptomset.ErrDuplicate) {
		return err
	}
	if err != nil {
		return c.rejectInput("quick-select", err)
	}
	c.clearInputError()
	c.publish()
	return nil
}

func (c *Controller) addToken(operation, token string) error {
	c.mu.Lock()
	_, err := c.symptoms.AddToken(token)
	c.mu.Unlock()

	if err != nil {
		return c.rejectInput(operation, err)
	}
	c.clearInputError()
	c.publish()
	return nil
}

// Remove deletes the symptom at index.
func (c *Controller) Remove(index int) error {
	c.mu.Lock()
	_, err := c.symptoms.Remove(index)
	c.mu.Unlock()

	if err != nil {
		return c.rejectInput("remove", err)
	}
	c.clearInputError()
	c.publish()
	return nil
}

// ClearAll empties the symptom list and the inline error. Results stay visible.
func (c *Controller) ClearAll() {
	c.mu.Lock()
	c.symptoms.Clear()
	c.inputErr = nil
	c.mu.Unlock()
	c.publish()
}

// Reset clears symptoms, suggestions and the analysis result.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.symptoms.Clear()
	c.inputErr = nil
	c.mu.Unlock()

	c.searcher.Blur()
	c.orchestrator.Reset()
	c.logger.Info("Session reset", nil)
}

// SetProfile stores the optional age and gender sent with the next analysis.
func (c *Controller) SetProfile(profile models.Profile) error {
	if err := c.orchestrator.ValidateProfile(profile); err != nil {
		return c.rejectInput("profile", err)
	}
	c.mu.Lock()
	c.profile = profile
	c.inputErr = nil
	c.mu.Unlock()
	c.publish()
	return nil
}

// Analyze submits the current symptoms. An empty list is rejected with an
// inline error and no state change.
func (c *Controller) Analyze() error {
	c.mu.Lock()
	tokens := c.symptoms.Tokens()
	profile := c.profile
	c.mu.Unlock()

	if err := c.orchestrator.Analyze(tokens, profile); err != nil {
		return c.rejectInput("analyze", err)
	}
	c.clearInputError()
	return nil
}

func (c *Controller) Snapshot() Snapshot {
	ac := c.searcher.Snapshot()
	an := c.orchestrator.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		SessionID:   c.id,
		Symptoms:    c.symptoms.DisplayList(),
		Tokens:      c.symptoms.Tokens(),
		Suggestions: ac.Suggestions,
		Searching:   ac.Searching,
		QuickSelect: make([]QuickSelectItem, len(models.CommonSymptoms)),
		Profile:     c.profile,
		Analysis:    an,
	}
	if c.inputErr != nil {
		snap.InputError = c.inputErr.Message
	}
	for i, token := range models.CommonSymptoms {
		snap.QuickSelect[i] = QuickSelectItem{
			Token:    token,
			Label:    textnorm.ToDisplay(token),
			Selected: c.symptoms.Contains(token),
		}
	}
	return snap
}

// Subscribe returns a channel that receives the latest snapshot after each
// change. Slow readers only see the most recent snapshot. The returned func
// unsubscribes.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	ch := make(chan Snapshot, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			defer c.subsMu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

// Wait blocks until in-flight suggestion and analyze requests have settled.
func (c *Controller) Wait() {
	c.searcher.Wait()
	c.orchestrator.Wait()
}

func (c *Controller) Close() {
	c.searcher.Close()
	c.orchestrator.Close()

	c.subsMu.Lock()
	if !c.closed {
		c.closed = true
		for id, ch := range c.subs {
			close(ch)
			delete(c.subs, id)
		}
		metrics.ActiveSessions.Dec()
	}
	c.subsMu.Unlock()
	c.logger.Info("Session closed", nil)
}

func (c *Controller) rejectInput(operation string, err error) error {
	stdErr := c.errHandler.Handle(operation, err)
	c.mu.Lock()
	c.inputErr = stdErr
	c.mu.Unlock()
	c.publish()
	return err
}

func (c *Controller) clearInputError() {
	c.mu.Lock()
	c.inputErr = nil
	c.mu.Unlock()
}

func (c *Controller) publish() {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	snap := c.Snapshot()

	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// Replace the unread snapshot with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
