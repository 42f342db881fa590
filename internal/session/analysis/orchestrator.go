// Package analysis drives the analyze request lifecycle and classifies its predictions.
package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	commonerrors "symptom-checker/internal/common/errors"
	"symptom-checker/internal/common/logger"
	"symptom-checker/internal/common/metrics"
	"symptom-checker/internal/models"
	"symptom-checker/internal/session/graph"
	"symptom-checker/internal/session/supersede"
)

var (
	ErrNoSymptoms     = commonerrors.New(commonerrors.ErrCodeNoSymptoms, "Please add at least one symptom")
	ErrInvalidProfile = commonerrors.New(commonerrors.ErrCodeInvalidProfile, "Age must be between 1 and 120 and gender one of male, female or other")
)

// Analyzer is the remote analyze collaborator.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalyzeResponse, error)
}

type Orchestrator struct {
	config    *Config
	analyzer  Analyzer
	projector *graph.Projector
	validate  *validator.Validate
	logger    logger.Logger

	slot supersede.Slot[State]

	mu       sync.Mutex
	listener func(State)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOrchestrator(cfg *Config, analyzer Analyzer, log logger.Logger) *Orchestrator {
	if cfg == nil {
		cfg = &Config{}
	}
	log = logger.OrNop(log).With(map[string]interface{}{"component": "analysis"})
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		config:    cfg,
		analyzer:  analyzer,
		projector: graph.NewProjector(log),
		validate:  validator.New(),
		logger:    log,
		ctx:       ctx,
		cancel:    cancel,
	}
	o.slot.Update(func(st *State) { st.Phase = PhaseIdle })
	return o
}

func (o *Orchestrator) SetListener(fn func(State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listener = fn
}

// ValidateProfile checks the optional age and gender.
func (o *Orchestrator) ValidateProfile(profile models.Profile) error {
	if err := o.validate.Struct(profile); err != nil {
		return ErrInvalidProfile.WithDetails(err.Error())
	}
	return nil
}

// Analyze starts a request for tokens and moves to Loading. Any request still
// in flight is superseded: its response will be discarded. An empty token
// list or invalid profile is rejected without a state change.
func (o *Orchestrator) Analyze(tokens []string, profile models.Profile) error {
	if len(tokens) == 0 {
		metrics.AnalyzeRequests.WithLabelValues(metrics.OutcomeRejected).Inc()
		o.logger.Info("Analyze rejected", map[string]interface{}{"errorCode": string(ErrNoSymptoms.Code)})
		return ErrNoSymptoms
	}
	if err := o.ValidateProfile(profile); err != nil {
		metrics.AnalyzeRequests.WithLabelValues(metrics.OutcomeRejected).Inc()
		o.logger.Info("Analyze rejected", map[string]interface{}{"errorCode": string(ErrInvalidProfile.Code), "error": err.Error()})
		return err
	}

	req := models.NewAnalyzeRequest(tokens, profile)
	gen := o.slot.Issue(func(st *State) {
		st.Phase = PhaseLoading
		st.Symptoms = append([]string(nil), tokens...)
		st.Profile = profile
		st.Result = nil
	})
	metrics.AnalyzeRequests.WithLabelValues(metrics.OutcomeStarted).Inc()
	o.logger.Info("Analyze started", map[string]interface{}{
		"generation": gen,
		"symptoms":   len(tokens),
	})
	o.notify()

	o.wg.Add(1)
	go o.run(gen, req)
	return nil
}

// Reset returns to Idle and discards any in-flight response.
func (o *Orchestrator) Reset() {
	o.slot.Issue(func(st *State) {
		*st = State{Phase: PhaseIdle}
	})
	o.notify()
}

func (o *Orchestrator) Snapshot() State {
	return copyState(o.slot.Load())
}

// Wait blocks until every in-flight request has settled.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

func (o *Orchestrator) run(gen uint64, req models.AnalyzeRequest) {
	defer o.wg.Done()

	ctx := o.ctx
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := o.analyzer.Analyze(ctx, req)

	var result *Result
	phase := PhaseSuccess
	outcome := metrics.OutcomeSuccess
	if err != nil {
		result = o.failureResult(err)
		phase = PhaseFailure
		outcome = metrics.OutcomeFailure
	} else {
		result = o.successResult(resp)
	}

	applied := o.slot.Apply(gen, func(st *State) {
		st.Phase = phase
		st.Result = result
	})
	if !applied {
		metrics.AnalyzeRequests.WithLabelValues(metrics.OutcomeStale).Inc()
		o.logger.Debug("Discarding stale analyze response", map[string]interface{}{
			"generation": gen,
			"latest":     o.slot.Latest(),
			"errorCode":  string(commonerrors.ErrCodeStaleResponseDiscarded),
		})
		return
	}

	metrics.AnalyzeRequests.WithLabelValues(outcome).Inc()
	metrics.AnalyzeDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		o.logger.Warn("Analyze request failed", map[string]interface{}{
			"generation": gen,
			"error":      err.Error(),
		})
	} else {
		o.logger.Info("Analyze completed", map[string]interface{}{
			"generation":  gen,
			"predictions": len(result.Predictions),
			"emergency":   result.EmergencyWarning != nil,
		})
	}
	o.notify()
}

func (o *Orchestrator) successResult(resp *models.AnalyzeResponse) *Result {
	payload := resp.GraphData
	if payload == nil {
		payload = &models.GraphPayload{}
	}
	return &Result{
		Predictions:      ClassifyAll(resp.Predictions),
		EmergencyWarning: resp.EmergencyWarning,
		Disclaimer:       resp.Disclaimer,
		Payload:          payload,
		Graph:            o.projector.Project(payload),
	}
}

func (o *Orchestrator) failureResult(err error) *Result {
	stdErr := commonerrors.NewAnalyzeTransportError(err)
	advisory := stdErr.Message
	payload := &models.GraphPayload{Nodes: []models.GraphNode{}, Links: []models.GraphLink{}}
	return &Result{
		Predictions:      []ClassifiedPrediction{},
		EmergencyWarning: &advisory,
		Payload:          payload,
		Graph:            graph.Project(payload),
		Failed:           true,
		Err:              stdErr,
	}
}

func (o *Orchestrator) notify() {
	o.mu.Lock()
	fn := o.listener
	o.mu.Unlock()
	if fn != nil {
		fn(o.Snapshot())
	}
}

func copyState(st State) State {
	st.Symptoms = append([]string(nil), st.Symptoms...)
	return st
}
