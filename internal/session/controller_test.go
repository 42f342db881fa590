package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonhttp "symptom-checker/internal/common/http"
	"symptom-checker/internal/common/inference"
	"symptom-checker/internal/common/logger"
	"symptom-checker/internal/models"
	"symptom-checker/internal/session/analysis"
	"symptom-checker/internal/session/autocomplete"
	"symptom-checker/internal/session/symptomset"
)

type staticSource struct {
	mu      sync.Mutex
	queries []string
	byQuery map[string][]string
}

func (s *staticSource) Autocomplete(ctx context.Context, query string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return s.byQuery[query], nil
}

type stubAnalyzer struct {
	mu   sync.Mutex
	reqs []models.AnalyzeRequest
	resp *models.AnalyzeResponse
	err  error
}

func (a *stubAnalyzer) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reqs = append(a.reqs, req)
	return a.resp, a.err
}

func testConfig() *Config {
	return &Config{
		Autocomplete: &autocomplete.Config{QuietPeriod: 10 * time.Millisecond, MinLength: 2},
		Analysis:     analysis.LoadConfig(time.Second),
	}
}

func newTestController(t *testing.T, source autocomplete.Source, analyzer analysis.Analyzer) *Controller {
	t.Helper()
	c := New(testConfig(), source, analyzer, logger.NewTestLogger(t))
	t.Cleanup(c.Close)
	return c
}

func TestController_SubmitNormalizes(t *testing.T) {
	c := newTestController(t, &staticSource{}, &stubAnalyzer{})

	require.NoError(t, c.Submit("  Chest   Pain "))
	snap := c.Snapshot()
	assert.Equal(t, []string{"chest_pain"}, snap.Tokens)
	assert.Equal(t, []string{"chest pain"}, snap.Symptoms)
	assert.Empty(t, snap.InputError)
	assert.NotEmpty(t, snap.SessionID)
	assert.Equal(t, c.ID(), snap.SessionID)
}

func TestController_InputErrors(t *testing.T) {
	c := newTestController(t, &staticSource{}, &stubAnalyzer{})

	err := c.Submit("   ")
	assert.True(t, errors.Is(err, symptomset.ErrEmptyInput))
	assert.Equal(t, "Please enter a symptom", c.Snapshot().InputError)

	require.NoError(t, c.Submit("fever"))
	err = c.Submit("FEVER")
	assert.True(t, errors.Is(err, symptomset.ErrDuplicate))
	assert.Equal(t, "Symptom already added", c.Snapshot().InputError)
	assert.Len(t, c.Snapshot().Tokens, 1)

	c.Input("c")
	assert.Empty(t, c.Snapshot().InputError, "typing clears the inline error")
}

func TestController_QuickSelect(t *testing.T) {
	c := newTestController(t, &staticSource{}, &stubAnalyzer{})

	require.NoError(t, c.QuickSelect(5))
	snap := c.Snapshot()
	assert.Equal(t, []string{"chest_pain"}, snap.Tokens)
	require.Len(t, snap.QuickSelect, len(models.CommonSymptoms))
	assert.Equal(t, "chest pain", snap.QuickSelect[5].Label)
	assert.True(t, snap.QuickSelect[5].Selected)
	assert.False(t, snap.QuickSelect[0].Selected)

	err := c.QuickSelect(5)
	assert.True(t, errors.Is(err, symptomset.ErrDuplicate))
	assert.Empty(t, c.Snapshot().InputError, "selected entries are inert")

	err = c.QuickSelect(len(models.CommonSymptoms))
	assert.True(t, errors.Is(err, symptomset.ErrIndexOutOfRange))
}

func TestController_Remove(t *testing.T) {
	c := newTestController(t, &staticSource{}, &stubAnalyzer{})
	require.NoError(t, c.Submit("fever"))
	require.NoError(t, c.Submit("cough"))
	require.NoError(t, c.Submit("headache"))

	require.NoError(t, c.Remove(1))
	assert.Equal(t, []string{"fever", "headache"}, c.Snapshot().Tokens)

	err := c.Remove(2)
	assert.True(t, errors.Is(err, symptomset.ErrIndexOutOfRange))
	assert.Equal(t, []string{"fever", "headache"}, c.Snapshot().Tokens)
}

func TestController_AnalyzeWithoutSymptoms(t *testing.T) {
	a := &stubAnalyzer{}
	c := newTestController(t, &staticSource{}, a)

	err := c.Analyze()
	assert.True(t, errors.Is(err, analysis.ErrNoSymptoms))

	snap := c.Snapshot()
	assert.Equal(t, "Please add at least one symptom", snap.InputError)
	assert.Equal(t, analysis.PhaseIdle, snap.Analysis.Phase)
	assert.Empty(t, a.reqs)
}

func TestController_AnalyzeSendsProfile(t *testing.T) {
	a := &stubAnalyzer{resp: &models.AnalyzeResponse{Predictions: []models.Prediction{}}}
	c := newTestController(t, &staticSource{}, a)

	age := 30
	require.NoError(t, c.SetProfile(models.Profile{Age: &age, Gender: models.GenderMale}))
	require.NoError(t, c.Submit("fever"))
	require.NoError(t, c.Analyze())
	c.Wait()

	require.Len(t, a.reqs, 1)
	assert.Equal(t, []string{"fever"}, a.reqs[0].Symptoms)
	require.NotNil(t, a.reqs[0].UserAge)
	assert.Equal(t, 30, *a.reqs[0].UserAge)
	assert.True(t, c.Snapshot().Analysis.Result.NoMatches())
}

func TestController_InvalidProfile(t *testing.T) {
	c := newTestController(t, &staticSource{}, &stubAnalyzer{})

	age := 200
	err := c.SetProfile(models.Profile{Age: &age})
	assert.True(t, errors.Is(err, analysis.ErrInvalidProfile))
	assert.NotEmpty(t, c.Snapshot().InputError)
	assert.True(t, c.Snapshot().Profile.IsZero())
}

func TestController_ClearAllKeepsResult(t *testing.T) {
	a := &stubAnalyzer{resp: &models.AnalyzeResponse{
		Predictions: []models.Prediction{{Disease: "Flu", Confidence: 80}},
	}}
	c := newTestController(t, &staticSource{}, a)

	require.NoError(t, c.Submit("fever"))
	require.NoError(t, c.Analyze())
	c.Wait()

	c.ClearAll()
	snap := c.Snapshot()
	assert.Empty(t, snap.Tokens)
	assert.Equal(t, analysis.PhaseSuccess, snap.Analysis.Phase)

	c.Reset()
	snap = c.Snapshot()
	assert.Equal(t, analysis.PhaseIdle, snap.Analysis.Phase)
	assert.Nil(t, snap.Analysis.Result)
}

func TestController_SuggestionFlow(t *testing.T) {
	src := &staticSource{byQuery: map[string][]string{
		"chest_p": {"chest_pain", "chest_pressure"},
	}}
	c := newTestController(t, src, &stubAnalyzer{})

	c.Input("Chest P")
	require.Eventually(t, func() bool {
		return len(c.Snapshot().Suggestions) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"chest pain", "chest pressure"}, c.Snapshot().Suggestions)

	require.NoError(t, c.SelectSuggestion(1))
	snap := c.Snapshot()
	assert.Equal(t, []string{"chest_pressure"}, snap.Tokens)
	assert.Empty(t, snap.Suggestions)

	assert.Error(t, c.SelectSuggestion(0))
}

func TestController_ShortInputIssuesNoQuery(t *testing.T) {
	src := &staticSource{}
	c := newTestController(t, src, &stubAnalyzer{})

	c.Input("c")
	time.Sleep(50 * time.Millisecond)
	c.Wait()

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Empty(t, src.queries)
}

func TestController_Subscribe(t *testing.T) {
	c := newTestController(t, &staticSource{}, &stubAnalyzer{})
	updates, cancel := c.Subscribe()
	defer cancel()

	require.NoError(t, c.Submit("fever"))
	select {
	case snap := <-updates:
		assert.Equal(t, []string{"fever"}, snap.Tokens)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}

	cancel()
	for range updates {
	}
}

// heldSource answers every query once release is closed.
type heldSource struct {
	started chan struct{}
	release chan struct{}
}

func newHeldSource() *heldSource {
	return &heldSource{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (s *heldSource) Autocomplete(ctx context.Context, query string) ([]string, error) {
	select {
	case s.started <- struct{}{}:
	default:
	}
	select {
	case <-s.release:
		return []string{"fever", "fatigue"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func latestSnapshot(t *testing.T, updates <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-updates:
		return snap
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
		return Snapshot{}
	}
}

func TestController_SubscriberEndsOnCurrentSnapshot(t *testing.T) {
	for i := 0; i < 50; i++ {
		src := newHeldSource()
		c := newTestController(t, src, &stubAnalyzer{})
		updates, cancel := c.Subscribe()

		c.Input("fe")
		select {
		case <-src.started:
		case <-time.After(time.Second):
			t.Fatal("query not issued")
		}

		// The response lands concurrently with the blur that clears it.
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			close(src.release)
		}()
		c.Blur()
		wg.Wait()
		c.Wait()

		assert.Equal(t, c.Snapshot(), latestSnapshot(t, updates), "iteration %d", i)
		cancel()
	}
}

func TestController_CloseEndsSubscriptions(t *testing.T) {
	c := New(testConfig(), &staticSource{}, &stubAnalyzer{}, nil)
	updates, _ := c.Subscribe()
	c.Close()

	for range updates {
	}
	late, _ := c.Subscribe()
	_, open := <-late
	assert.False(t, open)
}

func TestController_EndToEnd(t *testing.T) {
	var confidence float64 = 85
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/symptoms/autocomplete":
			prefix := r.URL.Query().Get("q")
			out := []string{}
			for _, s := range models.CommonSymptoms {
				if strings.HasPrefix(s, prefix) {
					out = append(out, s)
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"suggestions": out})
		case "/analyze":
			var req models.AnalyzeRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			mu.Lock()
			conf := confidence
			mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"predictions": []map[string]interface{}{{
					"disease":           "Influenza",
					"confidence":        conf,
					"matching_symptoms": req.Symptoms,
					"total_symptoms":    4,
					"emergency":         false,
				}},
				"graph_data": map[string]interface{}{
					"nodes": []map[string]interface{}{
						{"id": "disease_1", "label": "Influenza", "type": "disease"},
						{"id": "symptom_1", "label": "fever", "type": "symptom", "is_input": true},
						{"id": "symptom_2", "label": "cough", "type": "symptom", "is_input": true},
					},
					"links": []map[string]interface{}{
						{"source": "disease_1", "target": "symptom_1", "relationship": "HAS_SYMPTOM"},
						{"source": "disease_1", "target": "symptom_2", "relationship": "HAS_SYMPTOM"},
						{"source": "disease_1", "target": "symptom_9", "relationship": "HAS_SYMPTOM"},
					},
				},
				"emergency_warning": nil,
				"disclaimer":        "This is not medical advice.",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := inference.NewClient(&inference.Config{
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
		Breaker: commonhttp.DefaultBreakerSettings("e2e"),
	}, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	c := newTestController(t, client, client)

	c.Input("fev")
	require.Eventually(t, func() bool {
		return len(c.Snapshot().Suggestions) == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.SelectSuggestion(0))
	require.NoError(t, c.QuickSelect(1))

	require.NoError(t, c.Analyze())
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, []string{"fever", "cough"}, snap.Tokens)
	require.Equal(t, analysis.PhaseSuccess, snap.Analysis.Phase)
	result := snap.Analysis.Result
	require.Len(t, result.Predictions, 1)
	assert.Equal(t, analysis.TierHigh, result.Predictions[0].Tier)
	assert.False(t, result.Predictions[0].LowConfidence)
	assert.Len(t, result.Graph.Nodes, 3)
	assert.Len(t, result.Graph.Links, 2)
	assert.Equal(t, 1, result.Graph.DroppedLinks)

	mu.Lock()
	confidence = 25
	mu.Unlock()

	require.NoError(t, c.Analyze())
	c.Wait()

	result = c.Snapshot().Analysis.Result
	require.Len(t, result.Predictions, 1)
	assert.Equal(t, analysis.TierLow, result.Predictions[0].Tier)
	assert.True(t, result.Predictions[0].LowConfidence)
	assert.Equal(t, analysis.LowConfidenceAdvisory, result.Predictions[0].Advisory)
}

func TestController_EndToEndTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := inference.NewClient(&inference.Config{
		BaseURL: url,
		Timeout: time.Second,
		Breaker: commonhttp.DefaultBreakerSettings("e2e-down"),
	}, nil, nil)
	require.NoError(t, err)

	c := newTestController(t, client, client)
	require.NoError(t, c.Submit("fever"))
	require.NoError(t, c.Analyze())
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, analysis.PhaseFailure, snap.Analysis.Phase)
	require.NotNil(t, snap.Analysis.Result.EmergencyWarning)
	assert.True(t, snap.Analysis.Result.Failed)
	assert.Equal(t, []string{"fever"}, snap.Tokens, "symptoms survive a failed analysis")
}
