package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"symptom-checker/internal/models"
	"symptom-checker/internal/session/analysis"
	"symptom-checker/internal/session/textnorm"
)

type predictionView struct {
	Disease          string   `json:"disease"`
	Confidence       float64  `json:"confidence"`
	Tier             string   `json:"tier"`
	MatchingSymptoms []string `json:"matching_symptoms"`
	TotalSymptoms    int      `json:"total_symptoms"`
	Emergency        bool     `json:"emergency"`
	Advisory         string   `json:"advisory,omitempty"`
}

type resultView struct {
	Symptoms         []string             `json:"symptoms"`
	Failed           bool                 `json:"failed"`
	Predictions      []predictionView     `json:"predictions"`
	EmergencyWarning *string              `json:"emergency_warning"`
	Disclaimer       string               `json:"disclaimer,omitempty"`
	Graph            *models.GraphPayload `json:"graph_data,omitempty"`
}

func newResultView(symptoms []string, res *analysis.Result) resultView {
	v := resultView{
		Symptoms:         symptoms,
		Failed:           res.Failed,
		Predictions:      make([]predictionView, 0, len(res.Predictions)),
		EmergencyWarning: res.EmergencyWarning,
		Disclaimer:       res.Disclaimer,
		Graph:            res.Payload,
	}
	for _, p := range res.Predictions {
		v.Predictions = append(v.Predictions, predictionView{
			Disease:          p.Disease,
			Confidence:       p.Confidence,
			Tier:             string(p.Tier),
			MatchingSymptoms: p.MatchingSymptoms,
			TotalSymptoms:    p.TotalSymptoms,
			Emergency:        p.Emergency,
			Advisory:         p.Advisory,
		})
	}
	return v
}

func profileFromFlags() models.Profile {
	var p models.Profile
	if userAge != 0 {
		age := userAge
		p.Age = &age
	}
	p.Gender = models.Gender(strings.ToLower(strings.TrimSpace(userGender)))
	return p
}

func runAnalyzeCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), configPath, logLevel)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl := a.newSession()
	defer ctrl.Close()

	for _, raw := range args {
		// Duplicates collapse to one token, the rest must be valid.
		if err := ctrl.Submit(raw); err != nil && !isDuplicate(err) {
			return fmt.Errorf("symptom %q: %w", raw, err)
		}
	}
	if err := ctrl.SetProfile(profileFromFlags()); err != nil {
		return err
	}
	if err := ctrl.Analyze(); err != nil {
		return err
	}
	ctrl.Wait()

	snap := ctrl.Snapshot()
	res := snap.Analysis.Result
	if jsonOutput {
		return writeJSON(os.Stdout, newResultView(snap.Tokens, res))
	}

	fmt.Fprintf(os.Stdout, "Symptoms: %s\n", strings.Join(snap.Symptoms, ", "))
	renderResult(os.Stdout, res)
	if res != nil && res.Failed {
		return res.Err
	}
	return nil
}

func runSuggestCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), configPath, logLevel)
	if err != nil {
		return err
	}
	defer a.Close()

	query := textnorm.Normalize(args[0])
	suggestions, err := a.source.Autocomplete(cmd.Context(), query)
	if err != nil {
		return err
	}
	for _, s := range suggestions {
		fmt.Fprintln(os.Stdout, textnorm.ToDisplay(s))
	}
	return nil
}

func runDoctorsCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), configPath, logLevel)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.client.RecommendDoctors(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(os.Stdout, resp)
	}
	fmt.Fprintf(os.Stdout, "Recommended doctors for %s:\n\n", args[0])
	renderDoctors(os.Stdout, resp)
	return nil
}

func runHealthCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), configPath, logLevel)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.client.Health(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		if err := writeJSON(os.Stdout, status); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(os.Stdout, "api: %s\ngraph store: %s\nchecked: %s\n", status.API, status.Neo4j, status.Timestamp)
	}
	if !status.Healthy() {
		return fmt.Errorf("inference service is degraded")
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
