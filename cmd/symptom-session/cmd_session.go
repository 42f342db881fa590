package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	commonerrors "symptom-checker/internal/common/errors"
	"symptom-checker/internal/models"
	"symptom-checker/internal/session"
	"symptom-checker/internal/session/analysis"
	"symptom-checker/internal/session/symptomset"
)

const sessionHelp = `Commands:
  type <text>      update the input box and fetch suggestions
  pick <n>         add suggestion n
  add <text>       add typed text as a symptom
  quick [n]        list common symptoms, or add common symptom n
  rm <n>           remove symptom n
  clear            remove all symptoms
  age <n|->        set or clear the patient age
  gender <g|->     set or clear the patient gender (male, female, other)
  analyze          analyze the selected symptoms
  show             print the session
  reset            start over
  help             show this help
  quit             leave the session
`

var errQuit = errors.New("quit")

func runSessionCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), configPath, logLevel)
	if err != nil {
		return err
	}
	defer a.Close()

	a.checkHealth(cmd.Context())

	ctrl := a.newSession()
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out := newConsole(os.Stdout)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.serveMetrics(gctx)
	})
	g.Go(func() error {
		watchSession(gctx, ctrl, out)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return runREPL(gctx, os.Stdin, out, ctrl)
	})
	return g.Wait()
}

// watchSession prints suggestion and analysis updates as they arrive.
func watchSession(ctx context.Context, ctrl *session.Controller, out *console) {
	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	var lastSuggestions []string
	lastPhase := analysis.PhaseIdle
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if len(snap.Suggestions) > 0 && !slices.Equal(snap.Suggestions, lastSuggestions) {
				out.Render(func(w io.Writer) { renderSuggestions(w, snap.Suggestions) })
			}
			lastSuggestions = snap.Suggestions

			phase := snap.Analysis.Phase
			if phase != lastPhase {
				if label := phaseLabel(phase); label != "" {
					out.Printf("%s\n", label)
				}
				if phase == analysis.PhaseSuccess || phase == analysis.PhaseFailure {
					out.Render(func(w io.Writer) { renderResult(w, snap.Analysis.Result) })
				}
				lastPhase = phase
			}
		}
	}
}

// runREPL reads commands from in until quit, EOF or ctx is done.
func runREPL(ctx context.Context, in io.Reader, out *console, ctrl *session.Controller) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	out.Printf("Symptom session %s. Type 'help' for commands.\n", ctrl.ID())
	for {
		out.Printf("> ")
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			if err := dispatch(line, out, ctrl); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
		}
	}
}

// dispatch runs one command line. Input errors are shown inline; only quit
// ends the loop.
func dispatch(line string, out *console, ctrl *session.Controller) error {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch strings.ToLower(verb) {
	case "":
		return nil
	case "type":
		ctrl.Input(arg)
		return nil
	case "pick":
		err = withIndex(arg, ctrl.SelectSuggestion)
	case "add":
		err = ctrl.Submit(arg)
	case "quick":
		if arg == "" {
			out.Render(func(w io.Writer) { renderQuickSelect(w, ctrl.Snapshot().QuickSelect) })
			return nil
		}
		err = withIndex(arg, ctrl.QuickSelect)
		if isDuplicate(err) {
			err = nil
		}
	case "rm", "remove":
		err = withIndex(arg, ctrl.Remove)
	case "clear":
		ctrl.ClearAll()
	case "age":
		err = setAge(ctrl, arg)
	case "gender":
		err = setGender(ctrl, arg)
	case "analyze":
		ctrl.Blur()
		err = ctrl.Analyze()
	case "show":
		snap := ctrl.Snapshot()
		out.Render(func(w io.Writer) {
			renderSymptoms(w, snap)
			if snap.Analysis.Result != nil {
				renderResult(w, snap.Analysis.Result)
			}
		})
		return nil
	case "reset":
		ctrl.Reset()
	case "help", "?":
		out.Printf("%s", sessionHelp)
		return nil
	case "quit", "exit":
		return errQuit
	default:
		out.Printf("Unknown command %q. Type 'help' for commands.\n", verb)
		return nil
	}

	snap := ctrl.Snapshot()
	out.Render(func(w io.Writer) { renderSymptoms(w, snap) })
	if err != nil && snap.InputError == "" {
		msg := err.Error()
		if stdErr, ok := commonerrors.As(err); ok {
			msg = stdErr.Message
		}
		out.Printf("! %s\n", msg)
	}
	return nil
}

// withIndex converts a 1-based index argument for fn. Unparseable input is
// passed as an out-of-range index.
func withIndex(arg string, fn func(int) error) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fn(-1)
	}
	return fn(n - 1)
}

func setAge(ctrl *session.Controller, arg string) error {
	profile := ctrl.Snapshot().Profile
	if arg == "-" || arg == "" {
		profile.Age = nil
		return ctrl.SetProfile(profile)
	}
	// Unparseable ages fall out of range and are rejected by the controller.
	age, _ := strconv.Atoi(arg)
	profile.Age = &age
	return ctrl.SetProfile(profile)
}

func setGender(ctrl *session.Controller, arg string) error {
	profile := ctrl.Snapshot().Profile
	if arg == "-" {
		arg = ""
	}
	profile.Gender = models.Gender(strings.ToLower(arg))
	return ctrl.SetProfile(profile)
}

func isDuplicate(err error) bool {
	return errors.Is(err, symptomset.ErrDuplicate)
}
