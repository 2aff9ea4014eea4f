package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/exfury/gridiron-core/core"
	"github.com/exfury/gridiron-core/core/genesis"
	"github.com/exfury/gridiron-core/core/types"
	"github.com/exfury/gridiron-core/storage"
)

// Scenario is a scripted sequence of messages and queries replayed against a
// fresh in-memory ledger.
type Scenario struct {
	// Genesis is resolved relative to the scenario file.
	Genesis string `yaml:"genesis"`
	Steps   []Step `yaml:"steps"`
}

// Step either executes Msg under Block or runs Query. Expect compares the
// query answer as JSON. ExpectError asserts that the message is rejected with
// an error containing the given text.
type Step struct {
	Name        string                 `yaml:"name"`
	Block       core.BlockContext      `yaml:"block"`
	Msg         map[string]interface{} `yaml:"msg"`
	Query       string                 `yaml:"query"`
	Expect      interface{}            `yaml:"expect"`
	ExpectError string                 `yaml:"expectError"`
}

// LoadScenario decodes the YAML scenario at path.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %q: %w", path, err)
	}
	var scenario Scenario
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("decode scenario %q: %w", path, err)
	}
	if scenario.Genesis != "" && !filepath.IsAbs(scenario.Genesis) {
		scenario.Genesis = filepath.Join(filepath.Dir(path), scenario.Genesis)
	}
	return &scenario, nil
}

// Run replays the scenario and writes one line per step to out. It stops at
// the first step whose outcome differs from the expectation.
func (s *Scenario) Run(ctx context.Context, out io.Writer) error {
	spec, err := genesis.LoadGenesisSpec(s.Genesis)
	if err != nil {
		return err
	}
	db := storage.NewMemDB()
	defer db.Close()
	result, err := genesis.Build(spec, db)
	if err != nil {
		return fmt.Errorf("build genesis: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	app, err := core.NewApplication(db, types.Head{Timestamp: result.Time, StateRoot: result.Root}, core.Options{Logger: logger})
	if err != nil {
		return err
	}
	for i, step := range s.Steps {
		label := step.Name
		if label == "" {
			label = fmt.Sprintf("step %d", i+1)
		}
		line, err := s.runStep(ctx, app, step)
		if err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		fmt.Fprintf(out, "ok   %-28s %s\n", label, line)
	}
	return nil
}

func (s *Scenario) runStep(ctx context.Context, app *core.Application, step Step) (string, error) {
	switch {
	case step.Msg != nil && step.Query != "":
		return "", fmt.Errorf("step must set either msg or query")
	case step.Msg != nil:
		raw, err := json.Marshal(step.Msg)
		if err != nil {
			return "", err
		}
		msg, err := core.DecodeMsg(raw)
		if err != nil {
			return "", err
		}
		res, err := app.Execute(ctx, step.Block, msg)
		if step.ExpectError != "" {
			if err == nil {
				return "", fmt.Errorf("expected error containing %q", step.ExpectError)
			}
			if !strings.Contains(err.Error(), step.ExpectError) {
				return "", fmt.Errorf("expected error containing %q, got %v", step.ExpectError, err)
			}
			return fmt.Sprintf("%s rejected: %v", msg.Type, err), nil
		}
		if err != nil {
			return "", err
		}
		summary := fmt.Sprintf("%s height=%d events=%d", msg.Type, res.Head.Height, len(res.Events))
		if res.Amount != "" {
			summary += " amount=" + res.Amount
		}
		return summary, nil
	case step.Query != "":
		namespace, path, _ := strings.Cut(strings.Trim(step.Query, "/"), "/")
		res, err := app.QueryState(namespace, path)
		if err != nil {
			return "", err
		}
		if step.Expect != nil {
			if err := compareJSON(res.Value, step.Expect); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("%s => %s", step.Query, string(res.Value)), nil
	default:
		return "", fmt.Errorf("step must set msg or query")
	}
}

func compareJSON(actual []byte, expected interface{}) error {
	want, err := json.Marshal(expected)
	if err != nil {
		return err
	}
	decode := func(raw []byte) (interface{}, error) {
		var v interface{}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		return v, dec.Decode(&v)
	}
	got, err := decode(actual)
	if err != nil {
		return err
	}
	exp, err := decode(want)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(got, exp) {
		return fmt.Errorf("unexpected result %s, want %s", actual, want)
	}
	return nil
}
