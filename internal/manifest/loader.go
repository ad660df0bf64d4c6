// Package manifest loads declarative suite definitions from YAML and
// compiles them into executable test declarations. Each manifest test is
// an HTTP check: a request, an expected status, and gjson-path
// assertions over the response body, optionally wrapped in an eventually
// block for state that settles asynchronously.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
)

var (
	ErrPathRequired = errors.New("manifest path is required")
	ErrNoTests      = errors.New("manifest declares no tests")
)

// Definition is the raw shape of a suite manifest.
type Definition struct {
	Suite    string
	BaseURL  string
	Defaults Defaults
	Tests    []TestDef
}

// Defaults apply to every test unless the test overrides them.
type Defaults struct {
	Headers    map[string]string
	Eventually *EventuallyDef
}

// TestDef declares one test.
type TestDef struct {
	Name            string
	Groups          []string
	DependsOn       []string
	RunsAfter       []string
	RunsAfterGroups []string
	AlwaysRun       bool
	Request         RequestDef
	Expect          ExpectDef
	Eventually      *EventuallyDef
}

// RequestDef is the HTTP request a test performs.
type RequestDef struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// ExpectDef is what the response must look like. A zero Status means 200.
type ExpectDef struct {
	Status int
	Assert []AssertDef
}

// AssertDef is a single gjson-path assertion over the response body.
type AssertDef struct {
	Path   string
	Equals string
	Exists bool
}

// EventuallyDef bounds the polling of a check.
type EventuallyDef struct {
	Attempts int
	Interval time.Duration
	Factor   float64
}

// Load reads and decodes a manifest file, merging defaults into each
// test. Decoding goes through an intermediate map so field names stay
// case-insensitive and durations parse from strings.
func Load(_ context.Context, path string) (*Definition, error) {
	if path == "" {
		return nil, ErrPathRequired
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var intermediate map[string]any
	if err := yaml.Unmarshal(raw, &intermediate); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	var def Definition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &def,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(intermediate); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	if len(def.Tests) == 0 {
		return nil, ErrNoTests
	}

	for i := range def.Tests {
		if err := applyDefaults(&def.Tests[i], def.Defaults); err != nil {
			return nil, err
		}
	}
	return &def, nil
}

func applyDefaults(t *TestDef, defaults Defaults) error {
	if len(defaults.Headers) > 0 {
		if t.Request.Headers == nil {
			t.Request.Headers = map[string]string{}
		}
		if err := mergo.Merge(&t.Request.Headers, defaults.Headers); err != nil {
			return fmt.Errorf("failed to merge default headers: %w", err)
		}
	}
	if t.Eventually == nil && defaults.Eventually != nil {
		ev := *defaults.Eventually
		t.Eventually = &ev
	}
	return nil
}
