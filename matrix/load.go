package matrix

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk matrix format:
//
//	scenarios:
//	  - name: Default TTL
//	    expect: {success: true}
//	  - name: Custom TTL 5m
//	    ttl: 5m
//	    expect: {lease_duration: 300}
//	  - name: Invalid TTL
//	    ttl: invalid
//	    expect: {rejected_containing: invalid ttl format}
type File struct {
	Scenarios []ScenarioSpec `yaml:"scenarios"`
}

// ScenarioSpec is one scenario entry in a matrix file.
type ScenarioSpec struct {
	Name   string     `yaml:"name"`
	TTL    string     `yaml:"ttl"`
	Expect ExpectSpec `yaml:"expect"`
}

// ExpectSpec must set exactly one field.
type ExpectSpec struct {
	Success            bool    `yaml:"success"`
	LeaseDuration      *int    `yaml:"lease_duration"`
	RejectedContaining *string `yaml:"rejected_containing"`
}

// LoadScenarios reads a matrix file. ${VAR} references are expanded from
// the environment before parsing, and unknown fields are rejected.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("matrix.LoadScenarios: read %s: %w", path, err)
	}
	scenarios, err := ParseScenarios(data)
	if err != nil {
		return nil, fmt.Errorf("matrix.LoadScenarios: %s: %w", path, err)
	}
	return scenarios, nil
}

// ParseScenarios parses and validates matrix YAML.
func ParseScenarios(data []byte) ([]Scenario, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no scenarios defined")
		}
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	scenarios := make([]Scenario, 0, len(f.Scenarios))
	for _, entry := range f.Scenarios {
		scenarios = append(scenarios, entry.scenario())
	}
	return scenarios, nil
}

// Validate checks names and expectations.
func (f *File) Validate() error {
	if len(f.Scenarios) == 0 {
		return errors.New("no scenarios defined")
	}

	seen := make(map[string]bool, len(f.Scenarios))
	for i, entry := range f.Scenarios {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return fmt.Errorf("scenarios[%d]: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("scenarios[%d]: duplicate name %q", i, name)
		}
		seen[name] = true

		if err := entry.Expect.Validate(); err != nil {
			return fmt.Errorf("scenarios[%d] (%s): %w", i, name, err)
		}
	}
	return nil
}

// Validate checks that exactly one expectation is set and is well formed.
func (e ExpectSpec) Validate() error {
	set := 0
	if e.Success {
		set++
	}
	if e.LeaseDuration != nil {
		set++
		if *e.LeaseDuration < 0 {
			return fmt.Errorf("expect.lease_duration must be non-negative, got %d", *e.LeaseDuration)
		}
	}
	if e.RejectedContaining != nil {
		set++
		if strings.TrimSpace(*e.RejectedContaining) == "" {
			return errors.New("expect.rejected_containing must not be empty")
		}
	}

	switch set {
	case 0:
		return errors.New("expect: one of success, lease_duration or rejected_containing is required")
	case 1:
		return nil
	default:
		return errors.New("expect: only one of success, lease_duration or rejected_containing may be set")
	}
}

func (s ScenarioSpec) scenario() Scenario {
	sc := Scenario{Name: strings.TrimSpace(s.Name), TTL: s.TTL}
	switch {
	case s.Expect.LeaseDuration != nil:
		sc.Expect = SuccessWithDuration(*s.Expect.LeaseDuration)
	case s.Expect.RejectedContaining != nil:
		sc.Expect = RejectedWithMessageContaining(*s.Expect.RejectedContaining)
	default:
		sc.Expect = AnySuccess()
	}
	return sc
}
