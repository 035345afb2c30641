package expectation

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Configuration is one expectation of a suite.
type Configuration struct {
	ExpectationType string         `json:"expectation_type" yaml:"expectation_type"`
	Kwargs          map[string]any `json:"kwargs" yaml:"kwargs"`
	Meta            map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Column returns the "column" kwarg, or "".
func (c Configuration) Column() string {
	s, _ := c.Kwargs["column"].(string)
	return s
}

// Suite is a named, ordered collection of expectations.
type Suite struct {
	Name         string          `json:"expectation_suite_name" yaml:"expectation_suite_name"`
	Expectations []Configuration `json:"expectations" yaml:"expectations"`
	Meta         map[string]any  `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// NewSuite returns an empty suite.
func NewSuite(name string) *Suite {
	return &Suite{Name: name, Expectations: []Configuration{}}
}

// Add appends an expectation.
func (s *Suite) Add(expectationType string, kwargs map[string]any) {
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	s.Expectations = append(s.Expectations, Configuration{ExpectationType: expectationType, Kwargs: kwargs})
}

// ParseSuite decodes a suite from YAML or JSON. Unknown fields are
// rejected.
func ParseSuite(data []byte) (*Suite, error) {
	var s Suite
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse expectation suite: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Expectations == nil {
		s.Expectations = []Configuration{}
	}
	return &s, nil
}

// Validate checks that the suite is named and every expectation has a
// type. Unknown types are accepted here and fail at validation time.
func (s *Suite) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("expectation suite: expectation_suite_name is required")
	}
	for i, e := range s.Expectations {
		if e.ExpectationType == "" {
			return fmt.Errorf("expectation suite %q: expectations[%d]: expectation_type is required", s.Name, i)
		}
	}
	return nil
}
