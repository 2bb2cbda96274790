package harness

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CaseKind selects which checks a case runs.
type CaseKind string

const (
	// KindMatch expects a 200 with ExpectedCount films all starting with StartsWith.
	KindMatch CaseKind = "match"
	// KindEmpty expects a 200 with no films.
	KindEmpty CaseKind = "empty"
	// KindInvalid expects ExpectedStatus (400 unless set) and nothing else.
	KindInvalid CaseKind = "invalid"
	// KindPerformance expects a match lookup to finish within Threshold.
	KindPerformance CaseKind = "performance"
)

// Case is one named lookup scenario.
type Case struct {
	Name           string        `yaml:"name" json:"name"`
	Kind           CaseKind      `yaml:"kind" json:"kind"`
	StartsWith     string        `yaml:"startsWith" json:"startsWith"`
	ExpectedCount  int           `yaml:"expectedCount" json:"expectedCount"`
	ExpectedStatus int           `yaml:"expectedStatus,omitempty" json:"expectedStatus,omitempty"`
	Threshold      time.Duration `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// Query returns the lookup parameters of the case.
func (c Case) Query() QueryParams {
	return NewQueryParams(c.StartsWith, c.ExpectedCount, c.Name)
}

// Validate fills defaults and rejects cases that cannot be run.
func (c *Case) Validate() error {
	if c.Name == "" {
		return errors.New("case name is required")
	}

	switch c.Kind {
	case KindMatch, KindEmpty:
	case KindInvalid:
		if c.ExpectedStatus == 0 {
			c.ExpectedStatus = http.StatusBadRequest
		}
	case KindPerformance:
		if c.Threshold == 0 {
			c.Threshold = PerformanceThreshold
		}
		if c.Threshold < 0 {
			return fmt.Errorf("case %q: threshold must be positive", c.Name)
		}
	default:
		return fmt.Errorf("case %q: unknown kind %q", c.Name, c.Kind)
	}

	if c.ExpectedCount < 0 {
		return fmt.Errorf("case %q: expectedCount must not be negative", c.Name)
	}
	if c.Kind == KindEmpty && c.ExpectedCount != 0 {
		return fmt.Errorf("case %q: empty case cannot expect %d films", c.Name, c.ExpectedCount)
	}

	return nil
}

type caseFile struct {
	Cases []Case `yaml:"cases"`
}

// LoadCases reads a YAML file of the form
//
//	cases:
//	  - name: films starting with A
//	    kind: match
//	    startsWith: A
//	    expectedCount: 46
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases: %w", err)
	}
	return ParseCases(data)
}

// ParseCases decodes and validates YAML case definitions.
func ParseCases(data []byte) ([]Case, error) {
	var file caseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse cases: %w", err)
	}

	if len(file.Cases) == 0 {
		return nil, errors.New("no cases defined")
	}

	names := make(map[string]struct{}, len(file.Cases))
	for i := range file.Cases {
		if err := file.Cases[i].Validate(); err != nil {
			return nil, err
		}
		if _, dup := names[file.Cases[i].Name]; dup {
			return nil, fmt.Errorf("duplicate case name %q", file.Cases[i].Name)
		}
		names[file.Cases[i].Name] = struct{}{}
	}

	return file.Cases, nil
}

// DefaultCases covers the seeded catalog: a matching letter, a letter with
// no titles, malformed filters and the latency bound.
func DefaultCases() []Case {
	return []Case{
		{Name: "films starting with A", Kind: KindMatch, StartsWith: "A", ExpectedCount: ExpectedFilmsStartingWithA},
		{Name: "lowercase a matches the same films", Kind: KindMatch, StartsWith: "a", ExpectedCount: ExpectedFilmsStartingWithA},
		{Name: "no films starting with X", Kind: KindEmpty, StartsWith: "X"},
		{Name: "empty filter", Kind: KindInvalid, StartsWith: "", ExpectedStatus: http.StatusBadRequest},
		{Name: "multi-letter filter", Kind: KindInvalid, StartsWith: "ABC", ExpectedStatus: http.StatusBadRequest},
		{Name: "symbol filter", Kind: KindInvalid, StartsWith: "@", ExpectedStatus: http.StatusBadRequest},
		{Name: "numeric filter", Kind: KindInvalid, StartsWith: "123", ExpectedStatus: http.StatusBadRequest},
		{Name: "lookup latency", Kind: KindPerformance, StartsWith: "A", ExpectedCount: ExpectedFilmsStartingWithA, Threshold: PerformanceThreshold},
	}
}
