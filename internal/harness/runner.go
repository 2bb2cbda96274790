package harness

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// CaseResult is the outcome of one case. Err is nil when the case passed.
type CaseResult struct {
	Case     Case          `json:"case"`
	Passed   bool          `json:"passed"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
	Failures []string      `json:"failures,omitempty"`
}

// Report summarizes a run.
type Report struct {
	Results []CaseResult `json:"results"`
	Total   int          `json:"total"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
}

// OK reports whether every case passed.
func (r Report) OK() bool {
	return r.Failed == 0
}

// Runner executes cases against a running service.
type Runner struct {
	client *Client
	path   string
	logger *zap.Logger
}

func NewRunner(client *Client, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{client: client, path: FilmsPath, logger: logger}
}

// Run executes every case in order; a failing case never stops the ones
// after it. Cases that could not reach the service are reported as failed
// and their connection errors are joined into the returned error.
func (r *Runner) Run(ctx context.Context, cases []Case) (Report, error) {
	report := Report{Results: make([]CaseResult, 0, len(cases))}

	var connErrs []error
	for _, c := range cases {
		res, err := r.RunCase(ctx, c)
		if err != nil {
			connErrs = append(connErrs, err)
			res.Err = err
			res.Failures = []string{err.Error()}
		}

		report.Results = append(report.Results, res)
		report.Total++
		if res.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	r.logger.Info("Acceptance run finished",
		zap.Int("total", report.Total),
		zap.Int("passed", report.Passed),
		zap.Int("failed", report.Failed),
	)

	return report, errors.Join(connErrs...)
}

// RunCase executes one case. Assertion failures are reported in the result;
// only transport errors are returned.
func (r *Runner) RunCase(ctx context.Context, c Case) (CaseResult, error) {
	if err := c.Validate(); err != nil {
		return CaseResult{Case: c, Err: err, Failures: []string{err.Error()}}, nil
	}

	m, resp, err := MeasureQuery(ctx, r.client, r.path, c.Query())
	if err != nil {
		return CaseResult{Case: c}, err
	}

	checkErr := r.verify(c, m, resp)
	result := CaseResult{
		Case:     c,
		Passed:   checkErr == nil,
		Duration: m.ExecutionTime,
		Err:      checkErr,
	}

	var af *AssertionFailure
	if errors.As(checkErr, &af) {
		result.Failures = af.Failures
	} else if checkErr != nil {
		result.Failures = []string{checkErr.Error()}
	}

	logger := r.logger.With(
		zap.String("case", c.Name),
		zap.String("startsWith", c.StartsWith),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", m.ExecutionTime),
	)
	if result.Passed {
		logger.Info("Case passed")
	} else {
		logger.Warn("Case failed", zap.Strings("failures", result.Failures))
	}

	return result, nil
}

func (r *Runner) verify(c Case, m PerformanceMetrics, resp *Response) error {
	q := c.Query()

	switch c.Kind {
	case KindMatch:
		return All(c.Name,
			func() error { return CheckSuccessfulResponse(resp) },
			func() error { return CheckResponseStructure(resp, q) },
			func() error { return CheckFilmDataIntegrity(resp) },
			func() error { return CheckFilmIdentity(resp) },
			func() error { return CheckTitlesStartWith(resp, c.StartsWith) },
			func() error { return CheckTypeConsistency(resp) },
		)
	case KindEmpty:
		return All(c.Name,
			func() error { return CheckSuccessfulResponse(resp) },
			func() error { return CheckResponseStructure(resp, q) },
			func() error { return CheckEmptyResult(resp, q) },
			func() error { return CheckTypeConsistency(resp) },
		)
	case KindInvalid:
		return All(c.Name,
			func() error { return CheckStatus(resp, c.ExpectedStatus) },
		)
	case KindPerformance:
		return All(c.Name,
			func() error { return CheckSuccessfulResponse(resp) },
			func() error { return CheckPerformance(m, c.Threshold, c.ExpectedCount) },
		)
	}

	return nil
}
