package service

import (
	"encoding/json"
	"fmt"

	jmespath "github.com/jmespath-community/go-jmespath"

	apperrors "github.com/openutm/qualifier-host/internal/errors"
)

// ReportSummary carries display-oriented counts extracted from a stored
// report. The report stays opaque to the task adapter; summaries exist only
// for the read API.
type ReportSummary struct {
	QualifierVersion string         `json:"qualifier_version,omitempty"`
	IssueCount       int            `json:"issue_count"`
	IssuesBySeverity map[string]int `json:"issues_by_severity,omitempty"`
	Subjects         []string       `json:"subjects,omitempty"`
}

// JMESPath expressions over the executor-owned report schema. Missing fields
// evaluate to null rather than erroring, so schema drift degrades gracefully.
const (
	exprVersion    = "qualifier_version"
	exprSeverities = "findings.issues[].severity"
	exprSubjects   = "findings.issues[].subject"
)

// SummarizeReport extracts a ReportSummary from serialized report bytes.
func SummarizeReport(report []byte) (*ReportSummary, error) {
	var doc any
	if err := json.Unmarshal(report, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "stored report is not valid JSON")
	}

	summary := &ReportSummary{}

	if v, err := searchString(exprVersion, doc); err != nil {
		return nil, err
	} else {
		summary.QualifierVersion = v
	}

	severities, err := searchStrings(exprSeverities, doc)
	if err != nil {
		return nil, err
	}
	summary.IssueCount = len(severities)
	if len(severities) > 0 {
		summary.IssuesBySeverity = make(map[string]int, len(severities))
		for _, sev := range severities {
			summary.IssuesBySeverity[sev]++
		}
	}

	subjects, err := searchStrings(exprSubjects, doc)
	if err != nil {
		return nil, err
	}
	summary.Subjects = dedupe(subjects)

	return summary, nil
}

func searchString(expr string, doc any) (string, error) {
	res, err := jmespath.Search(expr, doc)
	if err != nil {
		return "", fmt.Errorf("evaluate %q: %w", expr, err)
	}
	if s, ok := res.(string); ok {
		return s, nil
	}
	return "", nil
}

func searchStrings(expr string, doc any) ([]string, error) {
	res, err := jmespath.Search(expr, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", expr, err)
	}
	items, ok := res.([]any)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
