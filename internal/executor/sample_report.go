package executor

import (
	"github.com/openutm/qualifier-host/internal/domain/model"
)

// sampleReportJSON is the fixed report substituted for real execution in debug
// mode. Its bytes are stable so integration tests of the adapter plumbing can
// assert on the stored value.
const sampleReportJSON = `{
  "qualifier_version": "v0.2.0",
  "configuration": {
    "locale": "che",
    "rid_version": "v19"
  },
  "setup": {
    "injection_targets": [
      {
        "name": "uss1",
        "injection_base_url": "https://uss1.example.test/inject"
      },
      {
        "name": "uss2",
        "injection_base_url": "https://uss2.example.test/inject"
      }
    ]
  },
  "findings": {
    "issues": [
      {
        "test_code": "nominal_behavior",
        "relevant_requirements": ["NET0260"],
        "severity": "Low",
        "subject": "uss2",
        "summary": "Observed flight details refresh rate below required minimum",
        "details": "Flight details were refreshed every 7 seconds; the applicable performance requirement allows at most 5 seconds."
      }
    ]
  }
}`

// SampleReport returns the canned debug-mode report.
func SampleReport() model.Report {
	return model.Report(sampleReportJSON)
}
