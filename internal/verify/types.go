package verify

// FeatureRecord captures one row of the tracked-features table, describing a
// single code change and its claimed provenance.
type FeatureRecord struct {
	Name         string
	SHA          string
	Author       string
	Branch       string
	Date         string
	FilesChanged string
	Message      string
}

// StepName identifies one verification pipeline stage.
type StepName string

// Pipeline stages in execution order.
const (
	StepFetchDocument    StepName = "fetch_document"
	StepRequiredSections StepName = "required_sections"
	StepParseTable       StepName = "parse_table"
	StepFeatureCount     StepName = "feature_count"
	StepExpectedFeatures StepName = "expected_features"
	StepCommitDetails    StepName = "commit_details"
	StepTableStructure   StepName = "table_structure"
)

// StepResult records the outcome of a single pipeline stage. Detail carries
// expected-versus-actual diagnostics on failure and progress counts on
// success.
type StepResult struct {
	Name   StepName
	Passed bool
	Detail string
}

// Report aggregates the ordered step outcomes of one verification run. Steps
// contains every executed stage in order; stages after the first failure are
// never executed and therefore never appear.
type Report struct {
	Organization string
	Repository   string
	Branch       string
	DocumentPath string
	FeatureCount int
	Steps        []StepResult
	Passed       bool
}

// FirstFailure returns the earliest failed step, if any.
func (report Report) FirstFailure() (StepResult, bool) {
	for _, stepResult := range report.Steps {
		if !stepResult.Passed {
			return stepResult, true
		}
	}
	return StepResult{}, false
}
