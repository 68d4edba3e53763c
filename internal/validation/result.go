// Package validation provides post-save checks on generated mosaics.
package validation

// Result contains the outcome of validating one output image.
type Result struct {
	Path string

	FileExists          bool
	IsNonEmpty          bool
	IsDecodable         bool
	IsFormatCorrect     bool
	IsDimensionsCorrect bool

	// Details
	SizeBytes      uint64
	FormatName     string
	ActualWidth    int
	ActualHeight   int
	ExpectedWidth  int
	ExpectedHeight int

	FileMessage       string
	DecodeMessage     string
	FormatMessage     string
	DimensionsMessage string
}

// ValidationStep represents a single validation check.
type ValidationStep struct {
	Name    string
	Passed  bool
	Details string
}

// IsValid returns true if all validation checks passed.
func (r *Result) IsValid() bool {
	return r.FileExists &&
		r.IsNonEmpty &&
		r.IsDecodable &&
		r.IsFormatCorrect &&
		r.IsDimensionsCorrect
}

// GetValidationSteps returns all validation steps with results.
func (r *Result) GetValidationSteps() []ValidationStep {
	return []ValidationStep{
		{
			Name:    "Output file",
			Passed:  r.FileExists && r.IsNonEmpty,
			Details: r.FileMessage,
		},
		{
			Name:    "Image decode",
			Passed:  r.IsDecodable,
			Details: r.DecodeMessage,
		},
		{
			Name:    "Image format",
			Passed:  r.IsFormatCorrect,
			Details: r.FormatMessage,
		},
		{
			Name:    "Canvas dimensions",
			Passed:  r.IsDimensionsCorrect,
			Details: r.DimensionsMessage,
		},
	}
}

// GetFailures returns descriptions of failed validation checks.
func (r *Result) GetFailures() []string {
	var failures []string
	for _, step := range r.GetValidationSteps() {
		if !step.Passed {
			failures = append(failures, step.Name+": "+step.Details)
		}
	}
	return failures
}
