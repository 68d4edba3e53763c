package reporter

// Reporter defines the interface for progress reporting.
type Reporter interface {
	Hardware(summary HardwareSummary)
	Initialization(summary InitializationSummary)
	LayoutComputed(summary LayoutSummary)
	StageProgress(update StageProgress)
	ExtractionStarted(totalFrames int)
	ExtractionProgress(progress ExtractionSnapshot)
	ExtractionDegraded(info DegradedInfo)
	ValidationComplete(summary ValidationSummary)
	GenerationComplete(summary GenerationOutcome)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
	BatchStarted(info BatchStartInfo)
	FileProgress(context FileProgressContext)
	BatchComplete(summary BatchSummary)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) Hardware(HardwareSummary)              {}
func (NullReporter) Initialization(InitializationSummary)  {}
func (NullReporter) LayoutComputed(LayoutSummary)          {}
func (NullReporter) StageProgress(StageProgress)           {}
func (NullReporter) ExtractionStarted(int)                 {}
func (NullReporter) ExtractionProgress(ExtractionSnapshot) {}
func (NullReporter) ExtractionDegraded(DegradedInfo)       {}
func (NullReporter) ValidationComplete(ValidationSummary)  {}
func (NullReporter) GenerationComplete(GenerationOutcome)  {}
func (NullReporter) Warning(string)                        {}
func (NullReporter) Error(ReporterError)                   {}
func (NullReporter) OperationComplete(string)              {}
func (NullReporter) BatchStarted(BatchStartInfo)           {}
func (NullReporter) FileProgress(FileProgressContext)      {}
func (NullReporter) BatchComplete(BatchSummary)            {}
