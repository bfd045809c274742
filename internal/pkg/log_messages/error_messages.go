package log_messages

const (
	FailedLoadingConfiguration = "Failed to load configuration: %v"
	ServerStartFailure         = "failed to start server: %v"
	ServerExiting              = "Server exiting"
	CleanupStarted             = "Starting cleanup of resources..."
	CleanupCompleted           = "All resources cleaned up successfully"

	PubsubPublisherCreated         = "PubSub publisher created"
	ErrorPublishingBatchSummary    = "Failed to publish batch summary notification"
	ErrorSerializingBatchSummary   = "Failed to serialize batch summary"

	// Batch orchestration
	BatchStarted                  = "Simulation batch started"
	BatchCompleted                = "Simulation batch completed"
	BatchAlreadyRunning           = "batch is already running"
	BatchEmptyPortfolio           = "loan portfolio is empty"
	BatchEmptyMacroTimeline       = "macro timeline is empty"
	ErrorAcquiringBatchLock       = "Failed to acquire batch lock"
	ErrorReleasingBatchLock       = "Failed to release batch lock"
	ErrorLoadingLoanPortfolio     = "Failed to load loan portfolio"
	ErrorLoadingMacroTimeline     = "Failed to load macro timeline"
	ErrorEnsuringFactIndexes      = "Failed to ensure fact store indexes"
	ErrorWritingFactBatch         = "Failed to write fact batch"
	LoanSimulationSkipped         = "Loan simulation skipped"
	InvariantViolationDetected    = "Invariant violation, aborting loan simulation"
	MissingMacroSnapshotForMonth  = "missing macro snapshot for month %s"
	NoWorkersConfigured           = "no simulation workers configured"

	// Policy / configuration
	ErrorLoadingCollectionsPolicy = "Failed to load collections policy"
	MissingBucketParameters       = "missing parameters for bucket %q in %s"
	InvalidLoanRecord             = "invalid loan record: %s"
)
