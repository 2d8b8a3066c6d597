package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when submitting to a scheduler
	// that has been stopped or never started.
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the bounded job queue rejects a
	// submission; callers decide whether to retry or drop.
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidReportType is returned for report types outside
	// AllReportTypes.
	ErrInvalidReportType = errors.New("invalid report type")

	ErrJobNotFound = errors.New("job not found")

	ErrReportComputationFailed = errors.New("report computation failed")

	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
