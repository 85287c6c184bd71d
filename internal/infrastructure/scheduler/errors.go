package scheduler

import "errors"

var (
	// ErrSchedulerRunning is returned when registering jobs after Start
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrInvalidJob is returned for a nil job or one without a name
	ErrInvalidJob = errors.New("invalid scheduler job")
)
