package models

import "time"

// BuildStatus is the server-computed state of a build.
type BuildStatus string

const (
	BuildStatusRunning   BuildStatus = "Running"
	BuildStatusCompleted BuildStatus = "Completed"
	BuildStatusFailed    BuildStatus = "Failed"
	BuildStatusInvalid   BuildStatus = "Invalid"
)

// IsTerminal returns true if the build will not change status anymore.
func (s BuildStatus) IsTerminal() bool {
	return s == BuildStatusCompleted || s == BuildStatusFailed || s == BuildStatusInvalid
}

// StepStatus is the state of a single build step.
type StepStatus string

const (
	StepStatusWaiting StepStatus = "Waiting"
	StepStatusRunning StepStatus = "Running"
	StepStatusSuccess StepStatus = "Success"
	StepStatusFailed  StepStatus = "Failed"
)

// Build is a pipeline run triggered by a commit.
type Build struct {
	ID         string      `json:"id"`
	ResourceID string      `json:"resourceId"`
	CreatedAt  time.Time   `json:"createdAt"`
	Version    string      `json:"version"`
	Message    string      `json:"message"`
	CommitID   string      `json:"commitId"`
	ActionID   string      `json:"actionId"`
	Action     *Action     `json:"action,omitempty"`
	CreatedBy  *User       `json:"createdBy,omitempty"`
	Status     BuildStatus `json:"status"`
	ArchiveURI string      `json:"archiveURI"`
}

// Steps returns the action steps of the build, or nil when the action is missing.
func (b *Build) Steps() []*Step {
	if b == nil || b.Action == nil {
		return nil
	}
	return b.Action.Steps
}

// Action groups the ordered steps executed for a build.
type Action struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Steps     []*Step   `json:"steps,omitempty"`
}

// Step is one stage of a build action.
type Step struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Message     string     `json:"message"`
	Status      StepStatus `json:"status"`
	Logs        []*Log     `json:"logs,omitempty"`
}

// Duration returns the time the step took, measured up to now for unfinished steps.
func (s *Step) Duration(now time.Time) time.Duration {
	end := now
	if s.CompletedAt != nil {
		end = *s.CompletedAt
	}
	if end.Before(s.CreatedAt) {
		return 0
	}
	return end.Sub(s.CreatedAt)
}
