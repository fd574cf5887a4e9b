// Package models holds the immutable snapshots returned by the version-control API.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Commit represents a submitted set of changes for a resource or project.
type Commit struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	User      *User     `json:"user,omitempty"`
	Changes   []*Change `json:"changes,omitempty"`
	Builds    []*Build  `json:"builds,omitempty"`
}

// ShortID returns a shortened commit ID (first 8 characters)
func (c *Commit) ShortID() string {
	if len(c.ID) > 8 {
		return c.ID[:8]
	}
	return c.ID
}

// LatestBuild returns the first build of the commit, or nil when the commit has none.
// Builds are ordered freshest first by the server.
func (c *Commit) LatestBuild() *Build {
	if c == nil || len(c.Builds) == 0 {
		return nil
	}
	return c.Builds[0]
}

// User is the author of a commit or the creator of a build.
type User struct {
	ID      string   `json:"id"`
	Account *Account `json:"account,omitempty"`
}

// Account carries the display name of a user.
type Account struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// FullName joins first and last name, skipping empty parts.
func (a *Account) FullName() string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Project groups the resources whose commits a feed shows.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ChangeAction is the action a change applied to its origin.
type ChangeAction string

const (
	ChangeActionCreate ChangeAction = "Create"
	ChangeActionUpdate ChangeAction = "Update"
	ChangeActionDelete ChangeAction = "Delete"
)

// OriginType tags the entity kind a change refers to.
type OriginType string

const (
	OriginTypeEntity OriginType = "Entity"
	OriginTypeBlock  OriginType = "Block"
)

// Origin is the resolved payload of a change. The API returns it as a union of
// Entity and Block, both carrying the same display fields.
type Origin struct {
	Typename    OriginType `json:"__typename"`
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Change records what a commit touched.
type Change struct {
	OriginID      string       `json:"originId"`
	OriginType    OriginType   `json:"originType"`
	VersionNumber int          `json:"versionNumber"`
	Action        ChangeAction `json:"action"`
	Origin        *Origin      `json:"origin,omitempty"`
}

// PendingChange is an uncommitted change waiting for the next commit.
type PendingChange = Change

// Log is a single log line of a build step.
type Log struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Message   string          `json:"message"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	Level     LogLevel        `json:"level"`
}

// LogLevel is the severity of a log line.
type LogLevel string

const (
	LogLevelError   LogLevel = "Error"
	LogLevelWarning LogLevel = "Warning"
	LogLevelInfo    LogLevel = "Info"
	LogLevelDebug   LogLevel = "Debug"
)
