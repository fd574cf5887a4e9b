// Package remote defines the GraphQL protocol types and client for the version-control API.
package remote

import (
	"encoding/json"

	"github.com/rohitmondal03/amplication/internal/models"
)

// SortOrder is the GraphQL sort direction enum.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "Asc"
	SortOrderDesc SortOrder = "Desc"
)

// CommitOrderBy orders a commits query.
type CommitOrderBy struct {
	CreatedAt SortOrder `json:"createdAt,omitempty"`
}

// GraphQLRequest is the body POSTed to the GraphQL endpoint.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// GraphQLResponse is the envelope returned by the GraphQL endpoint.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError is a single entry of the response errors array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Code returns the extensions.code value, if any.
func (e GraphQLError) Code() string {
	if code, ok := e.Extensions["code"].(string); ok {
		return code
	}
	return ""
}

// ErrorResponse is the structured error format returned by REST endpoints.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type commitsData struct {
	Commits []*models.Commit `json:"commits"`
}

type pendingChangesData struct {
	PendingChanges []*models.PendingChange `json:"pendingChanges"`
}

type commitMutationData struct {
	Commit *models.Commit `json:"commit"`
}

const accountFields = `
      account {
        firstName
        lastName
      }`

const changeFields = `
      originId
      action
      originType
      versionNumber
      origin {
        __typename
        ... on Entity {
          id
          displayName
          updatedAt
        }
        ... on Block {
          id
          displayName
          updatedAt
        }
      }`

const buildFields = `
        id
        createdAt
        resourceId
        version
        message
        commitId
        actionId
        action {
          id
          createdAt
          steps {
            id
            name
            createdAt
            message
            status
            completedAt
            logs {
              id
              createdAt
              message
              meta
              level
            }
          }
        }
        createdBy {
          id` + accountFields + `
        }
        status
        archiveURI`

// LastCommitQuery fetches the most recent commit of a resource with its most recent build.
const LastCommitQuery = `query lastCommit($resourceId: String!) {
  commits(
    where: { resource: { id: $resourceId } }
    orderBy: { createdAt: Desc }
    take: 1
  ) {
    id
    message
    createdAt
    user {
      id` + accountFields + `
    }
    changes {` + changeFields + `
    }
    builds(orderBy: { createdAt: Desc }, take: 1) {` + buildFields + `
    }
  }
}`

// CommitsQuery fetches the commits of a project.
const CommitsQuery = `query commits($projectId: String!, $orderBy: CommitOrderByInput) {
  commits(where: { project: { id: $projectId } }, orderBy: $orderBy) {
    id
    message
    createdAt
    user {
      id` + accountFields + `
    }
    changes {` + changeFields + `
    }
    builds(orderBy: { createdAt: Desc }, take: 1) {
      id
      createdAt
      resourceId
      version
      commitId
      status
      archiveURI
    }
  }
}`

// PendingChangesQuery fetches the uncommitted changes of a project.
const PendingChangesQuery = `query pendingChanges($projectId: String!) {
  pendingChanges(where: { project: { id: $projectId } }) {
    originId
    action
    originType
    versionNumber
    origin {
      __typename
      ... on Entity {
        id
        displayName
        updatedAt
      }
      ... on Block {
        id
        displayName
        updatedAt
      }
    }
  }
}`

// CommitMutation commits the pending changes of a project.
const CommitMutation = `mutation commit($message: String!, $projectId: String!) {
  commit(data: { message: $message, project: { connect: { id: $projectId } } }) {
    id
    message
    createdAt
  }
}`
