package remote

import (
	"errors"
	"fmt"
	"strings"
)

// RemoteError represents a non-GraphQL HTTP failure.
type RemoteError struct {
	Code    string
	Message string
	Status  int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error (%d): %s: %s", e.Status, e.Code, e.Message)
}

// GraphQLErrors is returned when the server answers with a non-empty errors array.
// Status is the HTTP status of the response carrying the errors.
type GraphQLErrors struct {
	Errors []GraphQLError
	Status int
}

func (e *GraphQLErrors) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// FormatError renders an error for display. The first GraphQL error message wins,
// otherwise the full error text is used. A nil error formats to "".
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var gqlErrs *GraphQLErrors
	if errors.As(err, &gqlErrs) && len(gqlErrs.Errors) > 0 && gqlErrs.Errors[0].Message != "" {
		return gqlErrs.Errors[0].Message
	}
	return err.Error()
}
