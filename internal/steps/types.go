package steps

import (
	"context"
	"errors"
)

var (
	// ErrUnknownOperation is returned when invoking an operation the
	// collaborator does not expose.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidManifest is returned for unreadable or inconsistent
	// manifests.
	ErrInvalidManifest = errors.New("invalid steps manifest")
)

// Invocation is the context handed to an operation.
type Invocation struct {
	// WorkDir is the run folder the operation works in.
	WorkDir string

	// Dataset, Run and Method describe the source acquisition. Any may be
	// empty.
	Dataset string
	Run     string
	Method  string

	// Args are passed through after the operation name.
	Args []string
}

// Collaborator is an external provider of processing operations.
type Collaborator interface {
	Name() string

	// ListOperations returns the exposed operation names in the
	// collaborator's order.
	ListOperations(ctx context.Context) ([]string, error)

	// Invoke runs op and blocks until it finishes.
	Invoke(ctx context.Context, op string, inv Invocation) error
}

// OutputDeclarer is implemented by collaborators that declare the files an
// operation produces in its work directory.
type OutputDeclarer interface {
	ExpectedOutputs(op string) []string
}
