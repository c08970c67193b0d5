package build

import (
	"context"

	"github.com/weft-dev/weft/pkg/api/types/workflows"
)

// Client is the slice of the workflow server API a Workflow needs for
// submission. The full REST client satisfies it.
type Client interface {
	// CreateWorkflow submits a built manifest and returns the
	// server-assigned object.
	CreateWorkflow(ctx context.Context, namespace string, wf workflows.Workflow) (workflows.Workflow, error)

	// DeleteWorkflow removes a workflow by name.
	DeleteWorkflow(ctx context.Context, namespace string, workflowName string) (DeleteResult, error)
}

// DeleteResult is the server's verdict on a delete: HTTP status text,
// status code, and the raw response body.
type DeleteResult struct {
	Status string
	Code   int
	Body   []byte
}
