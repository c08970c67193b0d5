package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/weft-dev/weft/pkg/api/types/workflows"
	"github.com/weft-dev/weft/pkg/build"
)

// createRequest is the envelope the server expects around a manifest.
type createRequest struct {
	Workflow workflows.Workflow `json:"workflow"`
}

func (c *client) CreateWorkflow(
	ctx context.Context, namespace string, wf workflows.Workflow,
) (workflows.Workflow, error) {
	return c.postWorkflow(ctx, wf, c.apipath("api/v1/workflows", namespace))
}

func (c *client) LintWorkflow(
	ctx context.Context, namespace string, wf workflows.Workflow,
) (workflows.Workflow, error) {
	return c.postWorkflow(ctx, wf, c.apipath("api/v1/workflows", namespace, "lint"))
}

func (c *client) postWorkflow(
	ctx context.Context, wf workflows.Workflow, url string,
) (workflows.Workflow, error) {
	b, err := json.Marshal(createRequest{Workflow: wf})
	if err != nil {
		return workflows.Workflow{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(b))
	if err != nil {
		return workflows.Workflow{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return workflows.Workflow{}, err
	}
	defer resp.Body.Close()

	var created workflows.Workflow
	if err := unmarshalJsonResponse(
		resp, &created,
		MessageFor{
			Status4xx: fmt.Sprintf("workflow %s is rejected", wf.Metadata.Name),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return workflows.Workflow{}, err
	}
	return created, nil
}

func (c *client) GetWorkflow(
	ctx context.Context, namespace string, workflowName string,
) (workflows.Workflow, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("api/v1/workflows", namespace, workflowName), nil,
	)
	if err != nil {
		return workflows.Workflow{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return workflows.Workflow{}, err
	}
	defer resp.Body.Close()

	var wf workflows.Workflow
	if err := unmarshalJsonResponse(
		resp, &wf,
		MessageFor{
			Status4xx: fmt.Sprintf("workflow %s is not found", workflowName),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return workflows.Workflow{}, err
	}
	return wf, nil
}

func (c *client) WorkflowStatus(
	ctx context.Context, namespace string, workflowName string,
) (workflows.WorkflowPhase, error) {
	wf, err := c.GetWorkflow(ctx, namespace, workflowName)
	if err != nil {
		return workflows.WorkflowUnknown, err
	}
	if wf.Status == nil {
		return workflows.WorkflowUnknown, nil
	}
	return wf.Status.Phase, nil
}

func (c *client) DeleteWorkflow(
	ctx context.Context, namespace string, workflowName string,
) (build.DeleteResult, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodDelete, c.apipath("api/v1/workflows", namespace, workflowName), nil,
	)
	if err != nil {
		return build.DeleteResult{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return build.DeleteResult{}, err
	}
	defer resp.Body.Close()

	// delete relays the server's verdict as-is, body included
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return build.DeleteResult{}, err
	}

	result := build.DeleteResult{
		Status: resp.Status,
		Code:   resp.StatusCode,
		Body:   body,
	}

	if scr := StatusCodeRangeOf(resp); Status2xx < scr {
		return result, fmt.Errorf(
			"cannot delete workflow %s: %s", workflowName, parseErrorMessage(body),
		)
	}
	return result, nil
}

func (c *client) SuspendWorkflow(
	ctx context.Context, namespace string, workflowName string,
) (workflows.Workflow, error) {
	return c.putWorkflow(ctx, namespace, workflowName, "suspend")
}

func (c *client) ResumeWorkflow(
	ctx context.Context, namespace string, workflowName string,
) (workflows.Workflow, error) {
	return c.putWorkflow(ctx, namespace, workflowName, "resume")
}

func (c *client) putWorkflow(
	ctx context.Context, namespace string, workflowName string, verb string,
) (workflows.Workflow, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut, c.apipath("api/v1/workflows", namespace, workflowName, verb), nil,
	)
	if err != nil {
		return workflows.Workflow{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return workflows.Workflow{}, err
	}
	defer resp.Body.Close()

	var wf workflows.Workflow
	if err := unmarshalJsonResponse(
		resp, &wf,
		MessageFor{
			Status4xx: fmt.Sprintf("cannot %s workflow %s", verb, workflowName),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return workflows.Workflow{}, err
	}
	return wf, nil
}
