package build

import (
	"fmt"

	"github.com/weft-dev/weft/pkg/api/types/workflows"
)

// CronWorkflow wraps a workflow in a schedule. The embedded workflow
// compiles as usual; the cron fields control when the orchestrator
// instantiates it.
type CronWorkflow struct {
	*Workflow

	Schedule                   string
	Timezone                   string
	ConcurrencyPolicy          workflows.ConcurrencyPolicy
	Suspend                    *bool
	StartingDeadlineSeconds    *int64
	SuccessfulJobsHistoryLimit *int32
	FailedJobsHistoryLimit     *int32
}

func NewCronWorkflow(w *Workflow, schedule string) (*CronWorkflow, error) {
	if schedule == "" {
		return nil, fmt.Errorf("%w: cron workflow %s has no schedule", ErrInvalidState, w.Name())
	}
	return &CronWorkflow{Workflow: w, Schedule: schedule}, nil
}

func (c *CronWorkflow) Build() (workflows.CronWorkflow, error) {
	spec, err := c.buildSpec(true)
	if err != nil {
		return workflows.CronWorkflow{}, err
	}

	return workflows.CronWorkflow{
		APIVersion: workflows.APIVersion,
		Kind:       workflows.KindCronWorkflow,
		Metadata:   c.buildMetadata(),
		Spec: workflows.CronWorkflowSpec{
			Schedule:                   c.Schedule,
			Timezone:                   c.Timezone,
			ConcurrencyPolicy:          c.ConcurrencyPolicy,
			Suspend:                    c.Suspend,
			StartingDeadlineSeconds:    c.StartingDeadlineSeconds,
			SuccessfulJobsHistoryLimit: c.SuccessfulJobsHistoryLimit,
			FailedJobsHistoryLimit:     c.FailedJobsHistoryLimit,
			WorkflowSpec:               spec,
		},
	}, nil
}
