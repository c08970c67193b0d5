package build

import (
	"github.com/weft-dev/weft/pkg/api/types/workflows"
)

// WorkflowTemplate is a reusable template set: the same builder as
// Workflow, published without an entrypoint so other workflows can
// reference its templates by name.
type WorkflowTemplate struct {
	*Workflow
}

func NewWorkflowTemplate(templateName string, options ...WorkflowOption) (*WorkflowTemplate, error) {
	w, err := NewWorkflow(templateName, options...)
	if err != nil {
		return nil, err
	}
	return &WorkflowTemplate{Workflow: w}, nil
}

func (wt *WorkflowTemplate) Build() (workflows.Workflow, error) {
	spec, err := wt.buildSpec(false)
	if err != nil {
		return workflows.Workflow{}, err
	}

	return workflows.Workflow{
		APIVersion: workflows.APIVersion,
		Kind:       workflows.KindWorkflowTemplate,
		Metadata:   wt.buildMetadata(),
		Spec:       spec,
	}, nil
}
