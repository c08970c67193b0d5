package build

import (
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/weft-dev/weft/pkg/api/types/workflows"
	"github.com/weft-dev/weft/pkg/utils"
	kubecore "k8s.io/api/core/v1"
)

// Task is a single unit of work: a container (or a sub-DAG), its
// inputs and outputs, and the names of tasks it depends on.
//
// A task does nothing by itself. Build compiles it into one manifest
// template plus the step node referencing that template; the
// orchestrator runs it once the workflow is submitted.
type Task struct {
	name       string
	image      string
	command    []string
	args       []string
	workingDir string

	env     []EnvSpec
	envFrom []EnvFromSpec
	volumes []VolumeSpec

	resources *Resources
	retry     *Retry
	memoize   *Memoize

	inputParams     []Parameter
	inputArtifacts  []workflows.Artifact
	outputParams    []Parameter
	outputArtifacts []workflows.Artifact

	pullPolicy   kubecore.PullPolicy
	security     *TaskSecurityContext
	nodeSelector map[string]string
	tolerations  []Toleration
	daemon       bool
	when         string

	podLabels      map[string]string
	podAnnotations map[string]string

	deps   []string
	subDAG *DAG

	// exitTask keeps the task out of the main step-group chain; its
	// template is still emitted so spec.onExit can reference it.
	exitTask bool
}

type TaskOption func(*Task)

func Command(command ...string) TaskOption {
	return func(t *Task) { t.command = command }
}

func Args(args ...string) TaskOption {
	return func(t *Task) { t.args = args }
}

func WorkingDir(dir string) TaskOption {
	return func(t *Task) { t.workingDir = dir }
}

func WithEnv(env ...EnvSpec) TaskOption {
	return func(t *Task) { t.env = append(t.env, env...) }
}

func WithEnvFrom(envFrom ...EnvFromSpec) TaskOption {
	return func(t *Task) { t.envFrom = append(t.envFrom, envFrom...) }
}

func WithVolumes(volumes ...VolumeSpec) TaskOption {
	return func(t *Task) { t.volumes = append(t.volumes, volumes...) }
}

func WithResources(r Resources) TaskOption {
	return func(t *Task) { t.resources = &r }
}

func WithRetry(r Retry) TaskOption {
	return func(t *Task) { t.retry = &r }
}

func WithMemoize(m Memoize) TaskOption {
	return func(t *Task) { t.memoize = &m }
}

func WithInputs(params ...Parameter) TaskOption {
	return func(t *Task) { t.inputParams = append(t.inputParams, params...) }
}

func WithInputArtifacts(artifacts ...workflows.Artifact) TaskOption {
	return func(t *Task) { t.inputArtifacts = append(t.inputArtifacts, artifacts...) }
}

func WithOutputs(params ...Parameter) TaskOption {
	return func(t *Task) { t.outputParams = append(t.outputParams, params...) }
}

func WithOutputArtifacts(artifacts ...workflows.Artifact) TaskOption {
	return func(t *Task) { t.outputArtifacts = append(t.outputArtifacts, artifacts...) }
}

func WithImagePullPolicy(policy kubecore.PullPolicy) TaskOption {
	return func(t *Task) { t.pullPolicy = policy }
}

func WithTaskSecurityContext(sc TaskSecurityContext) TaskOption {
	return func(t *Task) { t.security = &sc }
}

func WithTaskNodeSelector(selector map[string]string) TaskOption {
	return func(t *Task) { t.nodeSelector = selector }
}

func WithTaskTolerations(tolerations ...Toleration) TaskOption {
	return func(t *Task) { t.tolerations = append(t.tolerations, tolerations...) }
}

// AsDaemon keeps the task's container running next to the rest of the
// workflow instead of waiting for it.
func AsDaemon() TaskOption {
	return func(t *Task) { t.daemon = true }
}

// When guards the task's step with a manifest condition, e.g.
// `{{workflow.parameters.mode}} == full`.
func When(condition string) TaskOption {
	return func(t *Task) { t.when = condition }
}

// DependsOn declares dependency edges by task name. Names resolve when
// the task is added to a DAG.
func DependsOn(names ...string) TaskOption {
	return func(t *Task) { t.deps = append(t.deps, names...) }
}

func WithPodLabels(labels map[string]string) TaskOption {
	return func(t *Task) { t.podLabels = labels }
}

func WithPodAnnotations(annotations map[string]string) TaskOption {
	return func(t *Task) { t.podAnnotations = annotations }
}

// NewTask creates a container task.
//
// The name must become a valid manifest identifier; violations fail
// with ErrInvalidName. The image must parse as a container image
// reference; violations fail with ErrInvalidImage.
func NewTask(taskName string, image string, options ...TaskOption) (*Task, error) {
	if err := validateName(taskName); err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	if image == "" {
		return nil, fmt.Errorf("%w: task %s: image is empty", ErrInvalidImage, taskName)
	}
	if _, err := name.ParseReference(image); err != nil {
		return nil, fmt.Errorf("%w: task %s: %s", ErrInvalidImage, taskName, err)
	}

	t := &Task{name: taskName, image: image}
	for _, option := range options {
		option(t)
	}
	return t, nil
}

// NewDAGTask creates a task whose template is a whole sub-DAG. The
// sub-DAG's templates are pulled into the build output of the owning
// DAG, deduplicated by name.
func NewDAGTask(taskName string, dag *DAG, options ...TaskOption) (*Task, error) {
	if err := validateName(taskName); err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	if dag == nil {
		return nil, fmt.Errorf("%w: task %s: no sub-DAG given", ErrInvalidState, taskName)
	}

	t := &Task{name: taskName, subDAG: dag}
	for _, option := range options {
		option(t)
	}
	return t, nil
}

func (t *Task) Name() string {
	return t.name
}

// Dependencies returns the declared dependency names.
func (t *Task) Dependencies() []string {
	return t.deps
}

// Next declares that o runs after t, and returns o so calls chain:
//
//	a.Next(b).Next(c) // a -> b -> c
func (t *Task) Next(o *Task) *Task {
	for _, dep := range o.deps {
		if dep == t.name {
			return o
		}
	}
	o.deps = append(o.deps, t.name)
	return o
}

// OutputParameter references a named output of this task, usable as an
// input of a dependent task.
func (t *Task) OutputParameter(paramName string) Parameter {
	return Parameter{
		Name:  paramName,
		Value: fmt.Sprintf("{{tasks.%s.outputs.parameters.%s}}", t.name, paramName),
	}
}

// TaskFragment is everything one task contributes to the manifest.
type TaskFragment struct {
	// Templates holds the task's template; for sub-DAG tasks, the
	// sub-DAG's whole template set.
	Templates []workflows.Template

	// Step is the node reference for the step groups.
	Step workflows.WorkflowStep

	// Volumes and Claims bubble up into the workflow spec.
	Volumes []kubecore.Volume
	Claims  []workflows.PersistentVolumeClaim
}

// Build compiles the task. It is a pure function of the task's fields:
// no side effects, and no partial result on error.
func (t *Task) Build() (TaskFragment, error) {
	if t.subDAG != nil {
		return t.buildSubDAG()
	}

	container := kubecore.Container{
		Name:            "main",
		Image:           t.image,
		Command:         t.command,
		Args:            t.args,
		WorkingDir:      t.workingDir,
		ImagePullPolicy: t.pullPolicy,
	}

	inputs := workflows.Inputs{}
	arguments := workflows.Arguments{}

	for _, e := range t.env {
		envVar, err := e.Build()
		if err != nil {
			return TaskFragment{}, fmt.Errorf("task %s: %w", t.name, err)
		}
		container.Env = append(container.Env, envVar)

		// a value-from-input env grows a same-named input parameter,
		// fed by the referenced expression
		if le, ok := e.(Env); ok && le.ValueFromInput != "" {
			value := le.ValueFromInput
			inputs.Parameters = append(inputs.Parameters, workflows.Parameter{Name: le.Name})
			arguments.Parameters = append(
				arguments.Parameters,
				workflows.Parameter{Name: le.Name, Value: &value},
			)
		}
	}

	container.EnvFrom = utils.Map(t.envFrom, func(e EnvFromSpec) kubecore.EnvFromSource {
		return e.Build()
	})

	var volumes []kubecore.Volume
	var claims []workflows.PersistentVolumeClaim
	for _, v := range t.volumes {
		fragment, err := v.Build()
		if err != nil {
			return TaskFragment{}, fmt.Errorf("task %s: %w", t.name, err)
		}
		container.VolumeMounts = append(container.VolumeMounts, fragment.Mount)
		if fragment.Volume != nil {
			volumes = append(volumes, *fragment.Volume)
		}
		if fragment.Claim != nil {
			claims = append(claims, *fragment.Claim)
		}
	}

	if t.resources != nil {
		requirements, err := t.resources.Build()
		if err != nil {
			return TaskFragment{}, fmt.Errorf("task %s: %w", t.name, err)
		}
		container.Resources = requirements
	}

	if t.security != nil {
		container.SecurityContext = t.security.Build()
	}

	for _, p := range t.inputParams {
		built, err := p.Build()
		if err != nil {
			return TaskFragment{}, fmt.Errorf("task %s: %w", t.name, err)
		}

		// the template declares the parameter; its value travels on
		// the step's arguments
		inputs.Parameters = append(inputs.Parameters, workflows.Parameter{
			Name:    built.Name,
			Default: built.Default,
		})
		if built.Value != nil {
			arguments.Parameters = append(arguments.Parameters, workflows.Parameter{
				Name:  built.Name,
				Value: built.Value,
			})
		}
	}

	for _, a := range t.inputArtifacts {
		inputs.Artifacts = append(inputs.Artifacts, workflows.Artifact{
			Name:     a.Name,
			Path:     a.Path,
			Optional: a.Optional,
		})
		if source := artifactSource(a); source != nil {
			arguments.Artifacts = append(arguments.Artifacts, *source)
		}
	}

	outputs := workflows.Outputs{}
	for _, p := range t.outputParams {
		built, err := p.Build()
		if err != nil {
			return TaskFragment{}, fmt.Errorf("task %s: %w", t.name, err)
		}
		outputs.Parameters = append(outputs.Parameters, built)
	}
	outputs.Artifacts = append(outputs.Artifacts, t.outputArtifacts...)

	if t.memoize != nil && !declaresParameter(inputs.Parameters, t.memoize.Key) {
		return TaskFragment{}, fmt.Errorf(
			"%w: task %s: memoize key %q is not an input parameter",
			ErrUnknownParameter, t.name, t.memoize.Key,
		)
	}

	template := workflows.Template{
		Name:         t.name,
		Container:    &container,
		NodeSelector: t.nodeSelector,
	}
	if 0 < len(inputs.Parameters) || 0 < len(inputs.Artifacts) {
		template.Inputs = &inputs
	}
	if 0 < len(outputs.Parameters) || 0 < len(outputs.Artifacts) {
		template.Outputs = &outputs
	}
	if t.retry != nil {
		template.RetryStrategy = t.retry.Build()
	}
	if t.memoize != nil {
		template.Memoize = t.memoize.Build()
	}
	if t.daemon {
		daemon := true
		template.Daemon = &daemon
	}
	if 0 < len(t.tolerations) {
		template.Tolerations = utils.Map(t.tolerations, Toleration.Build)
	}
	if 0 < len(t.podLabels) || 0 < len(t.podAnnotations) {
		template.Metadata = &workflows.Metadata{
			Labels:      t.podLabels,
			Annotations: t.podAnnotations,
		}
	}

	step := workflows.WorkflowStep{
		Name:     t.name,
		Template: t.name,
		When:     t.when,
	}
	if 0 < len(arguments.Parameters) || 0 < len(arguments.Artifacts) {
		step.Arguments = &arguments
	}

	return TaskFragment{
		Templates: []workflows.Template{template},
		Step:      step,
		Volumes:   volumes,
		Claims:    claims,
	}, nil
}

func (t *Task) buildSubDAG() (TaskFragment, error) {
	manifest, err := t.subDAG.compile()
	if err != nil {
		return TaskFragment{}, fmt.Errorf("task %s: %w", t.name, err)
	}

	return TaskFragment{
		Templates: append(manifest.taskTemplates, manifest.entry),
		Step: workflows.WorkflowStep{
			Name:     t.name,
			Template: t.subDAG.Name(),
			When:     t.when,
		},
		Volumes: manifest.volumes,
		Claims:  manifest.claims,
	}, nil
}

// artifactSource strips an input artifact down to what travels on the
// step arguments; nil when the artifact has no source.
func artifactSource(a workflows.Artifact) *workflows.Artifact {
	if a.From == "" && a.Raw == nil && a.S3 == nil && a.Git == nil && a.HTTP == nil && a.GCS == nil {
		return nil
	}
	source := a
	source.Path = ""
	return &source
}

func declaresParameter(params []workflows.Parameter, paramName string) bool {
	for _, p := range params {
		if p.Name == paramName {
			return true
		}
	}
	return false
}
