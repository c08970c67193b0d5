package build

import (
	"context"
	"fmt"

	"github.com/weft-dev/weft/pkg/api/types/workflows"
	"github.com/weft-dev/weft/pkg/utils"
	kubecore "k8s.io/api/core/v1"
)

// Workflow is the top-level aggregate: one DAG, global parameters,
// scheduling constraints, and the submission target.
//
// Build compiles everything into one manifest; Create forwards it to
// the client. Every optional field is composed only when present, so a
// workflow with nothing set serializes to the bare minimum the
// orchestrator needs.
type Workflow struct {
	name      string
	client    Client
	namespace string

	parallelism        *int64
	serviceAccountName string
	labels             map[string]string
	annotations        map[string]string

	security            *WorkflowSecurityContext
	imagePullSecrets    []string
	workflowTemplateRef *workflows.WorkflowTemplateRef
	ttl                 *workflows.TTLStrategy
	volumeClaimGC       workflows.VolumeClaimGCStrategy
	hostAliases         []kubecore.HostAlias
	nodeSelector        map[string]string
	affinity            *Affinity
	tolerations         []Toleration
	parameters          []Parameter

	dag      *DAG
	exitTask string
	inScope  bool
}

type WorkflowOption func(*Workflow) error

func WithClient(c Client) WorkflowOption {
	return func(w *Workflow) error {
		w.client = c
		return nil
	}
}

func InNamespace(namespace string) WorkflowOption {
	return func(w *Workflow) error {
		w.namespace = namespace
		return nil
	}
}

func WithParallelism(parallelism int64) WorkflowOption {
	return func(w *Workflow) error {
		w.parallelism = &parallelism
		return nil
	}
}

func WithServiceAccount(serviceAccountName string) WorkflowOption {
	return func(w *Workflow) error {
		w.serviceAccountName = serviceAccountName
		return nil
	}
}

func WithLabels(labels map[string]string) WorkflowOption {
	return func(w *Workflow) error {
		w.labels = labels
		return nil
	}
}

func WithAnnotations(annotations map[string]string) WorkflowOption {
	return func(w *Workflow) error {
		w.annotations = annotations
		return nil
	}
}

func WithWorkflowSecurityContext(sc WorkflowSecurityContext) WorkflowOption {
	return func(w *Workflow) error {
		w.security = &sc
		return nil
	}
}

func WithImagePullSecrets(secretNames ...string) WorkflowOption {
	return func(w *Workflow) error {
		w.imagePullSecrets = append(w.imagePullSecrets, secretNames...)
		return nil
	}
}

func WithWorkflowTemplateRef(templateName string) WorkflowOption {
	return func(w *Workflow) error {
		w.workflowTemplateRef = &workflows.WorkflowTemplateRef{Name: templateName}
		return nil
	}
}

func WithTTLStrategy(ttl workflows.TTLStrategy) WorkflowOption {
	return func(w *Workflow) error {
		w.ttl = &ttl
		return nil
	}
}

func WithVolumeClaimGC(strategy workflows.VolumeClaimGCStrategy) WorkflowOption {
	return func(w *Workflow) error {
		w.volumeClaimGC = strategy
		return nil
	}
}

func WithHostAliases(aliases ...kubecore.HostAlias) WorkflowOption {
	return func(w *Workflow) error {
		w.hostAliases = append(w.hostAliases, aliases...)
		return nil
	}
}

func WithNodeSelector(selector map[string]string) WorkflowOption {
	return func(w *Workflow) error {
		w.nodeSelector = selector
		return nil
	}
}

func WithAffinity(affinity Affinity) WorkflowOption {
	return func(w *Workflow) error {
		w.affinity = &affinity
		return nil
	}
}

func WithTolerations(tolerations ...Toleration) WorkflowOption {
	return func(w *Workflow) error {
		w.tolerations = append(w.tolerations, tolerations...)
		return nil
	}
}

func WithParameters(parameters ...Parameter) WorkflowOption {
	return func(w *Workflow) error {
		w.parameters = append(w.parameters, parameters...)
		return nil
	}
}

// WithDAG binds an existing DAG. Binding twice, or over a scope's
// auto-created DAG, fails with ErrInvalidState.
func WithDAG(d *DAG) WorkflowOption {
	return func(w *Workflow) error {
		if w.dag != nil {
			return fmt.Errorf("%w: workflow %s already has a DAG", ErrInvalidState, w.name)
		}
		w.dag = d
		return nil
	}
}

func NewWorkflow(workflowName string, options ...WorkflowOption) (*Workflow, error) {
	if err := validateName(workflowName); err != nil {
		return nil, fmt.Errorf("workflow: %w", err)
	}

	w := &Workflow{name: workflowName}
	for _, option := range options {
		if err := option(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *Workflow) Name() string {
	return w.name
}

// DAG returns the bound DAG, nil when none is bound yet.
func (w *Workflow) DAG() *DAG {
	return w.dag
}

// Enter opens a build scope: it creates an empty DAG named after the
// workflow, binds it, and returns it for the caller to add tasks to.
// Submission is rejected until Exit closes the scope.
//
// Entering with a DAG already bound, or entering twice, fails with
// ErrInvalidState.
func (w *Workflow) Enter() (*DAG, error) {
	if w.inScope {
		return nil, fmt.Errorf("%w: workflow %s scope is already open", ErrInvalidState, w.name)
	}
	if w.dag != nil {
		return nil, fmt.Errorf("%w: workflow %s already has a DAG", ErrInvalidState, w.name)
	}

	dag, err := NewDAG(w.name)
	if err != nil {
		return nil, err
	}
	w.dag = dag
	w.inScope = true
	return dag, nil
}

// Exit closes the scope opened by Enter.
func (w *Workflow) Exit() error {
	if !w.inScope {
		return fmt.Errorf("%w: workflow %s has no open scope", ErrInvalidState, w.name)
	}
	w.inScope = false
	return nil
}

// OnExit designates t as the exit handler: spec.onExit points at it
// and it stays out of the main step-group chain. The task joins the
// DAG if it is not in it yet.
func (w *Workflow) OnExit(t *Task) error {
	if w.dag == nil {
		return fmt.Errorf("%w: workflow %s has no DAG to attach an exit handler to", ErrInvalidState, w.name)
	}

	t.exitTask = true
	if _, ok := w.dag.byName[t.name]; !ok {
		if err := w.dag.Add(t); err != nil {
			return err
		}
	}
	w.exitTask = t.name
	return nil
}

// OnExitDAG designates a whole DAG as the exit handler. The DAG is
// wrapped in a task that exists only to force its templates into the
// build output; spec.onExit points at the DAG's entrypoint template.
func (w *Workflow) OnExitDAG(d *DAG) error {
	if w.dag == nil {
		return fmt.Errorf("%w: workflow %s has no DAG to attach an exit handler to", ErrInvalidState, w.name)
	}

	wrapper, err := NewDAGTask(fmt.Sprintf("%s-exit", d.Name()), d)
	if err != nil {
		return err
	}
	wrapper.exitTask = true
	if err := w.dag.Add(wrapper); err != nil {
		return err
	}
	w.exitTask = d.Name()
	return nil
}

// GetParameter resolves a declared global parameter into a reference
// usable by tasks: `{{workflow.parameters.<name>}}`.
func (w *Workflow) GetParameter(paramName string) (Parameter, error) {
	for _, p := range w.parameters {
		if p.Name == paramName {
			return Parameter{
				Name:  paramName,
				Value: fmt.Sprintf("{{workflow.parameters.%s}}", paramName),
			}, nil
		}
	}
	return Parameter{}, fmt.Errorf(
		"%w: %q is not a parameter of workflow %s", ErrUnknownParameter, paramName, w.name,
	)
}

// Build compiles metadata and spec into one manifest object.
func (w *Workflow) Build() (workflows.Workflow, error) {
	spec, err := w.buildSpec(true)
	if err != nil {
		return workflows.Workflow{}, err
	}

	return workflows.Workflow{
		APIVersion: workflows.APIVersion,
		Kind:       workflows.KindWorkflow,
		Metadata:   w.buildMetadata(),
		Spec:       spec,
	}, nil
}

func (w *Workflow) buildMetadata() workflows.ObjectMeta {
	return workflows.ObjectMeta{
		Name:        w.name,
		Namespace:   w.namespace,
		Labels:      w.labels,
		Annotations: w.annotations,
	}
}

// buildSpec assembles the spec, composing each optional field only
// when set. Workflow templates skip the entrypoint and its steps
// template; they publish the task templates alone.
func (w *Workflow) buildSpec(entrypoint bool) (workflows.WorkflowSpec, error) {
	if w.dag == nil {
		return workflows.WorkflowSpec{}, fmt.Errorf("%w: workflow %s has no DAG", ErrInvalidState, w.name)
	}

	manifest, err := w.dag.compile()
	if err != nil {
		return workflows.WorkflowSpec{}, err
	}

	spec := workflows.WorkflowSpec{Templates: manifest.taskTemplates}
	if entrypoint {
		spec.Templates = append(spec.Templates, manifest.entry)
		spec.Entrypoint = w.dag.Name()
	}

	if w.parallelism != nil {
		spec.Parallelism = w.parallelism
	}
	if w.ttl != nil {
		spec.TTLStrategy = w.ttl
	}
	if w.volumeClaimGC != "" {
		spec.VolumeClaimGC = &workflows.VolumeClaimGC{Strategy: w.volumeClaimGC}
	}
	if 0 < len(w.hostAliases) {
		spec.HostAliases = w.hostAliases
	}
	if w.security != nil {
		spec.SecurityContext = w.security.Build()
	}
	if w.serviceAccountName != "" {
		spec.ServiceAccountName = w.serviceAccountName
	}
	if 0 < len(w.imagePullSecrets) {
		spec.ImagePullSecrets = utils.Map(w.imagePullSecrets, func(secretName string) kubecore.LocalObjectReference {
			return kubecore.LocalObjectReference{Name: secretName}
		})
	}
	if 0 < len(w.parameters) {
		parameters, err := utils.MapUntilError(w.parameters, Parameter.Build)
		if err != nil {
			return workflows.WorkflowSpec{}, fmt.Errorf("workflow %s: %w", w.name, err)
		}
		spec.Arguments = &workflows.Arguments{Parameters: parameters}
	}
	if w.affinity != nil {
		spec.Affinity = w.affinity.Build()
	}
	if 0 < len(w.nodeSelector) {
		spec.NodeSelector = w.nodeSelector
	}
	if 0 < len(w.tolerations) {
		spec.Tolerations = utils.Map(w.tolerations, Toleration.Build)
	}
	if w.workflowTemplateRef != nil {
		spec.WorkflowTemplateRef = w.workflowTemplateRef
	}
	if 0 < len(manifest.claims) {
		spec.VolumeClaimTemplates = manifest.claims
	}
	if 0 < len(manifest.volumes) {
		spec.Volumes = manifest.volumes
	}
	if w.exitTask != "" {
		spec.OnExit = w.exitTask
	}

	return spec, nil
}

// Create builds the manifest and submits it. Calling while a scope is
// still open fails with ErrInvalidState: submission happens after the
// scope closes.
func (w *Workflow) Create(ctx context.Context) (workflows.Workflow, error) {
	if w.inScope {
		return workflows.Workflow{}, fmt.Errorf(
			"%w: workflow %s is still in a build scope", ErrInvalidState, w.name,
		)
	}
	if w.client == nil {
		return workflows.Workflow{}, fmt.Errorf("%w: workflow %s has no client", ErrInvalidState, w.name)
	}

	built, err := w.Build()
	if err != nil {
		return workflows.Workflow{}, err
	}
	return w.client.CreateWorkflow(ctx, w.namespace, built)
}

// Delete removes the workflow from the orchestrator.
func (w *Workflow) Delete(ctx context.Context) (DeleteResult, error) {
	if w.client == nil {
		return DeleteResult{}, fmt.Errorf("%w: workflow %s has no client", ErrInvalidState, w.name)
	}
	return w.client.DeleteWorkflow(ctx, w.namespace, w.name)
}
