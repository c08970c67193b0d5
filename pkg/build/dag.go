package build

import (
	"fmt"
	"strings"

	"github.com/weft-dev/weft/pkg/api/types/workflows"
	kubecore "k8s.io/api/core/v1"
)

// DAG is an ordered collection of tasks and their dependency edges.
//
// Build compiles the tasks into the manifest's template list plus one
// entrypoint template whose step groups encode the graph as parallel
// levels: every task whose dependencies are all satisfied joins the
// next level. The orchestrator runs levels in sequence and the members
// of a level concurrently; nothing is scheduled here.
type DAG struct {
	name   string
	tasks  []*Task
	byName map[string]*Task
}

func NewDAG(dagName string) (*DAG, error) {
	if err := validateName(dagName); err != nil {
		return nil, fmt.Errorf("dag: %w", err)
	}
	return &DAG{name: dagName, byName: map[string]*Task{}}, nil
}

func (d *DAG) Name() string {
	return d.name
}

// Tasks returns the tasks in insertion order.
func (d *DAG) Tasks() []*Task {
	return d.tasks
}

// Add appends a task and resolves its declared dependency names.
// A dependency not yet in the DAG fails with ErrMissingDependency; a
// duplicate task name fails with ErrInvalidState.
func (d *DAG) Add(t *Task) error {
	if _, exists := d.byName[t.name]; exists {
		return fmt.Errorf("%w: dag %s already has a task named %s", ErrInvalidState, d.name, t.name)
	}
	for _, dep := range t.deps {
		if _, ok := d.byName[dep]; !ok {
			return fmt.Errorf(
				"%w: task %s depends on %s, which is not in dag %s",
				ErrMissingDependency, t.name, dep, d.name,
			)
		}
	}

	d.tasks = append(d.tasks, t)
	d.byName[t.name] = t
	return nil
}

// AddTasks appends tasks in order, stopping at the first failure.
func (d *DAG) AddTasks(tasks ...*Task) error {
	for _, t := range tasks {
		if err := d.Add(t); err != nil {
			return err
		}
	}
	return nil
}

// Build compiles the DAG: one template per task, in insertion order,
// then the entrypoint template carrying the step groups.
func (d *DAG) Build() ([]workflows.Template, error) {
	manifest, err := d.compile()
	if err != nil {
		return nil, err
	}
	return append(manifest.taskTemplates, manifest.entry), nil
}

// BuildTemplates compiles the task templates without the entrypoint
// template, the shape workflow templates are published in.
func (d *DAG) BuildTemplates() ([]workflows.Template, error) {
	manifest, err := d.compile()
	if err != nil {
		return nil, err
	}
	return manifest.taskTemplates, nil
}

type dagManifest struct {
	taskTemplates []workflows.Template
	entry         workflows.Template
	volumes       []kubecore.Volume
	claims        []workflows.PersistentVolumeClaim
}

func (d *DAG) compile() (*dagManifest, error) {
	manifest := &dagManifest{}

	seenTemplates := map[string]bool{}
	seenVolumes := map[string]bool{}
	seenClaims := map[string]bool{}
	steps := map[string]workflows.WorkflowStep{}

	for _, t := range d.tasks {
		fragment, err := t.Build()
		if err != nil {
			return nil, err
		}

		// sub-DAG tasks may bring templates a sibling already brought
		for _, template := range fragment.Templates {
			if seenTemplates[template.Name] {
				continue
			}
			seenTemplates[template.Name] = true
			manifest.taskTemplates = append(manifest.taskTemplates, template)
		}
		for _, volume := range fragment.Volumes {
			if seenVolumes[volume.Name] {
				continue
			}
			seenVolumes[volume.Name] = true
			manifest.volumes = append(manifest.volumes, volume)
		}
		for _, claim := range fragment.Claims {
			if seenClaims[claim.Metadata.Name] {
				continue
			}
			seenClaims[claim.Metadata.Name] = true
			manifest.claims = append(manifest.claims, claim)
		}

		steps[t.name] = fragment.Step
	}

	groups, err := d.levels(steps)
	if err != nil {
		return nil, err
	}

	manifest.entry = workflows.Template{Name: d.name, Steps: groups}
	return manifest, nil
}

// levels runs Kahn's sweep over the non-exit tasks. Tasks left over
// after the sweep sit on a cycle; that fails here instead of shipping
// a manifest the orchestrator rejects at execution time.
func (d *DAG) levels(steps map[string]workflows.WorkflowStep) ([][]workflows.WorkflowStep, error) {
	remaining := []*Task{}
	for _, t := range d.tasks {
		if t.exitTask {
			continue
		}
		for _, dep := range t.deps {
			depTask, ok := d.byName[dep]
			if !ok {
				return nil, fmt.Errorf(
					"%w: task %s depends on %s, which is not in dag %s",
					ErrMissingDependency, t.name, dep, d.name,
				)
			}
			if depTask.exitTask {
				return nil, fmt.Errorf(
					"%w: task %s depends on %s, which is an exit handler",
					ErrMissingDependency, t.name, dep,
				)
			}
		}
		remaining = append(remaining, t)
	}

	done := map[string]bool{}
	var groups [][]workflows.WorkflowStep

	for 0 < len(remaining) {
		var level []workflows.WorkflowStep
		var rest []*Task

		for _, t := range remaining {
			if satisfied(t.deps, done) {
				level = append(level, steps[t.name])
			} else {
				rest = append(rest, t)
			}
		}

		if len(level) == 0 {
			names := make([]string, len(rest))
			for nth, t := range rest {
				names[nth] = t.name
			}
			return nil, fmt.Errorf(
				"%w: in dag %s, among tasks %s",
				ErrDependencyCycle, d.name, strings.Join(names, ", "),
			)
		}

		for _, step := range level {
			done[step.Name] = true
		}
		groups = append(groups, level)
		remaining = rest
	}

	return groups, nil
}

func satisfied(deps []string, done map[string]bool) bool {
	for _, dep := range deps {
		if !done[dep] {
			return false
		}
	}
	return true
}
