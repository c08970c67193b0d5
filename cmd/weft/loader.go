package main

import (
	"bytes"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/weft-dev/weft/pkg/api/types/workflows"
	"github.com/weft-dev/weft/pkg/build"
	"github.com/weft-dev/weft/pkg/utils"
)

// workflowFile is the on-disk shape of a workflow description.
//
// Tasks are added in file order, so a task must appear after every
// task it depends on.
type workflowFile struct {
	Name               string            `yaml:"name"`
	Namespace          string            `yaml:"namespace,omitempty"`
	ServiceAccountName string            `yaml:"serviceAccountName,omitempty"`
	Parallelism        *int64            `yaml:"parallelism,omitempty"`
	Labels             map[string]string `yaml:"labels,omitempty"`
	Annotations        map[string]string `yaml:"annotations,omitempty"`
	Parameters         []parameterFile   `yaml:"parameters,omitempty"`
	TTL                *ttlFile          `yaml:"ttl,omitempty"`
	Tasks              []taskFile        `yaml:"tasks"`
}

type parameterFile struct {
	Name    string  `yaml:"name"`
	Value   *string `yaml:"value,omitempty"`
	Default *string `yaml:"default,omitempty"`
}

type ttlFile struct {
	SecondsAfterCompletion *int32 `yaml:"secondsAfterCompletion,omitempty"`
	SecondsAfterSuccess    *int32 `yaml:"secondsAfterSuccess,omitempty"`
	SecondsAfterFailure    *int32 `yaml:"secondsAfterFailure,omitempty"`
}

type taskFile struct {
	Name         string            `yaml:"name"`
	Image        string            `yaml:"image"`
	Command      []string          `yaml:"command,omitempty"`
	Args         []string          `yaml:"args,omitempty"`
	WorkingDir   string            `yaml:"workingDir,omitempty"`
	Dependencies []string          `yaml:"dependencies,omitempty"`
	Env          map[string]string `yaml:"env,omitempty"`
	Resources    *resourcesFile    `yaml:"resources,omitempty"`
	Retry        *retryFile        `yaml:"retry,omitempty"`
	When         string            `yaml:"when,omitempty"`

	// Exit marks the task as the workflow's exit handler.
	Exit bool `yaml:"exit,omitempty"`
}

type resourcesFile struct {
	CPU         string `yaml:"cpu,omitempty"`
	CPULimit    string `yaml:"cpuLimit,omitempty"`
	Memory      string `yaml:"memory,omitempty"`
	MemoryLimit string `yaml:"memoryLimit,omitempty"`
	GPUs        int64  `yaml:"gpus,omitempty"`
}

type retryFile struct {
	Limit  *int32 `yaml:"limit,omitempty"`
	Policy string `yaml:"policy,omitempty"`
}

// loadWorkflowFile reads path and assembles a workflow through the
// builder; extra options (client, namespace fallback) apply before the
// file's own settings.
func loadWorkflowFile(path string, extra ...build.WorkflowOption) (*build.Workflow, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	file := new(workflowFile)
	decoder := yaml.NewDecoder(bytes.NewReader(buf))
	decoder.KnownFields(true)
	if err := decoder.Decode(file); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}

	options := append([]build.WorkflowOption{}, extra...)
	if file.Namespace != "" {
		options = append(options, build.InNamespace(file.Namespace))
	}
	if file.ServiceAccountName != "" {
		options = append(options, build.WithServiceAccount(file.ServiceAccountName))
	}
	if file.Parallelism != nil {
		options = append(options, build.WithParallelism(*file.Parallelism))
	}
	if 0 < len(file.Labels) {
		options = append(options, build.WithLabels(file.Labels))
	}
	if 0 < len(file.Annotations) {
		options = append(options, build.WithAnnotations(file.Annotations))
	}
	if 0 < len(file.Parameters) {
		options = append(options, build.WithParameters(
			utils.Map(file.Parameters, func(p parameterFile) build.Parameter {
				parameter := build.Parameter{Name: p.Name, Default: p.Default}
				if p.Value != nil {
					parameter.Value = *p.Value
				}
				return parameter
			})...,
		))
	}
	if file.TTL != nil {
		options = append(options, build.WithTTLStrategy(workflows.TTLStrategy{
			SecondsAfterCompletion: file.TTL.SecondsAfterCompletion,
			SecondsAfterSuccess:    file.TTL.SecondsAfterSuccess,
			SecondsAfterFailure:    file.TTL.SecondsAfterFailure,
		}))
	}

	w, err := build.NewWorkflow(file.Name, options...)
	if err != nil {
		return nil, err
	}

	dag, err := w.Enter()
	if err != nil {
		return nil, err
	}

	for _, t := range file.Tasks {
		task, err := assembleTask(t)
		if err != nil {
			return nil, err
		}
		if t.Exit {
			if err := w.OnExit(task); err != nil {
				return nil, err
			}
			continue
		}
		if err := dag.Add(task); err != nil {
			return nil, err
		}
	}

	if err := w.Exit(); err != nil {
		return nil, err
	}
	return w, nil
}

func assembleTask(t taskFile) (*build.Task, error) {
	options := []build.TaskOption{}

	if 0 < len(t.Command) {
		options = append(options, build.Command(t.Command...))
	}
	if 0 < len(t.Args) {
		options = append(options, build.Args(t.Args...))
	}
	if t.WorkingDir != "" {
		options = append(options, build.WorkingDir(t.WorkingDir))
	}
	if 0 < len(t.Dependencies) {
		options = append(options, build.DependsOn(t.Dependencies...))
	}
	if t.When != "" {
		options = append(options, build.When(t.When))
	}

	// sorted keys keep the compiled manifest stable
	for _, key := range utils.KeysOf(t.Env) {
		options = append(options, build.WithEnv(build.Env{Name: key, Value: t.Env[key]}))
	}

	if t.Resources != nil {
		options = append(options, build.WithResources(build.Resources{
			CPURequest:    t.Resources.CPU,
			CPULimit:      t.Resources.CPULimit,
			MemoryRequest: t.Resources.Memory,
			MemoryLimit:   t.Resources.MemoryLimit,
			GPUs:          t.Resources.GPUs,
		}))
	}

	if t.Retry != nil {
		options = append(options, build.WithRetry(build.Retry{
			Limit:  t.Retry.Limit,
			Policy: workflows.RetryPolicy(t.Retry.Policy),
		}))
	}

	return build.NewTask(t.Name, t.Image, options...)
}
