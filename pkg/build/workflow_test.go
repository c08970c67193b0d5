package build_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/weft-dev/weft/pkg/api/types/workflows"
	"github.com/weft-dev/weft/pkg/build"
	"github.com/weft-dev/weft/pkg/utils"
	"github.com/weft-dev/weft/pkg/utils/cmp"
	"github.com/weft-dev/weft/pkg/utils/pointer"
	"github.com/weft-dev/weft/pkg/utils/try"
)

// jsonKeys marshals v and reports the keys actually serialized, so
// tests can pin down which optional fields are composed.
func jsonKeys(t *testing.T, v any) map[string]bool {
	t.Helper()

	buf := try.To(json.Marshal(v)).OrFatal(t)
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(buf, &doc); err != nil {
		t.Fatal(err)
	}

	keys := map[string]bool{}
	for key := range doc {
		keys[key] = true
	}
	return keys
}

func singleTaskWorkflow(t *testing.T, options ...build.WorkflowOption) *build.Workflow {
	t.Helper()

	w := try.To(build.NewWorkflow("pipeline", options...)).OrFatal(t)
	dag := try.To(w.Enter()).OrFatal(t)

	task := try.To(build.NewTask("train", "busybox:1.36")).OrFatal(t)
	if err := dag.Add(task); err != nil {
		t.Fatal(err)
	}
	if err := w.Exit(); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestWorkflowBuild(t *testing.T) {
	t.Run("a minimal workflow serializes nothing optional", func(t *testing.T) {
		w := singleTaskWorkflow(t)
		manifest := try.To(w.Build()).OrFatal(t)

		if manifest.APIVersion != "argoproj.io/v1alpha1" {
			t.Errorf("apiVersion did not match: %s", manifest.APIVersion)
		}
		if manifest.Kind != "Workflow" {
			t.Errorf("kind did not match: %s", manifest.Kind)
		}

		topKeys := jsonKeys(t, manifest)
		for key := range topKeys {
			switch key {
			case "apiVersion", "kind", "metadata", "spec":
				// expected
			default:
				t.Errorf("unexpected top-level key: %s", key)
			}
		}

		metaKeys := jsonKeys(t, manifest.Metadata)
		for key := range metaKeys {
			if key != "name" {
				t.Errorf("unexpected metadata key: %s", key)
			}
		}

		specKeys := jsonKeys(t, manifest.Spec)
		for key := range specKeys {
			switch key {
			case "entrypoint", "templates":
				// expected
			default:
				t.Errorf("unexpected spec key: %s", key)
			}
		}
	})

	t.Run("the entrypoint names the dag template", func(t *testing.T) {
		w := singleTaskWorkflow(t)
		manifest := try.To(w.Build()).OrFatal(t)

		if manifest.Spec.Entrypoint != "pipeline" {
			t.Errorf("entrypoint did not match: %s", manifest.Spec.Entrypoint)
		}

		names := utils.Map(manifest.Spec.Templates, func(tmpl workflows.Template) string {
			return tmpl.Name
		})
		if !cmp.SliceEq(names, []string{"train", "pipeline"}) {
			t.Errorf("template names did not match: %v", names)
		}
	})

	t.Run("options land in metadata and spec", func(t *testing.T) {
		w := singleTaskWorkflow(
			t,
			build.InNamespace("ml"),
			build.WithServiceAccount("runner"),
			build.WithParallelism(3),
			build.WithLabels(map[string]string{"team": "ml"}),
			build.WithParameters(build.Parameter{Name: "mode", Value: "full"}),
		)
		manifest := try.To(w.Build()).OrFatal(t)

		if manifest.Metadata.Namespace != "ml" {
			t.Errorf("namespace did not match: %s", manifest.Metadata.Namespace)
		}
		if manifest.Metadata.Labels["team"] != "ml" {
			t.Errorf("labels did not match: %v", manifest.Metadata.Labels)
		}
		if manifest.Spec.ServiceAccountName != "runner" {
			t.Errorf("serviceAccountName did not match: %s", manifest.Spec.ServiceAccountName)
		}
		if manifest.Spec.Parallelism == nil || *manifest.Spec.Parallelism != 3 {
			t.Errorf("parallelism did not match: %v", manifest.Spec.Parallelism)
		}
		if manifest.Spec.Arguments == nil {
			t.Fatal("arguments are not set")
		}
		params := manifest.Spec.Arguments.Parameters
		if len(params) != 1 || params[0].Name != "mode" ||
			pointer.SafeDeref(params[0].Value) != "full" {
			t.Errorf("arguments did not match: %+v", params)
		}
	})

	t.Run("building without a dag is rejected", func(t *testing.T) {
		w := try.To(build.NewWorkflow("pipeline")).OrFatal(t)
		if _, err := w.Build(); !errors.Is(err, build.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got: %v", err)
		}
	})
}

func TestWorkflowScope(t *testing.T) {
	t.Run("entering twice is rejected", func(t *testing.T) {
		w := try.To(build.NewWorkflow("pipeline")).OrFatal(t)
		if _, err := w.Enter(); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Enter(); !errors.Is(err, build.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got: %v", err)
		}
	})

	t.Run("entering over a bound dag is rejected", func(t *testing.T) {
		dag := try.To(build.NewDAG("graph")).OrFatal(t)
		w := try.To(build.NewWorkflow("pipeline", build.WithDAG(dag))).OrFatal(t)
		if _, err := w.Enter(); !errors.Is(err, build.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got: %v", err)
		}
	})

	t.Run("exiting a closed scope is rejected", func(t *testing.T) {
		w := try.To(build.NewWorkflow("pipeline")).OrFatal(t)
		if err := w.Exit(); !errors.Is(err, build.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got: %v", err)
		}
	})

	t.Run("binding a dag twice is rejected", func(t *testing.T) {
		first := try.To(build.NewDAG("first")).OrFatal(t)
		second := try.To(build.NewDAG("second")).OrFatal(t)
		if _, err := build.NewWorkflow(
			"pipeline", build.WithDAG(first), build.WithDAG(second),
		); !errors.Is(err, build.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got: %v", err)
		}
	})
}

func TestWorkflowOnExit(t *testing.T) {
	t.Run("the exit task stays out of the step groups", func(t *testing.T) {
		w := try.To(build.NewWorkflow("pipeline")).OrFatal(t)
		dag := try.To(w.Enter()).OrFatal(t)

		train := try.To(build.NewTask("train", "busybox:1.36")).OrFatal(t)
		if err := dag.Add(train); err != nil {
			t.Fatal(err)
		}

		notify := try.To(build.NewTask("notify", "busybox:1.36")).OrFatal(t)
		if err := w.OnExit(notify); err != nil {
			t.Fatal(err)
		}
		if err := w.Exit(); err != nil {
			t.Fatal(err)
		}

		manifest := try.To(w.Build()).OrFatal(t)

		if manifest.Spec.OnExit != "notify" {
			t.Errorf("onExit did not match: %s", manifest.Spec.OnExit)
		}

		// the exit handler's template is published...
		names := utils.Map(manifest.Spec.Templates, func(tmpl workflows.Template) string {
			return tmpl.Name
		})
		if !cmp.SliceEq(names, []string{"train", "notify", "pipeline"}) {
			t.Errorf("template names did not match: %v", names)
		}

		// ...but its step is not scheduled
		entry := manifest.Spec.Templates[len(manifest.Spec.Templates)-1]
		steps := stepNames(entry.Steps)
		if !cmp.SliceEqWith(steps, [][]string{{"train"}}, cmp.SliceEq) {
			t.Errorf("step groups did not match: %v", steps)
		}
	})

	t.Run("depending on the exit handler is rejected", func(t *testing.T) {
		w := try.To(build.NewWorkflow("pipeline")).OrFatal(t)
		dag := try.To(w.Enter()).OrFatal(t)

		notify := try.To(build.NewTask("notify", "busybox:1.36")).OrFatal(t)
		if err := w.OnExit(notify); err != nil {
			t.Fatal(err)
		}

		train := try.To(build.NewTask(
			"train", "busybox:1.36", build.DependsOn("notify"),
		)).OrFatal(t)
		if err := dag.Add(train); err != nil {
			t.Fatal(err)
		}
		if err := w.Exit(); err != nil {
			t.Fatal(err)
		}

		if _, err := w.Build(); !errors.Is(err, build.ErrMissingDependency) {
			t.Errorf("expected ErrMissingDependency, got: %v", err)
		}
	})

	t.Run("a whole dag can be the exit handler", func(t *testing.T) {
		w := try.To(build.NewWorkflow("pipeline")).OrFatal(t)
		dag := try.To(w.Enter()).OrFatal(t)

		train := try.To(build.NewTask("train", "busybox:1.36")).OrFatal(t)
		if err := dag.Add(train); err != nil {
			t.Fatal(err)
		}

		cleanup := try.To(build.NewDAG("cleanup")).OrFatal(t)
		collect := try.To(build.NewTask("collect", "busybox:1.36")).OrFatal(t)
		if err := cleanup.Add(collect); err != nil {
			t.Fatal(err)
		}
		if err := w.OnExitDAG(cleanup); err != nil {
			t.Fatal(err)
		}
		if err := w.Exit(); err != nil {
			t.Fatal(err)
		}

		manifest := try.To(w.Build()).OrFatal(t)

		if manifest.Spec.OnExit != "cleanup" {
			t.Errorf("onExit did not match: %s", manifest.Spec.OnExit)
		}

		names := utils.Map(manifest.Spec.Templates, func(tmpl workflows.Template) string {
			return tmpl.Name
		})
		if !cmp.SliceEq(names, []string{"train", "collect", "cleanup", "pipeline"}) {
			t.Errorf("template names did not match: %v", names)
		}
	})
}

func TestWorkflowGetParameter(t *testing.T) {
	w := try.To(build.NewWorkflow(
		"pipeline", build.WithParameters(build.Parameter{Name: "mode", Value: "full"}),
	)).OrFatal(t)

	t.Run("a declared parameter resolves to a workflow-scope reference", func(t *testing.T) {
		actual := try.To(w.GetParameter("mode")).OrFatal(t)
		if actual.Value != "{{workflow.parameters.mode}}" {
			t.Errorf("reference did not match: %v", actual.Value)
		}
	})

	t.Run("an undeclared parameter is rejected", func(t *testing.T) {
		if _, err := w.GetParameter("epochs"); !errors.Is(err, build.ErrUnknownParameter) {
			t.Errorf("expected ErrUnknownParameter, got: %v", err)
		}
	})
}

// fakeClient records the manifest it receives.
type fakeClient struct {
	created   *workflows.Workflow
	namespace string
}

func (f *fakeClient) CreateWorkflow(
	_ context.Context, namespace string, wf workflows.Workflow,
) (workflows.Workflow, error) {
	f.created = &wf
	f.namespace = namespace
	return wf, nil
}

func (f *fakeClient) DeleteWorkflow(
	_ context.Context, namespace string, workflowName string,
) (build.DeleteResult, error) {
	return build.DeleteResult{Status: "200 OK", Code: 200}, nil
}

func TestWorkflowCreate(t *testing.T) {
	t.Run("creating inside an open scope is rejected", func(t *testing.T) {
		w := try.To(build.NewWorkflow("pipeline", build.WithClient(&fakeClient{}))).OrFatal(t)
		dag := try.To(w.Enter()).OrFatal(t)
		task := try.To(build.NewTask("train", "busybox:1.36")).OrFatal(t)
		if err := dag.Add(task); err != nil {
			t.Fatal(err)
		}

		if _, err := w.Create(context.Background()); !errors.Is(err, build.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got: %v", err)
		}
	})

	t.Run("creating without a client is rejected", func(t *testing.T) {
		w := singleTaskWorkflow(t)
		if _, err := w.Create(context.Background()); !errors.Is(err, build.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got: %v", err)
		}
	})

	t.Run("the built manifest is what gets submitted", func(t *testing.T) {
		client := &fakeClient{}
		w := singleTaskWorkflow(t, build.WithClient(client), build.InNamespace("ml"))

		created := try.To(w.Create(context.Background())).OrFatal(t)

		if client.created == nil {
			t.Fatal("nothing was submitted")
		}
		if client.namespace != "ml" {
			t.Errorf("namespace did not match: %s", client.namespace)
		}
		if created.Metadata.Name != "pipeline" {
			t.Errorf("name did not match: %s", created.Metadata.Name)
		}
	})
}

func TestWorkflowTemplate(t *testing.T) {
	wt := try.To(build.NewWorkflowTemplate("common-steps")).OrFatal(t)
	dag := try.To(wt.Enter()).OrFatal(t)
	task := try.To(build.NewTask("train", "busybox:1.36")).OrFatal(t)
	if err := dag.Add(task); err != nil {
		t.Fatal(err)
	}
	if err := wt.Exit(); err != nil {
		t.Fatal(err)
	}

	manifest := try.To(wt.Build()).OrFatal(t)

	if manifest.Kind != "WorkflowTemplate" {
		t.Errorf("kind did not match: %s", manifest.Kind)
	}

	// templates are published without an entrypoint
	if manifest.Spec.Entrypoint != "" {
		t.Errorf("entrypoint should be empty: %s", manifest.Spec.Entrypoint)
	}
	names := utils.Map(manifest.Spec.Templates, func(tmpl workflows.Template) string {
		return tmpl.Name
	})
	if !cmp.SliceEq(names, []string{"train"}) {
		t.Errorf("template names did not match: %v", names)
	}
}

func TestCronWorkflow(t *testing.T) {
	t.Run("an empty schedule is rejected", func(t *testing.T) {
		w := singleTaskWorkflow(t)
		if _, err := build.NewCronWorkflow(w, ""); !errors.Is(err, build.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got: %v", err)
		}
	})

	t.Run("the schedule wraps the workflow spec", func(t *testing.T) {
		w := singleTaskWorkflow(t)
		cron := try.To(build.NewCronWorkflow(w, "0 3 * * *")).OrFatal(t)
		cron.Timezone = "Asia/Tokyo"
		cron.ConcurrencyPolicy = workflows.ConcurrencyForbid

		manifest := try.To(cron.Build()).OrFatal(t)

		if manifest.Kind != "CronWorkflow" {
			t.Errorf("kind did not match: %s", manifest.Kind)
		}
		if manifest.Spec.Schedule != "0 3 * * *" {
			t.Errorf("schedule did not match: %s", manifest.Spec.Schedule)
		}
		if manifest.Spec.Timezone != "Asia/Tokyo" {
			t.Errorf("timezone did not match: %s", manifest.Spec.Timezone)
		}
		if manifest.Spec.ConcurrencyPolicy != workflows.ConcurrencyForbid {
			t.Errorf("concurrencyPolicy did not match: %s", manifest.Spec.ConcurrencyPolicy)
		}
		if manifest.Spec.WorkflowSpec.Entrypoint != "pipeline" {
			t.Errorf("wrapped entrypoint did not match: %s", manifest.Spec.WorkflowSpec.Entrypoint)
		}
	})
}
