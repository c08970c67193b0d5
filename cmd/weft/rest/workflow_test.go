package rest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	prof "github.com/weft-dev/weft/cmd/weft/config/profiles"
	"github.com/weft-dev/weft/cmd/weft/rest"
	apierr "github.com/weft-dev/weft/pkg/api/types/errors"
	"github.com/weft-dev/weft/pkg/api/types/workflows"
	"github.com/weft-dev/weft/pkg/utils/try"
)

func sampleWorkflow(name string) workflows.Workflow {
	return workflows.Workflow{
		APIVersion: workflows.APIVersion,
		Kind:       workflows.KindWorkflow,
		Metadata:   workflows.ObjectMeta{Name: name, Namespace: "ml"},
		Spec: workflows.WorkflowSpec{
			Entrypoint: name,
			Templates:  []workflows.Template{{Name: name}},
		},
	}
}

func TestCreateWorkflow(t *testing.T) {
	t.Run("it posts the manifest in an envelope and returns the server's object", func(t *testing.T) {
		var request *http.Request
		var requestBody []byte

		responded := sampleWorkflow("pipeline")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			request = r
			requestBody = try.To(io.ReadAll(r.Body)).OrFatal(t)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(try.To(json.Marshal(responded)).OrFatal(t))
		}))
		defer server.Close()

		profile := prof.Profile{ApiRoot: server.URL, Token: "test-token"}
		testee := try.To(rest.NewClient(&profile)).OrFatal(t)

		actual := try.To(testee.CreateWorkflow(
			context.Background(), "ml", sampleWorkflow("pipeline"),
		)).OrFatal(t)

		if request.Method != http.MethodPost {
			t.Errorf("request is not POST (actual = %s)", request.Method)
		}
		if request.URL.Path != "/api/v1/workflows/ml" {
			t.Errorf("request path did not match: %s", request.URL.Path)
		}
		if request.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("authorization header did not match: %s", request.Header.Get("Authorization"))
		}

		envelope := map[string]json.RawMessage{}
		if err := json.Unmarshal(requestBody, &envelope); err != nil {
			t.Fatal(err)
		}
		if _, ok := envelope["workflow"]; !ok {
			t.Errorf("request body has no workflow envelope: %s", string(requestBody))
		}

		if actual.Metadata.Name != "pipeline" {
			t.Errorf("response did not match: %+v", actual)
		}
	})

	t.Run("a server responding with error is given", func(t *testing.T) {
		for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
			t.Run(fmt.Sprintf("when server responds with %d, it returns error", status), func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(status)
					w.Write(try.To(json.Marshal(
						apierr.ErrorMessage{Reason: "fake error"},
					)).OrFatal(t))
				}))
				defer server.Close()

				profile := prof.Profile{ApiRoot: server.URL}
				testee := try.To(rest.NewClient(&profile)).OrFatal(t)

				_, err := testee.CreateWorkflow(
					context.Background(), "ml", sampleWorkflow("pipeline"),
				)
				if err == nil {
					t.Fatal("expected error does not occured")
				}
				if !strings.Contains(err.Error(), "fake error") {
					t.Errorf("error does not relay the server's reason: %s", err.Error())
				}
			})
		}
	})
}

func TestLintWorkflow(t *testing.T) {
	var request *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		request = r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(try.To(json.Marshal(sampleWorkflow("pipeline"))).OrFatal(t))
	}))
	defer server.Close()

	profile := prof.Profile{ApiRoot: server.URL}
	testee := try.To(rest.NewClient(&profile)).OrFatal(t)

	try.To(testee.LintWorkflow(
		context.Background(), "ml", sampleWorkflow("pipeline"),
	)).OrFatal(t)

	if request.URL.Path != "/api/v1/workflows/ml/lint" {
		t.Errorf("request path did not match: %s", request.URL.Path)
	}
}

func TestGetWorkflow(t *testing.T) {
	t.Run("when server returns a workflow, it returns that as is", func(t *testing.T) {
		var request *http.Request
		responded := sampleWorkflow("pipeline")
		responded.Status = &workflows.WorkflowStatus{Phase: workflows.WorkflowRunning}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			request = r
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(try.To(json.Marshal(responded)).OrFatal(t))
		}))
		defer server.Close()

		profile := prof.Profile{ApiRoot: server.URL}
		testee := try.To(rest.NewClient(&profile)).OrFatal(t)

		actual := try.To(testee.GetWorkflow(context.Background(), "ml", "pipeline")).OrFatal(t)

		if request.Method != http.MethodGet {
			t.Errorf("request is not GET (actual = %s)", request.Method)
		}
		if request.URL.Path != "/api/v1/workflows/ml/pipeline" {
			t.Errorf("request path did not match: %s", request.URL.Path)
		}
		if actual.Status == nil || actual.Status.Phase != workflows.WorkflowRunning {
			t.Errorf("status did not match: %+v", actual.Status)
		}
	})

	t.Run("when server responds with 404, it returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write(try.To(json.Marshal(
				apierr.ErrorMessage{Reason: "no such workflow"},
			)).OrFatal(t))
		}))
		defer server.Close()

		profile := prof.Profile{ApiRoot: server.URL}
		testee := try.To(rest.NewClient(&profile)).OrFatal(t)

		if _, err := testee.GetWorkflow(context.Background(), "ml", "pipeline"); err == nil {
			t.Fatal("expected error does not occured")
		}
	})
}

func TestWorkflowStatus(t *testing.T) {
	for name, testcase := range map[string]struct {
		status   *workflows.WorkflowStatus
		expected workflows.WorkflowPhase
	}{
		"a running workflow reports Running": {
			status:   &workflows.WorkflowStatus{Phase: workflows.WorkflowRunning},
			expected: workflows.WorkflowRunning,
		},
		"a finished workflow reports Succeeded": {
			status:   &workflows.WorkflowStatus{Phase: workflows.WorkflowSucceeded},
			expected: workflows.WorkflowSucceeded,
		},
		"a workflow without status reports Unknown": {
			status:   nil,
			expected: workflows.WorkflowUnknown,
		},
	} {
		t.Run(name, func(t *testing.T) {
			responded := sampleWorkflow("pipeline")
			responded.Status = testcase.status

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write(try.To(json.Marshal(responded)).OrFatal(t))
			}))
			defer server.Close()

			profile := prof.Profile{ApiRoot: server.URL}
			testee := try.To(rest.NewClient(&profile)).OrFatal(t)

			actual := try.To(testee.WorkflowStatus(context.Background(), "ml", "pipeline")).OrFatal(t)
			if actual != testcase.expected {
				t.Errorf("phase did not match: (actual, expected) = (%s, %s)", actual, testcase.expected)
			}
		})
	}
}

func TestDeleteWorkflow(t *testing.T) {
	t.Run("when server accepts, it relays the verdict", func(t *testing.T) {
		var request *http.Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			request = r
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		profile := prof.Profile{ApiRoot: server.URL}
		testee := try.To(rest.NewClient(&profile)).OrFatal(t)

		result := try.To(testee.DeleteWorkflow(context.Background(), "ml", "pipeline")).OrFatal(t)

		if request.Method != http.MethodDelete {
			t.Errorf("request is not DELETE (actual = %s)", request.Method)
		}
		if request.URL.Path != "/api/v1/workflows/ml/pipeline" {
			t.Errorf("request path did not match: %s", request.URL.Path)
		}
		if result.Code != http.StatusOK {
			t.Errorf("status code did not match: %d", result.Code)
		}
	})

	t.Run("when server rejects, it returns error with the verdict", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			w.Write(try.To(json.Marshal(
				apierr.ErrorMessage{Reason: "workflow is still running"},
			)).OrFatal(t))
		}))
		defer server.Close()

		profile := prof.Profile{ApiRoot: server.URL}
		testee := try.To(rest.NewClient(&profile)).OrFatal(t)

		result, err := testee.DeleteWorkflow(context.Background(), "ml", "pipeline")
		if err == nil {
			t.Fatal("expected error does not occured")
		}
		if !strings.Contains(err.Error(), "workflow is still running") {
			t.Errorf("error does not relay the server's reason: %s", err.Error())
		}
		if result.Code != http.StatusConflict {
			t.Errorf("status code did not match: %d", result.Code)
		}
	})
}

func TestSuspendAndResume(t *testing.T) {
	for verb, call := range map[string]func(rest.WorkflowClient) (workflows.Workflow, error){
		"suspend": func(c rest.WorkflowClient) (workflows.Workflow, error) {
			return c.SuspendWorkflow(context.Background(), "ml", "pipeline")
		},
		"resume": func(c rest.WorkflowClient) (workflows.Workflow, error) {
			return c.ResumeWorkflow(context.Background(), "ml", "pipeline")
		},
	} {
		t.Run(verb, func(t *testing.T) {
			var request *http.Request
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				request = r
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write(try.To(json.Marshal(sampleWorkflow("pipeline"))).OrFatal(t))
			}))
			defer server.Close()

			profile := prof.Profile{ApiRoot: server.URL}
			testee := try.To(rest.NewClient(&profile)).OrFatal(t)

			try.To(call(testee)).OrFatal(t)

			if request.Method != http.MethodPut {
				t.Errorf("request is not PUT (actual = %s)", request.Method)
			}
			expectedPath := "/api/v1/workflows/ml/pipeline/" + verb
			if request.URL.Path != expectedPath {
				t.Errorf("request path did not match: (actual, expected) = (%s, %s)", request.URL.Path, expectedPath)
			}
		})
	}
}
