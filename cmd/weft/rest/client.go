package rest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	prof "github.com/weft-dev/weft/cmd/weft/config/profiles"
	"github.com/weft-dev/weft/pkg/api/types/workflows"
	"github.com/weft-dev/weft/pkg/build"
	xe "github.com/weft-dev/weft/pkg/errors"
	"github.com/weft-dev/weft/pkg/utils"
)

// WorkflowClient is the REST surface of the workflow server this tool
// talks to. It is a thin passthrough: no retry, timeout, or
// cancellation beyond the context given per call.
type WorkflowClient interface {
	// CreateWorkflow submits a manifest.
	//
	// Args
	//
	// - context.Context
	//
	// - string: namespace to create the workflow in
	//
	// - workflows.Workflow: manifest to be submitted
	//
	// Returns
	//
	// - workflows.Workflow: the server-assigned object
	//
	// - error
	CreateWorkflow(ctx context.Context, namespace string, wf workflows.Workflow) (workflows.Workflow, error)

	// GetWorkflow fetches a workflow by name.
	GetWorkflow(ctx context.Context, namespace string, workflowName string) (workflows.Workflow, error)

	// WorkflowStatus fetches a workflow and reports its phase.
	WorkflowStatus(ctx context.Context, namespace string, workflowName string) (workflows.WorkflowPhase, error)

	// DeleteWorkflow removes a workflow by name and relays the
	// server's verdict: status text, status code, raw body.
	DeleteWorkflow(ctx context.Context, namespace string, workflowName string) (build.DeleteResult, error)

	// LintWorkflow has the server validate a manifest without
	// creating it.
	LintWorkflow(ctx context.Context, namespace string, wf workflows.Workflow) (workflows.Workflow, error)

	// SuspendWorkflow pauses a running workflow.
	SuspendWorkflow(ctx context.Context, namespace string, workflowName string) (workflows.Workflow, error)

	// ResumeWorkflow continues a suspended workflow.
	ResumeWorkflow(ctx context.Context, namespace string, workflowName string) (workflows.Workflow, error)
}

type client struct {
	httpclient *http.Client
	api        string
	token      string
}

var _ build.Client = WorkflowClient(nil)

// NewClient creates a WorkflowClient for a Profile.
//
// # Args
//
// - *prof.Profile
//
// # Return
//
// - WorkflowClient: created client
//
// - error: If given profile is invalid, prof.ErrProfileInvalid is returned.
func NewClient(profile *prof.Profile) (WorkflowClient, error) {
	if err := profile.Verify(); err != nil {
		return nil, err
	}
	httpclient := new(http.Client)

	if profile.Cert.CA != "" {
		hc, err := trustCa(httpclient, []string{profile.Cert.CA})
		if err != nil {
			return nil, err
		}
		httpclient = hc
	}

	c := &client{
		httpclient: httpclient,
		api:        strings.TrimSuffix(profile.ApiRoot, "/"),
		token:      profile.Token,
	}

	return c, nil
}

// build URL with path
func (c *client) apipath(path ...string) string {
	path = utils.Map(path, func(p string) string {
		return strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/")
	})

	return strings.Join(utils.Concat([]string{c.api}, path), "/")
}

// do sends req with the profile's bearer token, when there is one.
func (c *client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	return resp, nil
}

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	if hc.Transport == nil {
		hc.Transport = http.DefaultTransport
	}

	tran, ok := hc.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("failed to add ca cert")
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}

		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	hc.Transport = tran
	return hc, nil
}
