// Package workflows holds the subset of the Argo Workflows custom
// resource schema this module compiles into and exchanges with the
// workflow server.
//
// Field names and nesting follow the upstream schema. Every optional
// field is a pointer or carries omitempty: a field never set is never
// serialized, so the server sees exactly what the builder composed.
package workflows

import (
	kubecore "k8s.io/api/core/v1"
)

const (
	APIVersion = "argoproj.io/v1alpha1"

	KindWorkflow         = "Workflow"
	KindWorkflowTemplate = "WorkflowTemplate"
	KindCronWorkflow     = "CronWorkflow"
)

// ObjectMeta is the sparse metadata of a workflow object.
//
// This is deliberately not metav1.ObjectMeta: that type serializes
// `creationTimestamp: null` even when unset, and this module promises
// manifests without placeholder fields.
type ObjectMeta struct {
	Name         string            `json:"name,omitempty"`
	GenerateName string            `json:"generateName,omitempty"`
	Namespace    string            `json:"namespace,omitempty"`
	Labels       map[string]string `json:"labels,omitempty"`
	Annotations  map[string]string `json:"annotations,omitempty"`
}

type Workflow struct {
	APIVersion string          `json:"apiVersion"`
	Kind       string          `json:"kind"`
	Metadata   ObjectMeta      `json:"metadata"`
	Spec       WorkflowSpec    `json:"spec"`
	Status     *WorkflowStatus `json:"status,omitempty"`
}

type WorkflowSpec struct {
	Entrypoint           string                          `json:"entrypoint,omitempty"`
	Templates            []Template                      `json:"templates,omitempty"`
	Arguments            *Arguments                      `json:"arguments,omitempty"`
	Parallelism          *int64                          `json:"parallelism,omitempty"`
	ServiceAccountName   string                          `json:"serviceAccountName,omitempty"`
	OnExit               string                          `json:"onExit,omitempty"`
	TTLStrategy          *TTLStrategy                    `json:"ttlStrategy,omitempty"`
	VolumeClaimGC        *VolumeClaimGC                  `json:"volumeClaimGC,omitempty"`
	HostAliases          []kubecore.HostAlias            `json:"hostAliases,omitempty"`
	SecurityContext      *kubecore.PodSecurityContext    `json:"securityContext,omitempty"`
	ImagePullSecrets     []kubecore.LocalObjectReference `json:"imagePullSecrets,omitempty"`
	NodeSelector         map[string]string               `json:"nodeSelector,omitempty"`
	Affinity             *kubecore.Affinity              `json:"affinity,omitempty"`
	Tolerations          []kubecore.Toleration           `json:"tolerations,omitempty"`
	VolumeClaimTemplates []PersistentVolumeClaim         `json:"volumeClaimTemplates,omitempty"`
	Volumes              []kubecore.Volume               `json:"volumes,omitempty"`
	WorkflowTemplateRef  *WorkflowTemplateRef            `json:"workflowTemplateRef,omitempty"`
	Suspend              *bool                           `json:"suspend,omitempty"`
}

// PersistentVolumeClaim is a claim template with sparse metadata.
// (kubecore.PersistentVolumeClaim drags the metav1 null-timestamp in.)
type PersistentVolumeClaim struct {
	Metadata ObjectMeta                         `json:"metadata"`
	Spec     kubecore.PersistentVolumeClaimSpec `json:"spec"`
}

type WorkflowTemplateRef struct {
	Name         string `json:"name"`
	ClusterScope bool   `json:"clusterScope,omitempty"`
}

// Template is one executable unit in spec.templates: either a
// container template or a steps template chaining other templates.
type Template struct {
	Name          string                `json:"name"`
	Container     *kubecore.Container   `json:"container,omitempty"`
	Steps         [][]WorkflowStep      `json:"steps,omitempty"`
	Inputs        *Inputs               `json:"inputs,omitempty"`
	Outputs       *Outputs              `json:"outputs,omitempty"`
	RetryStrategy *RetryStrategy        `json:"retryStrategy,omitempty"`
	Memoize       *Memoize              `json:"memoize,omitempty"`
	Daemon        *bool                 `json:"daemon,omitempty"`
	NodeSelector  map[string]string     `json:"nodeSelector,omitempty"`
	Tolerations   []kubecore.Toleration `json:"tolerations,omitempty"`
	Metadata      *Metadata             `json:"metadata,omitempty"`
	Volumes       []kubecore.Volume     `json:"volumes,omitempty"`
}

// Metadata carries pod labels/annotations of a template.
type Metadata struct {
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// WorkflowStep is one node reference inside a steps group.
type WorkflowStep struct {
	Name      string     `json:"name"`
	Template  string     `json:"template"`
	When      string     `json:"when,omitempty"`
	Arguments *Arguments `json:"arguments,omitempty"`
}

func (s WorkflowStep) Equal(o WorkflowStep) bool {
	return s.Name == o.Name &&
		s.Template == o.Template &&
		s.When == o.When &&
		s.Arguments.Equal(o.Arguments)
}
