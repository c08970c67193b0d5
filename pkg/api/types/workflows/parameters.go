package workflows

import (
	"github.com/weft-dev/weft/pkg/utils/cmp"
)

type Arguments struct {
	Parameters []Parameter `json:"parameters,omitempty"`
	Artifacts  []Artifact  `json:"artifacts,omitempty"`
}

func (a *Arguments) Equal(o *Arguments) bool {
	if (a == nil) || (o == nil) {
		return (a == nil) && (o == nil)
	}
	return cmp.SliceEqWith(a.Parameters, o.Parameters, Parameter.Equal) &&
		cmp.SliceEqWith(a.Artifacts, o.Artifacts, Artifact.Equal)
}

type Inputs struct {
	Parameters []Parameter `json:"parameters,omitempty"`
	Artifacts  []Artifact  `json:"artifacts,omitempty"`
}

type Outputs struct {
	Parameters []Parameter `json:"parameters,omitempty"`
	Artifacts  []Artifact  `json:"artifacts,omitempty"`
}

type Parameter struct {
	Name       string     `json:"name"`
	Value      *string    `json:"value,omitempty"`
	Default    *string    `json:"default,omitempty"`
	GlobalName string     `json:"globalName,omitempty"`
	ValueFrom  *ValueFrom `json:"valueFrom,omitempty"`
}

func (p Parameter) Equal(o Parameter) bool {
	return p.Name == o.Name &&
		strPtrEq(p.Value, o.Value) &&
		strPtrEq(p.Default, o.Default) &&
		p.GlobalName == o.GlobalName &&
		p.ValueFrom.Equal(o.ValueFrom)
}

type ValueFrom struct {
	Path      string  `json:"path,omitempty"`
	Parameter string  `json:"parameter,omitempty"`
	Default   *string `json:"default,omitempty"`
}

func (v *ValueFrom) Equal(o *ValueFrom) bool {
	if (v == nil) || (o == nil) {
		return (v == nil) && (o == nil)
	}
	return v.Path == o.Path &&
		v.Parameter == o.Parameter &&
		strPtrEq(v.Default, o.Default)
}

// Artifact is a task input/output artifact with exactly one source set
// (or none, for outputs captured from a path).
type Artifact struct {
	Name     string        `json:"name"`
	Path     string        `json:"path,omitempty"`
	From     string        `json:"from,omitempty"`
	SubPath  string        `json:"subPath,omitempty"`
	Raw      *RawArtifact  `json:"raw,omitempty"`
	S3       *S3Artifact   `json:"s3,omitempty"`
	Git      *GitArtifact  `json:"git,omitempty"`
	HTTP     *HTTPArtifact `json:"http,omitempty"`
	GCS      *GCSArtifact  `json:"gcs,omitempty"`
	Optional bool          `json:"optional,omitempty"`
}

func (a Artifact) Equal(o Artifact) bool {
	if a.Name != o.Name || a.Path != o.Path || a.From != o.From ||
		a.SubPath != o.SubPath || a.Optional != o.Optional {
		return false
	}
	switch {
	case (a.Raw == nil) != (o.Raw == nil),
		(a.S3 == nil) != (o.S3 == nil),
		(a.Git == nil) != (o.Git == nil),
		(a.HTTP == nil) != (o.HTTP == nil),
		(a.GCS == nil) != (o.GCS == nil):
		return false
	}
	if a.Raw != nil && *a.Raw != *o.Raw {
		return false
	}
	if a.S3 != nil && *a.S3 != *o.S3 {
		return false
	}
	if a.Git != nil && *a.Git != *o.Git {
		return false
	}
	if a.HTTP != nil && *a.HTTP != *o.HTTP {
		return false
	}
	if a.GCS != nil && *a.GCS != *o.GCS {
		return false
	}
	return true
}

type RawArtifact struct {
	Data string `json:"data"`
}

type S3Artifact struct {
	Endpoint string `json:"endpoint,omitempty"`
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
}

type GitArtifact struct {
	Repo     string `json:"repo"`
	Revision string `json:"revision,omitempty"`
	Depth    uint64 `json:"depth,omitempty"`
}

type HTTPArtifact struct {
	URL string `json:"url"`
}

type GCSArtifact struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

func strPtrEq(a, b *string) bool {
	if (a == nil) || (b == nil) {
		return (a == nil) && (b == nil)
	}
	return *a == *b
}
