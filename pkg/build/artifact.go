package build

import (
	"github.com/weft-dev/weft/pkg/api/types/workflows"
)

// Artifact constructors. Each returns the manifest fragment directly;
// there is nothing to validate beyond what the orchestrator checks.

// OutputArtifact captures path as a named artifact of the task.
func OutputArtifact(name, path string) workflows.Artifact {
	return workflows.Artifact{Name: name, Path: path}
}

// TaskArtifact mounts the named output artifact of another task.
func TaskArtifact(name, path, fromTask, fromArtifact string) workflows.Artifact {
	return workflows.Artifact{
		Name: name,
		Path: path,
		From: "{{tasks." + fromTask + ".outputs.artifacts." + fromArtifact + "}}",
	}
}

// RawArtifact materializes data as a file at path.
func RawArtifact(name, path, data string) workflows.Artifact {
	return workflows.Artifact{Name: name, Path: path, Raw: &workflows.RawArtifact{Data: data}}
}

// S3Artifact fetches an object from an S3-compatible store.
func S3Artifact(name, path, bucket, key string) workflows.Artifact {
	return workflows.Artifact{Name: name, Path: path, S3: &workflows.S3Artifact{Bucket: bucket, Key: key}}
}

// GitArtifact clones repo at revision.
func GitArtifact(name, path, repo, revision string) workflows.Artifact {
	return workflows.Artifact{Name: name, Path: path, Git: &workflows.GitArtifact{Repo: repo, Revision: revision}}
}

// HTTPArtifact downloads url.
func HTTPArtifact(name, path, url string) workflows.Artifact {
	return workflows.Artifact{Name: name, Path: path, HTTP: &workflows.HTTPArtifact{URL: url}}
}

// GCSArtifact fetches an object from Google Cloud Storage.
func GCSArtifact(name, path, bucket, key string) workflows.Artifact {
	return workflows.Artifact{Name: name, Path: path, GCS: &workflows.GCSArtifact{Bucket: bucket, Key: key}}
}
