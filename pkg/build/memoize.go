package build

import (
	"fmt"

	"github.com/weft-dev/weft/pkg/api/types/workflows"
	kubecore "k8s.io/api/core/v1"
)

// Memoize caches a task's outputs in a config map, keyed by one of its
// input parameters, so re-runs with the same input are skipped.
type Memoize struct {
	// Key is the input parameter whose value keys the cache.
	Key string

	// ConfigMapName holds the cache entries.
	ConfigMapName string

	// MaxAge after which an entry is ignored ("1h"). Required by the
	// orchestrator.
	MaxAge string
}

func (m Memoize) Build() *workflows.Memoize {
	return &workflows.Memoize{
		Key:    fmt.Sprintf("{{inputs.parameters.%s}}", m.Key),
		MaxAge: m.MaxAge,
		Cache: &workflows.Cache{
			ConfigMap: &kubecore.ConfigMapKeySelector{
				LocalObjectReference: kubecore.LocalObjectReference{Name: m.ConfigMapName},
				Key:                  m.Key,
			},
		},
	}
}
