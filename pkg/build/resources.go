package build

import (
	"fmt"

	kubecore "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
)

const defaultGPUResource = "nvidia.com/gpu"

// Resources are the compute requirements of a task. Quantities are
// given in the usual manifest notation ("500m", "4Gi").
//
// A request without a limit leaves the limit open; GPUs always land in
// both, since the device plugin interface has no notion of a GPU
// request without a limit.
type Resources struct {
	CPURequest    string
	CPULimit      string
	MemoryRequest string
	MemoryLimit   string

	EphemeralRequest string
	EphemeralLimit   string

	GPUs int64

	// GPUResource names the extended resource counted by GPUs.
	// "nvidia.com/gpu" when empty.
	GPUResource string
}

func (r Resources) Build() (kubecore.ResourceRequirements, error) {
	requests := kubecore.ResourceList{}
	limits := kubecore.ResourceList{}

	for _, entry := range []struct {
		name     kubecore.ResourceName
		quantity string
		into     kubecore.ResourceList
	}{
		{kubecore.ResourceCPU, r.CPURequest, requests},
		{kubecore.ResourceCPU, r.CPULimit, limits},
		{kubecore.ResourceMemory, r.MemoryRequest, requests},
		{kubecore.ResourceMemory, r.MemoryLimit, limits},
		{kubecore.ResourceEphemeralStorage, r.EphemeralRequest, requests},
		{kubecore.ResourceEphemeralStorage, r.EphemeralLimit, limits},
	} {
		if entry.quantity == "" {
			continue
		}
		quantity, err := resource.ParseQuantity(entry.quantity)
		if err != nil {
			return kubecore.ResourceRequirements{}, fmt.Errorf(
				"cannot parse %s quantity %q: %w", entry.name, entry.quantity, err,
			)
		}
		entry.into[entry.name] = quantity
	}

	if 0 < r.GPUs {
		gpuResource := r.GPUResource
		if gpuResource == "" {
			gpuResource = defaultGPUResource
		}
		quantity := *resource.NewQuantity(r.GPUs, resource.DecimalSI)
		requests[kubecore.ResourceName(gpuResource)] = quantity
		limits[kubecore.ResourceName(gpuResource)] = quantity
	}

	requirements := kubecore.ResourceRequirements{}
	if 0 < len(requests) {
		requirements.Requests = requests
	}
	if 0 < len(limits) {
		requirements.Limits = limits
	}
	return requirements, nil
}
