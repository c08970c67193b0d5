package workflows

import (
	kubecore "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

type RetryPolicy string

const (
	RetryPolicyAlways           RetryPolicy = "Always"
	RetryPolicyOnFailure        RetryPolicy = "OnFailure"
	RetryPolicyOnError          RetryPolicy = "OnError"
	RetryPolicyOnTransientError RetryPolicy = "OnTransientError"
)

type RetryStrategy struct {
	Limit       *intstr.IntOrString `json:"limit,omitempty"`
	RetryPolicy RetryPolicy         `json:"retryPolicy,omitempty"`
	Backoff     *Backoff            `json:"backoff,omitempty"`
}

type Backoff struct {
	Duration    string              `json:"duration,omitempty"`
	Factor      *intstr.IntOrString `json:"factor,omitempty"`
	MaxDuration string              `json:"maxDuration,omitempty"`
}

type Memoize struct {
	Key    string `json:"key"`
	Cache  *Cache `json:"cache,omitempty"`
	MaxAge string `json:"maxAge,omitempty"`
}

type Cache struct {
	ConfigMap *kubecore.ConfigMapKeySelector `json:"configMap,omitempty"`
}

type TTLStrategy struct {
	SecondsAfterCompletion *int32 `json:"secondsAfterCompletion,omitempty"`
	SecondsAfterSuccess    *int32 `json:"secondsAfterSuccess,omitempty"`
	SecondsAfterFailure    *int32 `json:"secondsAfterFailure,omitempty"`
}

func (t *TTLStrategy) Equal(o *TTLStrategy) bool {
	if (t == nil) || (o == nil) {
		return (t == nil) && (o == nil)
	}
	return i32PtrEq(t.SecondsAfterCompletion, o.SecondsAfterCompletion) &&
		i32PtrEq(t.SecondsAfterSuccess, o.SecondsAfterSuccess) &&
		i32PtrEq(t.SecondsAfterFailure, o.SecondsAfterFailure)
}

func i32PtrEq(a, b *int32) bool {
	if (a == nil) || (b == nil) {
		return (a == nil) && (b == nil)
	}
	return *a == *b
}

type VolumeClaimGCStrategy string

const (
	VolumeClaimGCOnCompletion VolumeClaimGCStrategy = "OnWorkflowCompletion"
	VolumeClaimGCOnSuccess    VolumeClaimGCStrategy = "OnWorkflowSuccess"
)

type VolumeClaimGC struct {
	Strategy VolumeClaimGCStrategy `json:"strategy"`
}
