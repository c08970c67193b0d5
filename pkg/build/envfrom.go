package build

import (
	kubecore "k8s.io/api/core/v1"
)

// EnvFromSpec injects a whole config map or secret as environment
// variables, optionally under a prefix.
type EnvFromSpec interface {
	Build() kubecore.EnvFromSource
}

type ConfigMapEnvFrom struct {
	ConfigMapName string
	Prefix        string
	Optional      bool
}

func (e ConfigMapEnvFrom) Build() kubecore.EnvFromSource {
	optional := e.Optional
	return kubecore.EnvFromSource{
		Prefix: e.Prefix,
		ConfigMapRef: &kubecore.ConfigMapEnvSource{
			LocalObjectReference: kubecore.LocalObjectReference{Name: e.ConfigMapName},
			Optional:             &optional,
		},
	}
}

type SecretEnvFrom struct {
	SecretName string
	Prefix     string
	Optional   bool
}

func (e SecretEnvFrom) Build() kubecore.EnvFromSource {
	optional := e.Optional
	return kubecore.EnvFromSource{
		Prefix: e.Prefix,
		SecretRef: &kubecore.SecretEnvSource{
			LocalObjectReference: kubecore.LocalObjectReference{Name: e.SecretName},
			Optional:             &optional,
		},
	}
}
