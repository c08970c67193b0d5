package build

import (
	"encoding/json"
	"fmt"

	kubecore "k8s.io/api/core/v1"
)

// EnvSpec is one environment variable of a task, compiled to the
// manifest fragment for it.
//
// Variants: Env (literal value or input reference), SecretEnv,
// ConfigMapEnv, FieldEnv.
type EnvSpec interface {
	// EnvName returns the name of the variable.
	EnvName() string

	// Build compiles the variable into its manifest fragment.
	Build() (kubecore.EnvVar, error)
}

// Env is a literal environment variable.
//
// Strings pass through verbatim. Any other value is JSON-encoded, so
// the container sees a JSON document it has to decode itself. Values
// that do not encode fail with ErrUnencodableValue.
//
// When ValueFromInput is set it wins over Value: the variable resolves
// to `{{inputs.parameters.<name>}}` and the task grows an input
// parameter of the same name, fed with the ValueFromInput expression.
type Env struct {
	Name           string
	Value          any
	ValueFromInput string
}

func (e Env) EnvName() string { return e.Name }

func (e Env) Build() (kubecore.EnvVar, error) {
	if e.Name == "" {
		return kubecore.EnvVar{}, fmt.Errorf("%w: env name is empty", ErrInvalidName)
	}

	if e.ValueFromInput != "" {
		return kubecore.EnvVar{
			Name:  e.Name,
			Value: fmt.Sprintf("{{inputs.parameters.%s}}", e.Name),
		}, nil
	}

	if s, ok := e.Value.(string); ok {
		return kubecore.EnvVar{Name: e.Name, Value: s}, nil
	}

	value, err := json.Marshal(e.Value)
	if err != nil {
		return kubecore.EnvVar{}, fmt.Errorf("%w: env %s: %s", ErrUnencodableValue, e.Name, err)
	}
	return kubecore.EnvVar{Name: e.Name, Value: string(value)}, nil
}

// SecretEnv reads its value from a key of a secret.
type SecretEnv struct {
	Name       string
	SecretName string
	SecretKey  string
}

func (e SecretEnv) EnvName() string { return e.Name }

func (e SecretEnv) Build() (kubecore.EnvVar, error) {
	if e.Name == "" {
		return kubecore.EnvVar{}, fmt.Errorf("%w: env name is empty", ErrInvalidName)
	}
	return kubecore.EnvVar{
		Name: e.Name,
		ValueFrom: &kubecore.EnvVarSource{
			SecretKeyRef: &kubecore.SecretKeySelector{
				LocalObjectReference: kubecore.LocalObjectReference{Name: e.SecretName},
				Key:                  e.SecretKey,
			},
		},
	}, nil
}

// ConfigMapEnv reads its value from a key of a config map.
type ConfigMapEnv struct {
	Name          string
	ConfigMapName string
	ConfigMapKey  string
}

func (e ConfigMapEnv) EnvName() string { return e.Name }

func (e ConfigMapEnv) Build() (kubecore.EnvVar, error) {
	if e.Name == "" {
		return kubecore.EnvVar{}, fmt.Errorf("%w: env name is empty", ErrInvalidName)
	}
	return kubecore.EnvVar{
		Name: e.Name,
		ValueFrom: &kubecore.EnvVarSource{
			ConfigMapKeyRef: &kubecore.ConfigMapKeySelector{
				LocalObjectReference: kubecore.LocalObjectReference{Name: e.ConfigMapName},
				Key:                  e.ConfigMapKey,
			},
		},
	}, nil
}

// FieldEnv reads its value from a field of the pod running the task.
type FieldEnv struct {
	Name      string
	FieldPath string

	// APIVersion the field path is written in terms of. "v1" when empty.
	APIVersion string
}

func (e FieldEnv) EnvName() string { return e.Name }

func (e FieldEnv) Build() (kubecore.EnvVar, error) {
	if e.Name == "" {
		return kubecore.EnvVar{}, fmt.Errorf("%w: env name is empty", ErrInvalidName)
	}
	apiVersion := e.APIVersion
	if apiVersion == "" {
		apiVersion = "v1"
	}
	return kubecore.EnvVar{
		Name: e.Name,
		ValueFrom: &kubecore.EnvVarSource{
			FieldRef: &kubecore.ObjectFieldSelector{
				FieldPath:  e.FieldPath,
				APIVersion: apiVersion,
			},
		},
	}, nil
}
