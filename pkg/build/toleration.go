package build

import (
	kubecore "k8s.io/api/core/v1"
)

// Toleration lets a task's pod schedule onto tainted nodes.
type Toleration struct {
	Key      string
	Operator kubecore.TolerationOperator
	Value    string
	Effect   kubecore.TaintEffect
}

func (t Toleration) Build() kubecore.Toleration {
	return kubecore.Toleration{
		Key:      t.Key,
		Operator: t.Operator,
		Value:    t.Value,
		Effect:   t.Effect,
	}
}

// GPUToleration tolerates the taint GPU node pools commonly carry.
var GPUToleration = Toleration{
	Key:      "nvidia.com/gpu",
	Operator: kubecore.TolerationOpEqual,
	Value:    "present",
	Effect:   kubecore.TaintEffectNoSchedule,
}
