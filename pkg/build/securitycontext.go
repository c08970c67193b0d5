package build

import (
	kubecore "k8s.io/api/core/v1"
)

// WorkflowSecurityContext applies to every pod of the workflow.
type WorkflowSecurityContext struct {
	RunAsUser    *int64
	RunAsGroup   *int64
	FSGroup      *int64
	RunAsNonRoot *bool
}

func (c WorkflowSecurityContext) Build() *kubecore.PodSecurityContext {
	return &kubecore.PodSecurityContext{
		RunAsUser:    c.RunAsUser,
		RunAsGroup:   c.RunAsGroup,
		FSGroup:      c.FSGroup,
		RunAsNonRoot: c.RunAsNonRoot,
	}
}

// TaskSecurityContext applies to the container of a single task.
type TaskSecurityContext struct {
	RunAsUser                *int64
	RunAsGroup               *int64
	RunAsNonRoot             *bool
	Privileged               *bool
	AllowPrivilegeEscalation *bool

	// AdditionalCapabilities are linux capabilities added to the
	// container, e.g. "SYS_PTRACE".
	AdditionalCapabilities []string
}

func (c TaskSecurityContext) Build() *kubecore.SecurityContext {
	sc := &kubecore.SecurityContext{
		RunAsUser:                c.RunAsUser,
		RunAsGroup:               c.RunAsGroup,
		RunAsNonRoot:             c.RunAsNonRoot,
		Privileged:               c.Privileged,
		AllowPrivilegeEscalation: c.AllowPrivilegeEscalation,
	}

	if 0 < len(c.AdditionalCapabilities) {
		capabilities := make([]kubecore.Capability, len(c.AdditionalCapabilities))
		for nth, capability := range c.AdditionalCapabilities {
			capabilities[nth] = kubecore.Capability(capability)
		}
		sc.Capabilities = &kubecore.Capabilities{Add: capabilities}
	}

	return sc
}
