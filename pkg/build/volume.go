package build

import (
	"fmt"

	"github.com/weft-dev/weft/pkg/api/types/workflows"
	kubecore "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
)

// VolumeFragment is the manifest slice one volume spec compiles to:
// always a mount, plus either a pod volume or a claim template.
type VolumeFragment struct {
	Mount kubecore.VolumeMount

	// Volume is set for volumes backed by something that already
	// exists (PVC, secret, config map) or lives with the pod
	// (emptyDir).
	Volume *kubecore.Volume

	// Claim is set for volumes the orchestrator provisions per
	// workflow; it lands in spec.volumeClaimTemplates.
	Claim *workflows.PersistentVolumeClaim
}

// VolumeSpec is one volume of a task.
//
// Variants: Volume (dynamically provisioned claim), ExistingVolume,
// EmptyDirVolume, SecretVolume, ConfigMapVolume.
type VolumeSpec interface {
	VolumeName() string
	Build() (VolumeFragment, error)
}

// Volume asks the orchestrator to provision a claim of Size for the
// lifetime of the workflow and mounts it at MountPath.
type Volume struct {
	Name             string
	MountPath        string
	Size             string
	StorageClassName string

	// AccessModes of the claim. ReadWriteOnce when empty.
	AccessModes []kubecore.PersistentVolumeAccessMode
}

func (v Volume) VolumeName() string { return v.Name }

func (v Volume) Build() (VolumeFragment, error) {
	if err := validateName(v.Name); err != nil {
		return VolumeFragment{}, err
	}
	size, err := resource.ParseQuantity(v.Size)
	if err != nil {
		return VolumeFragment{}, fmt.Errorf("volume %s: cannot parse size %q: %w", v.Name, v.Size, err)
	}

	accessModes := v.AccessModes
	if len(accessModes) == 0 {
		accessModes = []kubecore.PersistentVolumeAccessMode{kubecore.ReadWriteOnce}
	}

	spec := kubecore.PersistentVolumeClaimSpec{
		AccessModes: accessModes,
		Resources: kubecore.VolumeResourceRequirements{
			Requests: kubecore.ResourceList{
				kubecore.ResourceStorage: size,
			},
		},
	}
	if v.StorageClassName != "" {
		storageClassName := v.StorageClassName
		spec.StorageClassName = &storageClassName
	}

	return VolumeFragment{
		Mount: kubecore.VolumeMount{Name: v.Name, MountPath: v.MountPath},
		Claim: &workflows.PersistentVolumeClaim{
			Metadata: workflows.ObjectMeta{Name: v.Name},
			Spec:     spec,
		},
	}, nil
}

// ExistingVolume mounts a claim that already exists in the namespace.
type ExistingVolume struct {
	Name      string
	ClaimName string
	MountPath string
	ReadOnly  bool
}

func (v ExistingVolume) VolumeName() string { return v.Name }

func (v ExistingVolume) Build() (VolumeFragment, error) {
	if err := validateName(v.Name); err != nil {
		return VolumeFragment{}, err
	}
	return VolumeFragment{
		Mount: kubecore.VolumeMount{Name: v.Name, MountPath: v.MountPath, ReadOnly: v.ReadOnly},
		Volume: &kubecore.Volume{
			Name: v.Name,
			VolumeSource: kubecore.VolumeSource{
				PersistentVolumeClaim: &kubecore.PersistentVolumeClaimVolumeSource{
					ClaimName: v.ClaimName,
					ReadOnly:  v.ReadOnly,
				},
			},
		},
	}, nil
}

// EmptyDirVolume mounts a memory-backed scratch space, gone when the
// task's pod is.
type EmptyDirVolume struct {
	Name      string
	MountPath string

	// SizeLimit caps the scratch space. No limit when empty.
	SizeLimit string
}

func (v EmptyDirVolume) VolumeName() string { return v.Name }

func (v EmptyDirVolume) Build() (VolumeFragment, error) {
	if err := validateName(v.Name); err != nil {
		return VolumeFragment{}, err
	}

	source := &kubecore.EmptyDirVolumeSource{Medium: kubecore.StorageMediumMemory}
	if v.SizeLimit != "" {
		limit, err := resource.ParseQuantity(v.SizeLimit)
		if err != nil {
			return VolumeFragment{}, fmt.Errorf("volume %s: cannot parse size limit %q: %w", v.Name, v.SizeLimit, err)
		}
		source.SizeLimit = &limit
	}

	return VolumeFragment{
		Mount: kubecore.VolumeMount{Name: v.Name, MountPath: v.MountPath},
		Volume: &kubecore.Volume{
			Name:         v.Name,
			VolumeSource: kubecore.VolumeSource{EmptyDir: source},
		},
	}, nil
}

// SecretVolume mounts every key of a secret as a file.
type SecretVolume struct {
	Name       string
	SecretName string
	MountPath  string
}

func (v SecretVolume) VolumeName() string { return v.Name }

func (v SecretVolume) Build() (VolumeFragment, error) {
	if err := validateName(v.Name); err != nil {
		return VolumeFragment{}, err
	}
	return VolumeFragment{
		Mount: kubecore.VolumeMount{Name: v.Name, MountPath: v.MountPath, ReadOnly: true},
		Volume: &kubecore.Volume{
			Name: v.Name,
			VolumeSource: kubecore.VolumeSource{
				Secret: &kubecore.SecretVolumeSource{SecretName: v.SecretName},
			},
		},
	}, nil
}

// ConfigMapVolume mounts every key of a config map as a file.
type ConfigMapVolume struct {
	Name          string
	ConfigMapName string
	MountPath     string
}

func (v ConfigMapVolume) VolumeName() string { return v.Name }

func (v ConfigMapVolume) Build() (VolumeFragment, error) {
	if err := validateName(v.Name); err != nil {
		return VolumeFragment{}, err
	}
	return VolumeFragment{
		Mount: kubecore.VolumeMount{Name: v.Name, MountPath: v.MountPath, ReadOnly: true},
		Volume: &kubecore.Volume{
			Name: v.Name,
			VolumeSource: kubecore.VolumeSource{
				ConfigMap: &kubecore.ConfigMapVolumeSource{
					LocalObjectReference: kubecore.LocalObjectReference{Name: v.ConfigMapName},
				},
			},
		},
	}, nil
}
