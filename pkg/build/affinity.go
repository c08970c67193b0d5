package build

import (
	"github.com/weft-dev/weft/pkg/utils"
	kubecore "k8s.io/api/core/v1"
	kubeapimeta "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type LabelOperator string

const (
	LabelIn           LabelOperator = "In"
	LabelNotIn        LabelOperator = "NotIn"
	LabelExists       LabelOperator = "Exists"
	LabelDoesNotExist LabelOperator = "DoesNotExist"
)

// Expression is one label match requirement.
type Expression struct {
	Key      string
	Operator LabelOperator
	Values   []string
}

func (e Expression) nodeRequirement() kubecore.NodeSelectorRequirement {
	return kubecore.NodeSelectorRequirement{
		Key:      e.Key,
		Operator: kubecore.NodeSelectorOperator(e.Operator),
		Values:   e.Values,
	}
}

func (e Expression) labelRequirement() kubeapimeta.LabelSelectorRequirement {
	return kubeapimeta.LabelSelectorRequirement{
		Key:      e.Key,
		Operator: kubeapimeta.LabelSelectorOperator(e.Operator),
		Values:   e.Values,
	}
}

// PreferredSchedulingTerm is a weighted AND of expressions.
type PreferredSchedulingTerm struct {
	Weight      int32
	Expressions []Expression
}

// NodeAffinity schedules onto nodes by label.
//
// Required is an OR over terms, each term an AND of its expressions.
type NodeAffinity struct {
	Preferred []PreferredSchedulingTerm
	Required  [][]Expression
}

func (n *NodeAffinity) Build() *kubecore.NodeAffinity {
	if n == nil {
		return nil
	}

	affinity := &kubecore.NodeAffinity{}

	for _, term := range n.Preferred {
		affinity.PreferredDuringSchedulingIgnoredDuringExecution = append(
			affinity.PreferredDuringSchedulingIgnoredDuringExecution,
			kubecore.PreferredSchedulingTerm{
				Weight: term.Weight,
				Preference: kubecore.NodeSelectorTerm{
					MatchExpressions: utils.Map(term.Expressions, Expression.nodeRequirement),
				},
			},
		)
	}

	if 0 < len(n.Required) {
		affinity.RequiredDuringSchedulingIgnoredDuringExecution = &kubecore.NodeSelector{
			NodeSelectorTerms: utils.Map(n.Required, func(exprs []Expression) kubecore.NodeSelectorTerm {
				return kubecore.NodeSelectorTerm{
					MatchExpressions: utils.Map(exprs, Expression.nodeRequirement),
				}
			}),
		}
	}

	return affinity
}

// PodAffinityTerm co-locates (or separates) the task's pod with pods
// matching Selector, within the topology domain of TopologyKey.
type PodAffinityTerm struct {
	TopologyKey string
	Selector    []Expression
	Namespaces  []string
}

func (t PodAffinityTerm) build() kubecore.PodAffinityTerm {
	return kubecore.PodAffinityTerm{
		TopologyKey: t.TopologyKey,
		Namespaces:  t.Namespaces,
		LabelSelector: &kubeapimeta.LabelSelector{
			MatchExpressions: utils.Map(t.Selector, Expression.labelRequirement),
		},
	}
}

type WeightedPodAffinityTerm struct {
	Weight int32
	Term   PodAffinityTerm
}

type PodAffinity struct {
	Required  []PodAffinityTerm
	Preferred []WeightedPodAffinityTerm
}

func (p *PodAffinity) requiredTerms() []kubecore.PodAffinityTerm {
	return utils.Map(p.Required, PodAffinityTerm.build)
}

func (p *PodAffinity) preferredTerms() []kubecore.WeightedPodAffinityTerm {
	return utils.Map(p.Preferred, func(w WeightedPodAffinityTerm) kubecore.WeightedPodAffinityTerm {
		return kubecore.WeightedPodAffinityTerm{
			Weight:          w.Weight,
			PodAffinityTerm: w.Term.build(),
		}
	})
}

// Affinity aggregates the scheduling constraints of a workflow.
type Affinity struct {
	Node    *NodeAffinity
	Pod     *PodAffinity
	AntiPod *PodAffinity
}

func (a *Affinity) Build() *kubecore.Affinity {
	if a == nil {
		return nil
	}

	affinity := &kubecore.Affinity{NodeAffinity: a.Node.Build()}

	if a.Pod != nil {
		affinity.PodAffinity = &kubecore.PodAffinity{
			RequiredDuringSchedulingIgnoredDuringExecution:  a.Pod.requiredTerms(),
			PreferredDuringSchedulingIgnoredDuringExecution: a.Pod.preferredTerms(),
		}
	}

	if a.AntiPod != nil {
		affinity.PodAntiAffinity = &kubecore.PodAntiAffinity{
			RequiredDuringSchedulingIgnoredDuringExecution:  a.AntiPod.requiredTerms(),
			PreferredDuringSchedulingIgnoredDuringExecution: a.AntiPod.preferredTerms(),
		}
	}

	return affinity
}
