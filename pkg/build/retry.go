package build

import (
	"github.com/weft-dev/weft/pkg/api/types/workflows"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// Retry is the retry policy of a task, executed entirely by the
// orchestrator.
type Retry struct {
	// Limit caps retries. Unlimited when nil.
	Limit *int32

	// Policy picks which failures retry. The orchestrator's default
	// applies when empty.
	Policy workflows.RetryPolicy

	// Backoff between attempts, in manifest duration notation ("10s").
	Duration    string
	MaxDuration string
	Factor      *int32
}

func (r Retry) Build() *workflows.RetryStrategy {
	strategy := &workflows.RetryStrategy{RetryPolicy: r.Policy}

	if r.Limit != nil {
		limit := intstr.FromInt32(*r.Limit)
		strategy.Limit = &limit
	}

	if r.Duration != "" || r.MaxDuration != "" || r.Factor != nil {
		backoff := &workflows.Backoff{
			Duration:    r.Duration,
			MaxDuration: r.MaxDuration,
		}
		if r.Factor != nil {
			factor := intstr.FromInt32(*r.Factor)
			backoff.Factor = &factor
		}
		strategy.Backoff = backoff
	}

	return strategy
}
