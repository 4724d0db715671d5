package domain

import (
	"fmt"
	"strings"
)

// InstanceResult records what happened to one instance during a pass.
type InstanceResult struct {
	Object   Identity
	Template Identity
	Created  Identity
	Status   InstanceStatus
	Err      error
}

// UpdateReport summarises an update or revert pass.
type UpdateReport struct {
	Label   string
	Results []InstanceResult
}

// Add appends a result.
func (r *UpdateReport) Add(res InstanceResult) {
	r.Results = append(r.Results, res)
}

// Count returns the number of results with the given status.
func (r *UpdateReport) Count(status InstanceStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the failed results.
func (r *UpdateReport) Failures() []InstanceResult {
	var out []InstanceResult
	for _, res := range r.Results {
		if res.Status == InstanceStatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Status renders the user-visible status line for the pass, listing failed instances.
func (r *UpdateReport) Status() string {
	failures := r.Failures()
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d updated, %d current, %d reverted, %d skipped, %d failed",
		r.Label,
		r.Count(InstanceStatusUpdated),
		r.Count(InstanceStatusCurrent),
		r.Count(InstanceStatusReverted),
		r.Count(InstanceStatusSkipped),
		len(failures),
	)
	for _, f := range failures {
		fmt.Fprintf(&b, "\n  %s (template %s): %v", f.Object, f.Template, f.Err)
	}
	return b.String()
}
