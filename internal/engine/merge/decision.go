package merge

import "go.trai.ch/prefab/internal/core/domain"

// PropertyState is one side of a property comparison: either a value or absent.
type PropertyState struct {
	Value   domain.Value
	Present bool
}

// Present returns the state of a property holding v.
func Present(v domain.Value) PropertyState {
	return PropertyState{Value: v, Present: true}
}

// Absent is the state of a property that is not set.
var Absent = PropertyState{}

// Equal reports whether both states are absent, or both present with equal values.
func (s PropertyState) Equal(o PropertyState) bool {
	if s.Present != o.Present {
		return false
	}
	return !s.Present || s.Value.Equal(o.Value)
}

// Outcome is the reconciliation chosen for one property.
type Outcome uint8

const (
	// TakeTemplate adopts the new template value. The live value still matched the base.
	TakeTemplate Outcome = iota + 1
	// KeepLive keeps a user override the template did not touch.
	KeepLive
	// ConflictFavorLive keeps a user override the template also changed.
	ConflictFavorLive
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case TakeTemplate:
		return "take-template"
	case KeepLive:
		return "keep-live"
	case ConflictFavorLive:
		return "conflict-favor-live"
	default:
		return "unknown"
	}
}

// Decision is the outcome for one property together with the resulting state.
// An absent Result removes the property.
type Decision struct {
	Outcome Outcome
	Result  PropertyState
}

// Decide reconciles a property across the live instance, the base snapshot and the new template.
//
//	live vs base | next vs base | outcome
//	equal        | any          | TakeTemplate
//	differs      | equal        | KeepLive
//	differs      | differs      | ConflictFavorLive
func Decide(live, base, next PropertyState) Decision {
	switch {
	case live.Equal(base):
		return Decision{Outcome: TakeTemplate, Result: next}
	case next.Equal(base):
		return Decision{Outcome: KeepLive, Result: live}
	default:
		return Decision{Outcome: ConflictFavorLive, Result: live}
	}
}
