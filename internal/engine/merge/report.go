package merge

import (
	"fmt"

	"go.trai.ch/prefab/internal/core/domain"
)

// Report describes what one merge did. Identities are in document space.
type Report struct {
	// Outcomes counts property decisions by outcome.
	Outcomes map[Outcome]int
	// Added lists template nodes that were not part of the instance.
	Added []domain.Identity
	// Dropped lists instance nodes the template no longer has.
	Dropped []domain.Identity
	// Reattached lists user-only nodes moved to a surviving ancestor.
	Reattached []domain.Identity
}

func newReport() *Report {
	return &Report{Outcomes: make(map[Outcome]int, 3)}
}

// Conflicts returns the number of overrides kept although the template changed them.
func (r *Report) Conflicts() int {
	return r.Outcomes[ConflictFavorLive]
}

// String summarises the report for logs.
func (r *Report) String() string {
	return fmt.Sprintf("%d taken, %d kept, %d conflicts, %d added, %d dropped, %d reattached",
		r.Outcomes[TakeTemplate], r.Outcomes[KeepLive], r.Outcomes[ConflictFavorLive],
		len(r.Added), len(r.Dropped), len(r.Reattached))
}

func remapAll(ids []domain.Identity, seed domain.Seed) []domain.Identity {
	for i, id := range ids {
		ids[i] = domain.Remap(id, seed)
	}
	return ids
}
