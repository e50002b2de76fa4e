package lifecycle

import (
	"sort"
	"time"

	"github.com/rehearse-dev/rehearse/pkg/domain"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// sortNewestFirst orders flows by last update, falling back to creation
// time for ties (stable so document order breaks remaining ties).
func sortNewestFirst(flows []domain.Flow) {
	sort.SliceStable(flows, func(i, j int) bool {
		if !flows[i].UpdatedAt.Equal(flows[j].UpdatedAt) {
			return flows[i].UpdatedAt.After(flows[j].UpdatedAt)
		}
		return flows[i].CreatedAt.After(flows[j].CreatedAt)
	})
}
