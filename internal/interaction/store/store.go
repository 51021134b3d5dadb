// Package store persists interaction records. Both implementations are
// append-only: there is no update or delete.
package store

import (
	"sort"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
)

// sortNewestFirst orders by CreatedAt descending, ties by ascending id.
func sortNewestFirst(records []models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
