package feed

import (
	"sort"

	"github.com/fleetdeck/fleetdeck/internal/model"
)

// sortDocumentsDesc orders documents by normalized creation instant, newest
// first. The sort is stable so identical inputs always produce identical
// output. Documents with a missing timestamp carry the zero instant and end
// up last.
func sortDocumentsDesc(docs []*model.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
}
