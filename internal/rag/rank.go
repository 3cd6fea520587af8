package rag

import (
	"cmp"
	"slices"
)

// RankDocuments orders docs by descending score and keeps at most k.
// Ties keep the order the index returned them in. docs is sorted in place.
func RankDocuments(docs []RetrievedDocument, k int) []RetrievedDocument {
	slices.SortStableFunc(docs, func(a, b RetrievedDocument) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if k >= 0 && len(docs) > k {
		docs = docs[:k]
	}
	return docs
}
