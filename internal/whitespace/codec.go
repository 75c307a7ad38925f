// Package whitespace converts between the expanded staged sequence (items and
// placeholders) and the compact run-length form stored with a collection.
package whitespace

import (
	"sort"

	"gallery-cli/internal/model"
)

// Encode splits entries into the ordered item ids and one run per maximal
// sequence of consecutive placeholders.
func Encode(entries []model.StagedEntry) ([]string, []model.WhitespaceRun) {
	ids := []string{}
	runs := []model.WhitespaceRun{}
	run := 0
	flush := func() {
		if run > 0 {
			runs = append(runs, model.WhitespaceRun{PrecedingIndex: len(ids) - 1, Length: run})
			run = 0
		}
	}
	for _, e := range entries {
		if e.IsPlaceholder() {
			run++
			continue
		}
		flush()
		ids = append(ids, e.ID)
	}
	flush()
	return ids, runs
}

// Decode expands ids and runs back into a staged sequence. Item entries carry
// only their id; callers resolve payloads against the current pool.
//
// Runs are tolerated in any order. Runs sharing a PrecedingIndex are merged,
// non-positive lengths are ignored, and out-of-range indices clamp to the
// nearest end.
func Decode(ids []string, runs []model.WhitespaceRun) []model.StagedEntry {
	byIndex := Normalize(len(ids), runs)
	total := len(ids)
	for _, r := range byIndex {
		total += r.Length
	}

	out := make([]model.StagedEntry, 0, total)
	ri := 0
	emit := func(idx int) {
		for ri < len(byIndex) && byIndex[ri].PrecedingIndex == idx {
			for k := 0; k < byIndex[ri].Length; k++ {
				out = append(out, model.Placeholder())
			}
			ri++
		}
	}
	emit(-1)
	for i, id := range ids {
		out = append(out, model.StagedEntry{Kind: model.EntryItem, ID: id})
		emit(i)
	}
	return out
}

// Normalize returns runs clamped to [-1, itemCount-1], merged per index and
// sorted by PrecedingIndex.
func Normalize(itemCount int, runs []model.WhitespaceRun) []model.WhitespaceRun {
	merged := map[int]int{}
	for _, r := range runs {
		if r.Length <= 0 {
			continue
		}
		idx := r.PrecedingIndex
		if idx < -1 {
			idx = -1
		}
		if idx > itemCount-1 {
			idx = itemCount - 1
		}
		merged[idx] += r.Length
	}
	out := make([]model.WhitespaceRun, 0, len(merged))
	for idx, n := range merged {
		out = append(out, model.WhitespaceRun{PrecedingIndex: idx, Length: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PrecedingIndex < out[j].PrecedingIndex })
	return out
}

// FromIndexList converts the legacy whitespace form, where each entry i means
// "one block before item i" (i == itemCount is trailing), into runs.
func FromIndexList(itemCount int, indices []int) []model.WhitespaceRun {
	runs := make([]model.WhitespaceRun, 0, len(indices))
	for _, i := range indices {
		runs = append(runs, model.WhitespaceRun{PrecedingIndex: i - 1, Length: 1})
	}
	return Normalize(itemCount, runs)
}

// ToIndexList is the inverse of FromIndexList.
func ToIndexList(runs []model.WhitespaceRun) []int {
	out := []int{}
	for _, r := range runs {
		for k := 0; k < r.Length; k++ {
			out = append(out, r.PrecedingIndex+1)
		}
	}
	sort.Ints(out)
	return out
}
