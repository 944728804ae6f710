package pkg

import (
	"sort"
	"strings"
)

type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

// Prefix is the marker printed in front of a line of this kind.
func (op Op) Prefix() string {
	switch op {
	case Insert:
		return "+"
	case Delete:
		return "-"
	}
	return " "
}

type DiffLine struct {
	Op   Op
	Text string
}

func (l DiffLine) String() string {
	return l.Op.Prefix() + l.Text
}

// SplitLines splits a document into lines, ignoring the final newline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// Diff compares two documents line by line.
func Diff(before, after string) []DiffLine {
	return DiffLines(SplitLines(before), SplitLines(after))
}

// DiffLines walks both sequences and, where they diverge, resynchronizes on
// the closest line they have in common. Lines skipped in b are reported as
// Insert before the lines skipped in a, which are reported as Delete. When
// no common line is left, the rest of a is Delete and the rest of b Insert.
func DiffLines(a, b []string) []DiffLine {
	positions := map[string][]int{}
	for j, line := range b {
		positions[line] = append(positions[line], j)
	}

	var out []DiffLine
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] == b[j] {
			out = append(out, DiffLine{Equal, a[i]})
			i++
			j++
			continue
		}
		si, sj, ok := resync(a, positions, i, j)
		if !ok {
			break
		}
		for _, line := range b[j:sj] {
			out = append(out, DiffLine{Insert, line})
		}
		for _, line := range a[i:si] {
			out = append(out, DiffLine{Delete, line})
		}
		i, j = si, sj
	}
	for _, line := range a[i:] {
		out = append(out, DiffLine{Delete, line})
	}
	for _, line := range b[j:] {
		out = append(out, DiffLine{Insert, line})
	}
	return out
}

// resync finds the common pair (si, sj), si >= i and sj >= j, that skips
// the fewest lines in total.
func resync(a []string, positions map[string][]int, i, j int) (int, int, bool) {
	best, bi, bj := -1, 0, 0
	for si := i; si < len(a); si++ {
		if best >= 0 && si-i >= best {
			break
		}
		ps := positions[a[si]]
		k := sort.SearchInts(ps, j)
		if k == len(ps) {
			continue
		}
		if cost := si - i + ps[k] - j; best < 0 || cost < best {
			best, bi, bj = cost, si, ps[k]
		}
	}
	return bi, bj, best >= 0
}

// Changes drops the Equal lines.
func Changes(lines []DiffLine) []DiffLine {
	return filterOp(lines, Insert, Delete)
}

// Missing returns the lines only present in the old document.
func Missing(lines []DiffLine) []DiffLine {
	return filterOp(lines, Delete)
}

// Extra returns the lines only present in the new document.
func Extra(lines []DiffLine) []DiffLine {
	return filterOp(lines, Insert)
}

func filterOp(lines []DiffLine, ops ...Op) []DiffLine {
	var out []DiffLine
	for _, l := range lines {
		for _, op := range ops {
			if l.Op == op {
				out = append(out, l)
				break
			}
		}
	}
	return out
}
