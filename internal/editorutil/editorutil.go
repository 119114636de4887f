// Package editorutil holds the view-range validation and
// occurrence-counting logic shared by the sessioned editor (§4.5) and
// the non-sessioned, host-filesystem editor (§4.6). Both editors speak
// the same command vocabulary and error wording; only where the bytes
// live differs.
package editorutil

import (
	"fmt"
	"strings"
)

// ValidateViewRange checks a [start, end] 1-based inclusive range
// against totalLines, per §4.5/§8. end == -1 means end-of-file.
func ValidateViewRange(totalLines int, viewRange []int) (start, end int, err error) {
	if len(viewRange) != 2 {
		return 0, 0, fmt.Errorf("view_range should be a list of two integers, got %v", viewRange)
	}

	start, end = viewRange[0], viewRange[1]

	if start < 1 || start > totalLines {
		return 0, 0, fmt.Errorf("view_range start should be within the range [1, %d], got %d", totalLines, start)
	}

	if end != -1 {
		if end > totalLines {
			return 0, 0, fmt.Errorf("view_range end should be smaller than the number of lines in the file (%d), got %d", totalLines, end)
		}
		if end < start {
			return 0, 0, fmt.Errorf("view_range end should be larger or equal than its first element (%d), got %d", start, end)
		}
	} else {
		end = totalLines
	}

	return start, end, nil
}

// Occurrence is one match of a literal in a file, identified by its
// 1-based line number.
type Occurrence struct {
	Line int
}

// FindOccurrences returns every occurrence of old in content, each
// tagged with the 1-based line number it starts on (number of newlines
// preceding the match, plus one — §4.5).
func FindOccurrences(content, old string) []Occurrence {
	if old == "" {
		return nil
	}
	var occs []Occurrence
	start := 0
	for {
		idx := strings.Index(content[start:], old)
		if idx < 0 {
			break
		}
		pos := start + idx
		line := strings.Count(content[:pos], "\n") + 1
		occs = append(occs, Occurrence{Line: line})
		start = pos + len(old)
	}
	return occs
}

// LineNumbers renders occurrences as a comma-separated list for error
// messages ("1, 2, 3").
func LineNumbers(occs []Occurrence) string {
	parts := make([]string, len(occs))
	for i, o := range occs {
		parts[i] = fmt.Sprintf("%d", o.Line)
	}
	return strings.Join(parts, ", ")
}

// ReplaceLiteral replaces old with new in content, once (replaceAll
// false) or for every occurrence (replaceAll true). Callers must have
// already validated occurrence count.
func ReplaceLiteral(content, old, new string, replaceAll bool) string {
	if replaceAll {
		return strings.ReplaceAll(content, old, new)
	}
	return strings.Replace(content, old, new, 1)
}

// NumberLines renders lines with a 1-based "N\tline" prefix, matching
// the awk '{printf "%d\t%s\n", NR, $0}' output the sessioned editor
// shells out to.
func NumberLines(lines []string, start int) string {
	var b strings.Builder
	for i, l := range lines {
		fmt.Fprintf(&b, "%d\t%s\n", start+i, l)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
