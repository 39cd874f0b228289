package tabular

import (
	"regexp"
	"strconv"
	"strings"
)

// Grid is a raw table: rows of cell strings as read from a worksheet.
// Rows may be ragged.
type Grid [][]string

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9 ]+`)
)

// NormalizeHeader lowercases, collapses whitespace, and strips
// non-alphanumeric characters so header text survives the formatting
// churn of source-maintained workbooks.
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = nonAlnumRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Cell returns the cell at (row, col), or "" when the ragged row is
// too short.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	r := g[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Width returns the widest row length.
func (g Grid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// DropEmpty removes rows and columns that contain no non-blank cell.
func (g Grid) DropEmpty() Grid {
	width := g.Width()
	colUsed := make([]bool, width)

	var rows Grid
	for _, row := range g {
		used := false
		for i, cell := range row {
			if strings.TrimSpace(cell) != "" {
				used = true
				colUsed[i] = true
			}
		}
		if used {
			rows = append(rows, row)
		}
	}

	var keep []int
	for i, used := range colUsed {
		if used {
			keep = append(keep, i)
		}
	}
	if len(keep) == width {
		return rows
	}

	out := make(Grid, 0, len(rows))
	for _, row := range rows {
		compact := make([]string, 0, len(keep))
		for _, i := range keep {
			if i < len(row) {
				compact = append(compact, row[i])
			} else {
				compact = append(compact, "")
			}
		}
		out = append(out, compact)
	}
	return out
}

// isTextCell reports whether a cell holds free text rather than a
// number or blank. Used by header detection, where a header row is
// expected to carry at least two text cells.
func isTextCell(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if _, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		return false
	}
	return true
}

// parseNumber parses a cell as a float, tolerating thousands
// separators and surrounding whitespace.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" || strings.EqualFold(s, "na") || strings.EqualFold(s, "n/a") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
