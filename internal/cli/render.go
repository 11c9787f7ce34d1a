package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/gemgutter/pkg/annotate"
)

const ellipsis = "…"

// summary counts the version annotations, split by whether the lock file
// knew the gem.
type summary struct {
	gems    int
	locked  int
	unknown int
}

func summarize(annotations []annotate.Annotation) summary {
	var s summary
	for _, a := range annotations {
		if a.Kind != annotate.KindVersion {
			continue
		}
		s.gems++
		if a.Found {
			s.locked++
		} else {
			s.unknown++
		}
	}
	return s
}

func (s summary) String() string {
	return fmt.Sprintf("%d gems · %d locked · %d unknown", s.gems, s.locked, s.unknown)
}

// renderGutter prints text with a gutter column of the given width on the
// left. Lines without an annotation and fill lines get an empty cell.
func renderGutter(text string, annotations []annotate.Annotation, width int, plain bool) string {
	byLine := make(map[int]annotate.Annotation, len(annotations))
	for _, a := range annotations {
		if prev, ok := byLine[a.Line]; ok && prev.Kind == annotate.KindVersion {
			continue
		}
		byLine[a.Line] = a
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		a, ok := byLine[i]
		cell := ""
		if ok {
			cell = a.Label()
		}
		cell = fmt.Sprintf("%-*s", width, truncate(cell, width))

		sep := iconSeparator
		if !plain {
			cell = gutterCellStyle(a, ok).Render(cell)
			sep = StyleDim.Render(sep)
		}
		b.WriteString(cell)
		b.WriteString(" ")
		b.WriteString(sep)
		b.WriteString(" ")
		b.WriteString(strings.TrimSuffix(line, "\r"))
		b.WriteString("\n")
	}
	return b.String()
}

func gutterCellStyle(a annotate.Annotation, ok bool) lipgloss.Style {
	switch {
	case !ok || a.Kind == annotate.KindFill:
		return lipgloss.NewStyle()
	case a.Found:
		return StyleSuccess
	default:
		return StyleWarning
	}
}

// renderTable lists the version annotations with their rubygems links.
func renderTable(annotations []annotate.Annotation, plain bool) string {
	var rows [][]string
	var found []bool
	for _, a := range annotations {
		if a.Kind != annotate.KindVersion {
			continue
		}
		rows = append(rows, []string{strconv.Itoa(a.Line + 1), a.Name, a.Version, a.URL()})
		found = append(found, a.Found)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Line", "Gem", "Version", "Link").
		Rows(rows...)

	if plain {
		t = t.Border(lipgloss.NormalBorder())
	} else {
		t = t.BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
			StyleFunc(func(row, col int) lipgloss.Style {
				base := lipgloss.NewStyle().Padding(0, 1)
				if row == -1 {
					return styleHeader.Padding(0, 1)
				}
				switch col {
				case 0:
					return base.Foreground(colorDim)
				case 2:
					if row >= 0 && row < len(found) && !found[row] {
						return base.Foreground(colorYellow)
					}
					return base.Foreground(colorGreen)
				case 3:
					return base.Foreground(colorBlue)
				}
				return base
			})
	}
	return t.Render() + "\n"
}

// truncate shortens s to at most width runes, marking the cut with an
// ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return ellipsis
	}
	return string(r[:width-1]) + ellipsis
}
