package ruby

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Mode selects which declaration form ScanGemfile recognizes.
type Mode int

const (
	// ModeManifest matches `gem "name"` declarations in a Gemfile.
	ModeManifest Mode = iota
	// ModeLock matches indented `name (constraint)` entries in a Gemfile.lock.
	// The line must be indented and the name must start with a letter or
	// digit and contain only word characters, dots and dashes, so section
	// headers and keyed lines such as `remote: ...` are not declarations.
	ModeLock
)

func (m Mode) String() string {
	if m == ModeLock {
		return "lock"
	}
	return "manifest"
}

// ModeFor returns ModeLock for lock-file paths and ModeManifest otherwise.
func ModeFor(path string) Mode {
	if strings.HasSuffix(path, LockSuffix) {
		return ModeLock
	}
	return ModeManifest
}

// LineKind classifies a scanned line.
type LineKind int

const (
	Other LineKind = iota
	Declaration
	BlockEnd
)

func (k LineKind) String() string {
	switch k {
	case Declaration:
		return "declaration"
	case BlockEnd:
		return "end"
	default:
		return "other"
	}
}

// Line is the classification of one physical buffer line.
// Column and Length locate Name within the line and are counted in runes.
type Line struct {
	Index  int
	Kind   LineKind
	Name   string
	Column int
	Length int
}

const blockEndKeyword = "end"

var (
	gemPattern      = regexp.MustCompile(`^\s*gem\s+['"]([^'"\s]+)['"]`)
	lockSpecPattern = regexp.MustCompile(`^\s+([A-Za-z0-9][\w.\-]*!?)(?: \([^()]*\))?\s*$`)
)

// DeclarationPattern returns the pattern ScanGemfile uses to detect
// declarations in the given mode. The first submatch is the gem name,
// including any trailing "!".
func DeclarationPattern(mode Mode) *regexp.Regexp {
	if mode == ModeLock {
		return lockSpecPattern
	}
	return gemPattern
}

// ScanGemfile classifies every line of text. The result always has one
// entry per line, in order. Declarations take precedence over block ends.
func ScanGemfile(text string, mode Mode) []Line {
	pattern := DeclarationPattern(mode)
	raw := strings.Split(text, "\n")
	lines := make([]Line, len(raw))

	for i, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		lines[i] = Line{Index: i, Kind: Other}

		if loc := pattern.FindStringSubmatchIndex(line); loc != nil {
			start, end := loc[2], loc[3]
			name := stripSourceMarker(line[start:end])
			lines[i].Kind = Declaration
			lines[i].Name = name
			lines[i].Column = utf8.RuneCountInString(line[:start])
			lines[i].Length = utf8.RuneCountInString(name)
			continue
		}

		if strings.TrimSpace(line) == blockEndKeyword {
			lines[i].Kind = BlockEnd
		}
	}

	return lines
}

// Declarations returns only the declaration lines of a scan.
func Declarations(lines []Line) []Line {
	var out []Line
	for _, l := range lines {
		if l.Kind == Declaration {
			out = append(out, l)
		}
	}
	return out
}
