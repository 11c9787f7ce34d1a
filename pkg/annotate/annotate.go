// Package annotate joins a scanned Gemfile with its locked versions into the
// annotations rendered in an editor gutter, and diffs successive annotation
// sets so a renderer only touches the lines that changed.
package annotate

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/matzehuels/gemgutter/pkg/deps/ruby"
)

// UnknownVersion is displayed for a declared gem that has no lock entry.
const UnknownVersion = "(unknown)"

// Kind distinguishes version annotations from block-end fills.
type Kind int

const (
	// KindVersion carries a gem name and its locked version.
	KindVersion Kind = iota
	// KindFill carries no payload. It resets the gutter background after a
	// block so decorations of a folded block do not bleed into the next one.
	KindFill
)

func (k Kind) String() string {
	if k == KindFill {
		return "fill"
	}
	return "version"
}

// namespace scopes annotation IDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matzehuels/gemgutter/annotation"))

// Annotation is one gutter decoration.
type Annotation struct {
	ID      uuid.UUID
	Line    int
	Kind    Kind
	Name    string
	Version string
	Found   bool
	Column  int
	Length  int
}

// Label is the text shown in the gutter.
func (a Annotation) Label() string {
	if a.Kind == KindFill {
		return ""
	}
	return a.Version
}

// URL links a resolved version to its rubygems.org page.
// Fills and unknown versions have no link.
func (a Annotation) URL() string {
	if a.Kind == KindFill || !a.Found {
		return ""
	}
	return fmt.Sprintf("https://rubygems.org/gems/%s/versions/%s", url.PathEscape(a.Name), url.PathEscape(a.Version))
}

func newAnnotation(a Annotation) Annotation {
	key := fmt.Sprintf("%d\x00%d\x00%s\x00%s\x00%d\x00%d", a.Line, a.Kind, a.Name, a.Version, a.Column, a.Length)
	a.ID = uuid.NewSHA1(namespace, []byte(key))
	return a
}

// Join produces one annotation per declaration and one fill per block end,
// in line order. Join never fails: a gem missing from versions gets
// UnknownVersion.
func Join(lines []ruby.Line, versions ruby.Versions) []Annotation {
	var out []Annotation
	for _, l := range lines {
		switch l.Kind {
		case ruby.Declaration:
			version, found := versions.Lookup(l.Name)
			if !found {
				version = UnknownVersion
			}
			out = append(out, newAnnotation(Annotation{
				Line:    l.Index,
				Kind:    KindVersion,
				Name:    l.Name,
				Version: version,
				Found:   found,
				Column:  l.Column,
				Length:  l.Length,
			}))
		case ruby.BlockEnd:
			out = append(out, newAnnotation(Annotation{Line: l.Index, Kind: KindFill}))
		}
	}
	return out
}

// Diff compares two annotation sets by ID. It returns the annotations of next
// that are not in prev, and those of prev that are not in next, each in
// their original order. Unchanged annotations appear in neither list.
func Diff(prev, next []Annotation) (added, removed []Annotation) {
	before := make(map[uuid.UUID]struct{}, len(prev))
	for _, a := range prev {
		before[a.ID] = struct{}{}
	}
	after := make(map[uuid.UUID]struct{}, len(next))
	for _, a := range next {
		after[a.ID] = struct{}{}
		if _, ok := before[a.ID]; !ok {
			added = append(added, a)
		}
	}
	for _, a := range prev {
		if _, ok := after[a.ID]; !ok {
			removed = append(removed, a)
		}
	}
	return added, removed
}
