package catalog

import (
	"sort"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
	"golang.org/x/text/cases"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

// separator ends every field, so a match never spans two fields or two listings.
const separator = "\x00"

// matcher holds the case-folded searchable text of one category, joined so a
// single scan covers every listing.
type matcher struct {
	text   string
	starts []int
}

func newMatcher(listings []models.Listing) *matcher {
	var b strings.Builder
	m := &matcher{starts: make([]int, len(listings))}
	for i, l := range listings {
		m.starts[i] = b.Len()
		for _, field := range []string{l.Title, l.Location, l.Description} {
			b.WriteString(fold(field))
			b.WriteString(separator)
		}
	}
	m.text = b.String()
	return m
}

// compile builds the automaton for a folded needle.
func compile(needle string) ahocorasick.AhoCorasick {
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		MatchKind: ahocorasick.LeftMostFirstMatch,
		DFA:       true,
	})
	return builder.Build([]string{needle})
}

// match returns the positions of the listings ac finds a match in, in catalog order.
func (m *matcher) match(ac ahocorasick.AhoCorasick) []int {
	var hits []int
	last := -1
	for _, found := range ac.FindAll(m.text) {
		i := sort.SearchInts(m.starts, found.Start()+1) - 1
		if i != last {
			hits = append(hits, i)
			last = i
		}
	}
	return hits
}

// needleOf folds a user query into the form the matcher compares against.
func needleOf(query string) string {
	return strings.ReplaceAll(fold(query), separator, "")
}

// fold normalises text for caseless comparison. A Caser keeps state, so a fresh
// one is used per call.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
