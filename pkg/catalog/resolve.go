package catalog

import (
	"sort"
	"strings"

	edlib "github.com/hbollon/go-edlib"
)

// maxSuggestions caps the list returned by Suggest.
const maxSuggestions = 5

// Resolve returns the descriptors matching a loose user query.
//
// The strategies are attempted in order; the first non-empty result wins:
//
//  1. Exact normalized match against the service name.
//  2. Exact normalized match against the alternate name.
//  3. Base-name equality (both query and service stripped of prefixes).
//  4. Substring containment in either direction over name, base name,
//     or alternate name.
//
// A locale filter restricts the candidate set before matching. An empty
// result means "no match"; callers turn that into a user-visible error,
// typically alongside Suggest output.
func (c *Catalog) Resolve(query, locale string) []Descriptor {
	normQuery := NormalizeName(query)
	if normQuery == "" {
		return nil
	}

	candidates := c.localeCandidates(locale)

	// Stage 1: exact name.
	var out []Descriptor
	for _, svc := range candidates {
		if NormalizeName(svc.Name) == normQuery {
			out = append(out, svc)
		}
	}
	if len(out) > 0 {
		return out
	}

	// Stage 2: exact alternate name.
	for _, svc := range candidates {
		if svc.AltName != "" && NormalizeName(svc.AltName) == normQuery {
			out = append(out, svc)
		}
	}
	if len(out) > 0 {
		return out
	}

	// Stage 3: base-name equality.
	baseQuery := BaseName(query)
	for _, svc := range candidates {
		if BaseName(svc.Name) == baseQuery {
			out = append(out, svc)
		}
	}
	if len(out) > 0 {
		return out
	}

	// Stage 4: substring containment, either direction.
	for _, svc := range candidates {
		if containsEither(NormalizeName(svc.Name), normQuery) ||
			containsEither(BaseName(svc.Name), baseQuery) ||
			(svc.AltName != "" && containsEither(NormalizeName(svc.AltName), normQuery)) {
			out = append(out, svc)
		}
	}
	return out
}

// Suggest returns up to 5 service names nearest to the query, for use in
// "service not found" errors. Distance is Levenshtein over normalized names.
func (c *Catalog) Suggest(query string) []string {
	normQuery := NormalizeName(query)

	type scored struct {
		name string
		dist int
	}
	ranked := make([]scored, 0, len(c.services))
	for _, svc := range c.services {
		d := edlib.LevenshteinDistance(normQuery, NormalizeName(svc.Name))
		ranked = append(ranked, scored{name: svc.Name, dist: d})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].dist < ranked[j].dist
	})

	n := len(ranked)
	if n > maxSuggestions {
		n = maxSuggestions
	}
	names := make([]string, 0, n)
	for _, s := range ranked[:n] {
		names = append(names, s.name)
	}
	return names
}

func (c *Catalog) localeCandidates(locale string) []Descriptor {
	if locale == "" {
		return c.services
	}
	var out []Descriptor
	for _, svc := range c.services {
		if matchesLocale(NormalizeName(svc.Name), locale) {
			out = append(out, svc)
		}
	}
	return out
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
