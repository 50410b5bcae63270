package catalog

import (
	"strings"
	"unicode"
)

// Locale filter values accepted by Resolve.
const (
	LocaleCA = "ca"
	LocaleUS = "us"
	LocaleNA = "na"
)

// localePrefixes maps a locale filter to the name prefix families it admits.
// "na" spans multiple families; the others are a single family each.
var localePrefixes = map[string][]string{
	LocaleCA: {"hub-ca-"},
	LocaleUS: {"hub-us-"},
	LocaleNA: {"hub-na-", "hub-ca-", "hub-us-"},
}

// strippablePrefixes is the ordered prefix list used by BaseName.
// Locale-qualified prefixes come first so the longest match wins;
// the bare organizational prefix comes last.
var strippablePrefixes = []string{
	"hub-ca-",
	"hub-us-",
	"hub-na-",
	"hub-",
}

// NormalizeName converts a service name or user query to canonical form:
// lower-case, with underscores and whitespace runs collapsed to single
// hyphens, and leading/trailing hyphens trimmed.
//
// Two names are equivalent iff their normalizations are equal.
//
// Examples:
//
//	"Hub_US_Auth"   → "hub-us-auth"
//	"  hub us auth" → "hub-us-auth"
//	"hub-us-auth"   → "hub-us-auth" (unchanged)
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingSep := false
	for _, r := range name {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingSep = false
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// BaseName strips the longest matching organizational prefix from a
// normalized name. Normalization is applied first, so callers can pass raw
// user input.
//
// Examples:
//
//	"hub-us-auth" → "auth"
//	"hub-auth"    → "auth"
//	"auth"        → "auth" (no prefix)
func BaseName(name string) string {
	norm := NormalizeName(name)
	for _, prefix := range strippablePrefixes {
		if strings.HasPrefix(norm, prefix) {
			return strings.TrimPrefix(norm, prefix)
		}
	}
	return norm
}

// matchesLocale reports whether a normalized service name belongs to the
// prefix families admitted by the locale filter. An empty locale admits
// everything; an unknown locale admits nothing.
func matchesLocale(normName, locale string) bool {
	if locale == "" {
		return true
	}
	prefixes, ok := localePrefixes[strings.ToLower(locale)]
	if !ok {
		return false
	}
	for _, p := range prefixes {
		if strings.HasPrefix(normName, p) {
			return true
		}
	}
	return false
}
