// Package pattern compiles glob-style window title patterns into anchored
// matchers. `*` matches any run of characters, `?` matches exactly one,
// and everything else is literal.
package pattern

import (
	"log/slog"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheSize bounds the compiled pattern cache so a misconfigured rule list
// cannot grow it without limit.
const cacheSize = 100

type cacheKey struct {
	caseSensitive bool
	pattern       string
}

var cache, _ = lru.New[cacheKey, *Matcher](cacheSize)

// Matcher tests whether a string matches a compiled pattern. The zero
// value matches nothing.
type Matcher struct {
	re *regexp.Regexp
}

// Matches reports whether text matches the whole pattern.
func (m *Matcher) Matches(text string) bool {
	if m == nil || m.re == nil {
		return false
	}

	return m.re.MatchString(text)
}

// Compile returns a matcher for the given glob pattern, reusing a cached
// one when possible. An invalid pattern yields a matcher that never
// matches; the failure is logged, not returned.
func Compile(pattern string, caseSensitive bool) *Matcher {
	key := cacheKey{caseSensitive: caseSensitive, pattern: pattern}

	if m, ok := cache.Get(key); ok {
		return m
	}

	m := compile(pattern, caseSensitive)

	cache.Add(key, m)

	return m
}

func compile(pattern string, caseSensitive bool) *Matcher {
	var sb strings.Builder

	if !caseSensitive {
		sb.WriteString("(?i)")
	}

	sb.WriteString("^")

	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		slog.Warn("invalid glob pattern",
			slog.String("pattern", pattern),
			slog.Any("error", err),
		)

		return &Matcher{}
	}

	return &Matcher{re: re}
}
