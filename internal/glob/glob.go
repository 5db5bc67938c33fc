// Package glob implements pathname expansion (§4.3 step 5): translating a
// shell glob word into matching directory entries. Grounded on
// SPEC_FULL.md's domain-stack decision to use
// github.com/bmatcuk/doublestar/v4 for pattern matching — the pack's only
// glob-capable dependency — restricted here to a single directory level
// (POSIX pathname expansion does not imply `**` recursion; that is an
// extended, opt-in glob behavior some shells add separately and is left
// disabled by default) via a manual os.ReadDir walk per path segment.
package glob

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// HasMeta reports whether word contains any glob metacharacter, including
// the extended-glob leading forms (§9: extended glob enabled by default).
func HasMeta(word string) bool {
	for i := 0; i < len(word); i++ {
		switch word[i] {
		case '*', '?', '[':
			return true
		case '@', '!', '+':
			if i+1 < len(word) && word[i+1] == '(' {
				return true
			}
		}
		if word[i] == '\\' {
			i++
		}
	}
	return false
}

// Expand returns the sorted list of paths in dir matching pattern (a single
// path segment, no slashes), or nil if nothing matches — callers fall back
// to the literal word per POSIX ("if no pathname matches... the word shall
// be left unchanged", §4.3 step 5 edge case).
func Expand(dir, pattern string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	dotGlob := strings.HasPrefix(pattern, ".")
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !dotGlob && strings.HasPrefix(name, ".") {
			continue
		}
		ok, err := doublestar.Match(translateExtGlob(pattern), name)
		if err != nil || !ok {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ExpandPath expands a full (possibly multi-segment) pathname pattern,
// walking one directory level at a time so a literal segment short-circuits
// to a direct stat instead of a full listing, and a glob segment only
// recurses into directories that survived the previous segment's match
// (§4.3 step 5). A relative pattern is resolved against base and the
// matches are returned relative (the way the shell word itself was
// relative); an absolute pattern (leading "/") is resolved and returned
// absolute, ignoring base, the way real pathname expansion treats
// `/etc/*.conf` regardless of the current directory.
func ExpandPath(base, pattern string) []string {
	absolute := strings.HasPrefix(pattern, "/")
	root := base
	if absolute {
		root = "/"
	}
	segments := strings.Split(strings.TrimPrefix(pattern, "/"), "/")
	cur := []string{""}
	walkBase := root
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		var next []string
		for _, c := range cur {
			dir := filepath.Join(walkBase, c)
			if !HasMeta(seg) {
				if _, err := os.Stat(filepath.Join(dir, seg)); err == nil {
					next = append(next, filepath.Join(c, seg))
				}
				continue
			}
			for _, m := range Expand(dir, seg) {
				next = append(next, filepath.Join(c, m))
			}
		}
		cur = next
	}
	if absolute {
		for i, c := range cur {
			cur[i] = "/" + c
		}
	}
	sort.Strings(cur)
	return cur
}

// translateExtGlob rewrites the ksh/bash extended-glob forms
// (?(…) *(…) +(…) @(…) !(…)) into doublestar's supported alternation syntax
// where possible; doublestar natively supports `{a,b}` brace alternation and
// `[...]` classes, so only the leading-operator forms need rewriting, and
// `!(...)` (negation) has no direct doublestar equivalent and is passed
// through unchanged — callers should treat a failed translation as "no
// match" rather than a parse error, consistent with POSIX's "no match
// leaves the word unchanged" fallback.
func translateExtGlob(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if (c == '@' || c == '?' || c == '+' || c == '*') && i+1 < len(pattern) && pattern[i+1] == '(' {
			depth := 1
			j := i + 2
			for j < len(pattern) && depth > 0 {
				if pattern[j] == '(' {
					depth++
				} else if pattern[j] == ')' {
					depth--
				}
				j++
			}
			inner := pattern[i+2 : j-1]
			b.WriteByte('{')
			b.WriteString(strings.ReplaceAll(inner, "|", ","))
			b.WriteByte('}')
			i = j - 1
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
