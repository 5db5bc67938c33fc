// Package errs defines the structured diagnostic shared by every stage of
// the pipeline (§7 Error Handling Design). The shape is grounded directly on
// the teacher's two error types — pkgs/parser's ParseError (Type/Token/
// Message/Context/Hint, rendered through FormatErrors/formatErrorIndicator
// with a caret line under the offending column) and runtime/parser's richer
// ParseError (Filename/Position/Expected/Got/Suggestion/Example/Note) —
// merged into one Diagnostic used by every stage instead of one type per
// stage, since the core only has one stderr-facing error format
// (`lusush: [location]: message`) regardless of which stage raised it.
package errs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lusush/lusush/internal/token"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Category is the error taxonomy from §7.
type Category int

const (
	Lexical Category = iota
	Syntactic
	Expansion
	RedirectionErr
	Execution
	BuiltinMisuse
	AssignmentErr
	SignalErr
)

func (c Category) String() string {
	switch c {
	case Lexical:
		return "lexical"
	case Syntactic:
		return "syntax"
	case Expansion:
		return "expansion"
	case RedirectionErr:
		return "redirection"
	case Execution:
		return "execution"
	case BuiltinMisuse:
		return "builtin"
	case AssignmentErr:
		return "assignment"
	case SignalErr:
		return "signal"
	default:
		return "error"
	}
}

// Code is a short E-prefixed numeric identifier for the "context-aware"
// structured error record (§7): stable across releases, suitable for a
// debugger UI or test assertions to key off of instead of message text.
type Code string

const (
	EUnterminatedQuote   Code = "E1001"
	EUnterminatedHereDoc Code = "E1002"
	EUnexpectedToken     Code = "E2001"
	EMissingKeyword      Code = "E2002"
	EUnboundVariable     Code = "E3001"
	EBadArithmetic       Code = "E3002"
	EParamRequired       Code = "E3003"
	ERedirectTarget      Code = "E4001"
	ENoclobber           Code = "E4002"
	ECommandNotFound     Code = "E5001"
	ENotExecutable       Code = "E5002"
	EBuiltinUsage        Code = "E6001"
	EReadonly            Code = "E7001"
	ESignalExit          Code = "E8001"
)

// Diagnostic is one structured error, carrying enough context to format
// both the plain `lusush: [location]: message` stderr line and the richer
// interactive breadcrumb trail (§7: "a structured error record with an
// error code, source location, and context breadcrumbs").
type Diagnostic struct {
	Category Category
	Code     Code
	Pos      token.Position
	Message  string
	// Context is a stack of "while parsing X"/"in Y" breadcrumbs, innermost
	// last, following runtime/parser's Context field generalized to a
	// chain instead of one string.
	Context []string
	// Hint is a "did you mean" suggestion, computed by edit-distance
	// against reserved words/builtin names where applicable (§4.2 Error
	// handling).
	Hint string
}

func (d *Diagnostic) Error() string {
	msg := fmt.Sprintf("lusush: %s: %s", d.Pos, d.Message)
	if len(d.Context) > 0 {
		msg += " (" + strings.Join(reverse(d.Context), ", in ") + ")"
	}
	if d.Hint != "" {
		msg += "\n    did you mean: " + d.Hint
	}
	return msg
}

func reverse(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[len(ss)-1-i] = s
	}
	return out
}

// ErrorRecordJSON renders d as the machine-readable sibling channel to the
// plain stderr line (§7): an out-of-scope interactive debugger UI consumes
// this instead of scraping formatted text. Built with sjson.Set rather than
// json.Marshal so each field is set independently and a marshal failure on
// one field (none expected, since every value here is a string/int) can
// never abort the whole record.
func (d *Diagnostic) ErrorRecordJSON() string {
	js := "{}"
	js, _ = sjson.Set(js, "category", d.Category.String())
	js, _ = sjson.Set(js, "code", string(d.Code))
	js, _ = sjson.Set(js, "message", d.Message)
	js, _ = sjson.Set(js, "line", d.Pos.Line)
	js, _ = sjson.Set(js, "column", d.Pos.Column)
	if len(d.Context) > 0 {
		js, _ = sjson.Set(js, "context", reverse(d.Context))
	}
	if d.Hint != "" {
		js, _ = sjson.Set(js, "hint", d.Hint)
	}
	return js
}

// ParseErrorRecordJSON parses a record previously produced by
// ErrorRecordJSON, used by tests and by the debugger hook's round trip.
func ParseErrorRecordJSON(js string) (code, message, hint string) {
	r := gjson.Parse(js)
	return r.Get("code").String(), r.Get("message").String(), r.Get("hint").String()
}

// WithContext returns a copy of d with an additional breadcrumb pushed.
func (d *Diagnostic) WithContext(ctx string) *Diagnostic {
	cp := *d
	cp.Context = append(append([]string{}, d.Context...), ctx)
	return &cp
}

// Indicator renders the caret line pointing at d.Pos.Column under
// sourceLine, following the teacher's formatErrorIndicator tab-aware
// column walk.
func Indicator(pos token.Position, sourceLine string) string {
	if pos.Column <= 0 || pos.Column > len(sourceLine)+1 {
		return ""
	}
	var b strings.Builder
	for i := 1; i < pos.Column; i++ {
		if i <= len(sourceLine) && sourceLine[i-1] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteByte('^')
	return b.String()
}

// Suggest returns the closest candidate to word within maxDistance
// Levenshtein edits, or "" if none qualifies — the "did you mean?" hint
// generator (§4.2).
func Suggest(word string, candidates []string, maxDistance int) string {
	best := ""
	bestDist := maxDistance + 1
	for _, c := range candidates {
		d := levenshtein(word, c)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist > maxDistance {
		return ""
	}
	return best
}

func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	row := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		row[j] = j
	}
	for i := 1; i <= la; i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= lb; j++ {
			tmp := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = min3(row[j]+1, row[j-1]+1, prev+cost)
			prev = tmp
		}
	}
	return row[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// List collects diagnostics across a parse/expand pass (§4.2: "Multiple
// errors may be collected before abandoning the current top-level
// command").
type List struct {
	Max   int
	Items []*Diagnostic
}

func NewList(max int) *List {
	if max <= 0 {
		max = 50
	}
	return &List{Max: max}
}

func (l *List) Add(d *Diagnostic) {
	if len(l.Items) >= l.Max {
		return
	}
	l.Items = append(l.Items, d)
}

func (l *List) HasErrors() bool { return len(l.Items) > 0 }

// Format renders every collected diagnostic, grouped by line, each with its
// caret indicator against sourceLines (1-indexed by line number).
func (l *List) Format(sourceLines []string) string {
	if len(l.Items) == 0 {
		return ""
	}
	byLine := map[int][]*Diagnostic{}
	var lines []int
	for _, d := range l.Items {
		if _, ok := byLine[d.Pos.Line]; !ok {
			lines = append(lines, d.Pos.Line)
		}
		byLine[d.Pos.Line] = append(byLine[d.Pos.Line], d)
	}
	sort.Ints(lines)

	var b strings.Builder
	for _, ln := range lines {
		if ln > 0 && ln <= len(sourceLines) {
			src := sourceLines[ln-1]
			fmt.Fprintf(&b, "\n%4d | %s\n", ln, src)
			for _, d := range byLine[ln] {
				fmt.Fprintf(&b, "     | %s\n", Indicator(d.Pos, src))
			}
		}
		for _, d := range byLine[ln] {
			fmt.Fprintf(&b, "%s: %s: %s", d.Pos, d.Category, d.Message)
			if d.Hint != "" {
				fmt.Fprintf(&b, "\n     note: %s", d.Hint)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}
