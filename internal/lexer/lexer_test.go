package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lusush/lusush/internal/token"
)

// scan runs the lexer to completion (or first error) and returns the kind
// and text of every token, END included, following the teacher's
// scan-then-compare-the-whole-sequence style rather than asserting one
// token at a time.
func scan(t *testing.T, src string) ([]token.Kind, []string) {
	t.Helper()
	lx := New([]byte(src))
	var kinds []token.Kind
	var texts []string
	for {
		tok, err := lx.Next()
		if err != nil {
			t.Fatalf("Next() error on %q: %s", src, err)
		}
		kinds = append(kinds, tok.Kind)
		texts = append(texts, tok.Text)
		if tok.Kind == token.END {
			return kinds, texts
		}
	}
}

func TestBasicWordsAndOperators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []token.Kind
	}{
		{
			name:     "simple command",
			input:    "echo hello world\n",
			expected: []token.Kind{token.WORD, token.WORD, token.WORD, token.NEWLINE, token.END},
		},
		{
			name:     "pipeline",
			input:    "ls | grep foo\n",
			expected: []token.Kind{token.WORD, token.PIPE, token.WORD, token.WORD, token.NEWLINE, token.END},
		},
		{
			name:     "and-or list",
			input:    "a && b || c\n",
			expected: []token.Kind{token.WORD, token.AND_AND, token.WORD, token.OR_OR, token.WORD, token.NEWLINE, token.END},
		},
		{
			name:     "background and sequence",
			input:    "sleep 1 & echo done ; echo next\n",
			expected: []token.Kind{
				token.WORD, token.WORD, token.AMP,
				token.WORD, token.WORD, token.SEMI,
				token.WORD, token.WORD, token.NEWLINE, token.END,
			},
		},
		{
			name:     "redirections",
			input:    "cmd > out 2>> err <in\n",
			expected: []token.Kind{
				token.WORD, token.GREAT, token.WORD,
				token.IO_NUMBER, token.DGREAT, token.WORD,
				token.LESS, token.WORD, token.NEWLINE, token.END,
			},
		},
		{
			name:     "assignment word before command",
			input:    "FOO=bar echo $FOO\n",
			expected: []token.Kind{token.ASSIGNMENT_WORD, token.WORD, token.WORD, token.NEWLINE, token.END},
		},
		{
			name:     "case terminators",
			input:    "a;;b;&c;;&\n",
			expected: []token.Kind{
				token.WORD, token.SEMI_SEMI,
				token.WORD, token.SEMI_AND,
				token.WORD, token.SEMI_SEMI_AND, token.NEWLINE, token.END,
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			kinds, _ := scan(t, test.input)
			if diff := cmp.Diff(test.expected, kinds); diff != "" {
				t.Errorf("token kind sequence mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWordText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single quoted literal kept verbatim",
			input:    "echo 'a b'\n",
			expected: []string{"echo", "'a b'"},
		},
		{
			name:     "double quoted word kept with quotes for the expander",
			input:    "echo \"a $b\"\n",
			expected: []string{"echo", "\"a $b\""},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, texts := scan(t, test.input)
			got := texts[:len(test.expected)]
			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Errorf("word text mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
