package interp

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lusush/lusush/internal/ast"
)

// applyRedirections opens each redirection's target and swaps it into the
// interpreter's current Stdin/Stdout/Stderr streams, returning a closure
// that restores the previous streams and closes anything this call opened
// (§4.4 step 2, §7 RedirectionErr). Only fds 0/1/2 are modeled as named
// streams — lusush tracks stdin/stdout/stderr directly rather than a full
// fd table, so `3>file`-style extra-fd redirection is accepted
// syntactically (the parser records Fd) but has no effect here.
func (ip *Interp) applyRedirections(redirs []ast.Redirection) (func(), error) {
	if len(redirs) == 0 {
		return func() {}, nil
	}
	savedIn, savedOut, savedErr := ip.Stdin, ip.Stdout, ip.Stderr
	var opened []io.Closer
	restore := func() {
		ip.Stdin, ip.Stdout, ip.Stderr = savedIn, savedOut, savedErr
		for _, c := range opened {
			c.Close()
		}
	}
	ex := ip.expander()
	for _, r := range redirs {
		target, err := redirectTarget(ex, r)
		if err != nil {
			restore()
			return nil, err
		}
		fd := r.Fd
		if !r.HasFd {
			fd = defaultFdFor(r.Op)
		}
		switch r.Op {
		case ast.RedirLess, ast.RedirLessGreat:
			f, err := openRedirect(r.Op, target)
			if err != nil {
				restore()
				return nil, err
			}
			opened = append(opened, f)
			ip.setStream(fd, f, nil)
		case ast.RedirGreat, ast.RedirClobber, ast.RedirDGreat:
			if r.Op == ast.RedirGreat && ip.Opts.Noclobber {
				if _, err := os.Stat(target); err == nil {
					restore()
					return nil, fmt.Errorf("%s: file exists (noclobber)", target)
				}
			}
			f, err := openRedirect(r.Op, target)
			if err != nil {
				restore()
				return nil, err
			}
			opened = append(opened, f)
			ip.setStream(fd, nil, f)
		case ast.RedirLessAnd, ast.RedirGreatAnd:
			ip.dupFd(fd, target)
		case ast.RedirHereDoc, ast.RedirHereDocStrip:
			body := ""
			if r.HereDoc != nil {
				body = r.HereDoc.Body
				if r.Op == ast.RedirHereDocStrip {
					body = stripLeadingTabs(body)
				}
				if r.HereDoc.Expand {
					if expanded, err := ip.expandHereDocBody(body); err == nil {
						body = expanded
					}
				}
			}
			ip.Stdin = strings.NewReader(body)
		case ast.RedirHereStr:
			ip.Stdin = strings.NewReader(target + "\n")
		}
	}
	return restore, nil
}

func redirectTarget(ex exEnv, r ast.Redirection) (string, error) {
	if r.Op == ast.RedirLessAnd || r.Op == ast.RedirGreatAnd {
		return r.Target.Text, nil
	}
	fields, err := ex.Word(r.Target)
	if err != nil {
		return "", err
	}
	return strings.Join(fields, " "), nil
}

// exEnv is the small slice of *expand.Env this file depends on, named
// locally so this file's signatures stay short; it is always a real
// *expand.Env at the call site.
type exEnv = wordExpander

type wordExpander interface {
	Word(ast.Word) ([]string, error)
}

func defaultFdFor(op ast.RedirOp) int {
	switch op {
	case ast.RedirLess, ast.RedirLessAnd, ast.RedirLessGreat:
		return 0
	default:
		return 1
	}
}

func openRedirect(op ast.RedirOp, target string) (*os.File, error) {
	switch op {
	case ast.RedirLess:
		return os.Open(target)
	case ast.RedirLessGreat:
		return os.OpenFile(target, os.O_RDWR|os.O_CREATE, 0644)
	case ast.RedirDGreat:
		return os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	default: // RedirGreat, RedirClobber
		return os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	}
}

func (ip *Interp) setStream(fd int, in io.Reader, out io.Writer) {
	switch fd {
	case 0:
		if in != nil {
			ip.Stdin = in
		}
	case 1:
		if out != nil {
			ip.Stdout = out
		}
	case 2:
		if out != nil {
			ip.Stderr = out
		}
	}
}

// dupFd implements `N<&M`/`N>&M` for the three modeled streams (and the
// `N<&-`/`N>&-` close form, approximated here as redirecting to an
// already-drained reader / io.Discard since lusush has no real fd table to
// close an entry out of).
func (ip *Interp) dupFd(fd int, target string) {
	if target == "-" {
		switch fd {
		case 0:
			ip.Stdin = strings.NewReader("")
		case 1:
			ip.Stdout = io.Discard
		case 2:
			ip.Stderr = io.Discard
		}
		return
	}
	var src int
	fmt.Sscanf(target, "%d", &src)
	switch {
	case fd == 2 && src == 1:
		ip.Stderr = ip.Stdout
	case fd == 1 && src == 2:
		ip.Stdout = ip.Stderr
	case fd == 0 && src == 1:
		// nonsensical but harmless: leave stdin as-is
	}
}

func stripLeadingTabs(body string) string {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimLeft(l, "\t")
	}
	return strings.Join(lines, "\n")
}

// expandHereDocBody applies parameter/command/arithmetic expansion (but not
// field splitting or pathname expansion, §4.2 here-document semantics) to an
// unquoted-delimiter here-document body.
func (ip *Interp) expandHereDocBody(body string) (string, error) {
	fields, err := ip.expander().Word(ast.Word{Text: body, Quote: 0})
	if err != nil {
		return body, err
	}
	return strings.Join(fields, " "), nil
}
