// Package parser builds the command tree from a token stream, following
// the POSIX shell grammar's recursive-descent shape with one token of
// lookahead (§4.2). The overall structure — a Parser holding a single
// lookahead token, an accumulated *errs.List capped at a configurable
// maximum, and position-stamped error construction with a "did you mean"
// hint — is grounded on the teacher's pkgs/parser (addError/addSemanticError
// family, MaxErrors) and runtime/parser (richer ParseError with
// Expected/Got/Suggestion). Alias expansion is implemented by splicing a
// fresh token source onto a stack, a generalization of how the teacher
// keeps preprocessing concerns (its preprocessing.go) out of the core
// recursive-descent functions.
package parser

import (
	"strings"

	"github.com/lusush/lusush/internal/ast"
	"github.com/lusush/lusush/internal/errs"
	"github.com/lusush/lusush/internal/lexer"
	"github.com/lusush/lusush/internal/token"
)

// AliasResolver looks up alias bodies by name (§4.2 Key decisions).
type AliasResolver interface {
	Lookup(name string) (string, bool)
}

// Options configures grammar extensions. PosixMode turns off `select` and
// `[[ ]]`; `((...))`, C-style `for`, the `function` keyword, the `;&`/`;;&`
// case terminators and `time` are parsed in both modes. Arrays and process
// substitution are not parsed in either mode.
type Options struct {
	PosixMode     bool
	AliasesOn     bool
	Aliases       AliasResolver
	MaxErrors     int
	ExtendedGlob  bool
}

// NeedMoreInput names an unterminated construct for an interactive front
// end's continuation prompt (PS2). No function in this package returns it:
// ParseNextCommand reports input that ends inside an open construct as an
// ordinary syntax error in Parser.Errors.
type NeedMoreInput struct {
	// Context names what construct is unterminated, e.g. "if", "(", `"`.
	Context string
}

func (e *NeedMoreInput) Error() string { return "need more input: unterminated " + e.Context }

// reservedWordSet is consulted only at the first-word position of a new
// command (§4.1 algorithm step 6, §4.2): a WORD token whose unquoted text
// matches one of these is reinterpreted by the parser as the corresponding
// keyword. Tokens are never reclassified by the lexer itself.
var reservedWordSet = map[string]bool{
	"if": true, "then": true, "else": true, "elif": true, "fi": true,
	"for": true, "while": true, "until": true, "do": true, "done": true,
	"case": true, "esac": true, "in": true, "function": true,
	"{": true, "}": true, "!": true, "select": true, "time": true,
	"coproc": true, "[[": true, "]]": true,
}

var builtinNames = []string{
	".", ":", "alias", "bg", "break", "cd", "continue", "declare", "echo",
	"eval", "exec", "exit", "export", "fg", "getopts", "hash", "jobs",
	"kill", "local", "printf", "pwd", "read", "readonly", "return", "set",
	"shift", "shopt", "source", "test", "times", "trap", "type", "typeset",
	"ulimit", "umask", "unalias", "unset", "wait",
}

type lexFrame struct {
	lx        *lexer.Lexer
	aliasName string // non-empty if this frame is an alias expansion
}

// Parser is a recursive-descent parser over a stack of token sources (the
// base source plus any alias expansions currently being spliced in).
type Parser struct {
	opts Options

	frames    []*lexFrame
	expanding map[string]bool // alias names currently being expanded, guards recursion

	tok     token.Token
	lastPos token.Position

	source      string
	sourceLines []string

	Errors *errs.List

	// hereDocLinks pairs each HereDoc node created so far on the current
	// line with the lexer request that will fill its Body once the lexer
	// crosses that line's terminating unquoted newline.
	hereDocLinks []hdLink
}

type hdLink struct {
	hd  *ast.HereDoc
	req *lexer.HereDocRequest
}

// New creates a Parser over source text.
func New(source string, opts Options) *Parser {
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = 50
	}
	p := &Parser{
		opts:        opts,
		expanding:   map[string]bool{},
		source:      source,
		sourceLines: strings.Split(source, "\n"),
		Errors:      errs.NewList(opts.MaxErrors),
	}
	p.frames = []*lexFrame{{lx: lexer.New([]byte(source))}}
	p.advance()
	return p
}

// ParseProgram parses the entire token stream into a top-level List.
func ParseProgram(source string, opts Options) (*ast.List, *errs.List) {
	p := New(source, opts)
	prog := p.parseList(true)
	return prog, p.Errors
}

// ParseNextCommand parses one top-level command for interactive use,
// returning (nil, nil) at clean end of input. It always returns a nil
// error; an input that ends mid-construct is recorded in p.Errors.
func (p *Parser) ParseNextCommand() (ast.Node, error) {
	p.skipSeparators()
	if p.tok.Kind == token.END {
		return nil, nil
	}
	node := p.parseAndOrList()
	return node, nil
}

func (p *Parser) curFrame() *lexFrame { return p.frames[len(p.frames)-1] }

// advance pulls the next token, popping exhausted alias-expansion frames
// and clearing their recursion guard as they go.
func (p *Parser) advance() {
	for {
		t, err := p.curFrame().lx.Next()
		if err != nil {
			p.errLex(err)
			p.tok = token.Token{Kind: token.END, Pos: p.lastPos}
			return
		}
		if t.Kind == token.END && len(p.frames) > 1 {
			f := p.frames[len(p.frames)-1]
			if f.aliasName != "" {
				delete(p.expanding, f.aliasName)
			}
			p.frames = p.frames[:len(p.frames)-1]
			continue
		}
		p.tok = t
		p.lastPos = t.Pos
		if t.Kind == token.NEWLINE {
			p.resolveHereDocs()
		}
		return
	}
}

// resolveHereDocs copies each pending request's now-collected Body into its
// HereDoc node once the lexer has crossed the line's terminating newline.
func (p *Parser) resolveHereDocs() {
	for _, l := range p.hereDocLinks {
		l.hd.Body = l.req.Body
	}
	p.hereDocLinks = p.hereDocLinks[:0]
}

// tryExpandAlias is invoked explicitly by the simple-command parser right
// before it treats the current token as the command name.
func (p *Parser) tryExpandAlias() {
	if !p.opts.AliasesOn || p.opts.Aliases == nil {
		return
	}
	for {
		if p.tok.Kind != token.WORD || p.tok.Quote&token.QuotedAny != 0 {
			return
		}
		name := p.tok.Text
		if p.expanding[name] {
			return
		}
		body, ok := p.opts.Aliases.Lookup(name)
		if !ok {
			return
		}
		p.expanding[name] = true
		p.frames = append(p.frames, &lexFrame{lx: lexer.New([]byte(body + " ")), aliasName: name})
		p.advanceRaw()
	}
}

// advanceRaw is like advance but does not re-trigger alias expansion,
// avoiding an accidental extra substitution pass; tryExpandAlias's own loop
// handles chained aliases explicitly.
func (p *Parser) advanceRaw() {
	for {
		t, err := p.curFrame().lx.Next()
		if err != nil {
			p.errLex(err)
			p.tok = token.Token{Kind: token.END, Pos: p.lastPos}
			return
		}
		if t.Kind == token.END && len(p.frames) > 1 {
			f := p.frames[len(p.frames)-1]
			if f.aliasName != "" {
				delete(p.expanding, f.aliasName)
			}
			p.frames = p.frames[:len(p.frames)-1]
			continue
		}
		p.tok = t
		p.lastPos = t.Pos
		if t.Kind == token.NEWLINE {
			p.resolveHereDocs()
		}
		return
	}
}

func (p *Parser) errLex(err error) {
	if le, ok := err.(*lexer.LexError); ok {
		code := errs.EUnterminatedQuote
		if le.Kind == lexer.UnterminatedHereDoc {
			code = errs.EUnterminatedHereDoc
		}
		p.Errors.Add(&errs.Diagnostic{Category: errs.Lexical, Code: code, Pos: le.Pos, Message: le.Msg})
		return
	}
	p.Errors.Add(&errs.Diagnostic{Category: errs.Lexical, Pos: p.lastPos, Message: err.Error()})
}

func (p *Parser) errf(code errs.Code, msg string) {
	hint := ""
	if p.tok.Kind == token.WORD {
		if s := errs.Suggest(p.tok.Text, builtinNames, 2); s != "" {
			hint = s
		}
	}
	p.Errors.Add(&errs.Diagnostic{Category: errs.Syntactic, Code: code, Pos: p.tok.Pos, Message: msg, Hint: hint})
}

// atWord reports whether the current token is an unquoted WORD with text s
// — the only way the parser ever "sees" a reserved word (§4.1 Token
// invariant, §4.2).
func (p *Parser) atWord(s string) bool {
	return p.tok.Kind == token.WORD && p.tok.Text == s && p.tok.Quote&token.QuotedAny == 0
}

// atReservedPosition reports whether the current WORD, if any, names a
// reserved word recognized at this position; used by the simple-command
// parser to decide whether an unaliased bare word may still be a keyword.
func (p *Parser) atReservedPosition() bool {
	return p.tok.Kind == token.WORD && p.tok.Quote&token.QuotedAny == 0 && reservedWordSet[p.tok.Text]
}

func (p *Parser) atAnyWord(ss ...string) bool {
	for _, s := range ss {
		if p.atWord(s) {
			return true
		}
	}
	return false
}

func (p *Parser) skipSeparators() {
	for p.tok.Kind == token.NEWLINE || p.tok.Kind == token.SEMI {
		p.advance()
	}
}

func (p *Parser) skipNewlines() {
	for p.tok.Kind == token.NEWLINE {
		p.advance()
	}
}

// ---- list / and-or / pipeline -------------------------------------------------

func (p *Parser) parseList(top bool) *ast.List {
	list := &ast.List{Base: ast.NewPos(p.tok.Pos)}
	for {
		p.skipSeparators()
		if p.tok.Kind == token.END {
			break
		}
		if !top && p.atEndOfCompound() {
			break
		}
		node := p.parseAndOrList()
		if node == nil {
			p.advance() // avoid infinite loop on unrecoverable token
			continue
		}
		term := ast.TermNone
		switch p.tok.Kind {
		case token.SEMI:
			term = ast.TermSeq
			p.advance()
		case token.AMP:
			term = ast.TermAsync
			p.advance()
		case token.NEWLINE:
			term = ast.TermSeq
		}
		list.Items = append(list.Items, ast.ListItem{Node: node, Term: term})
		if len(p.Errors.Items) >= p.opts.MaxErrors {
			break
		}
	}
	return list
}

// atEndOfCompound reports whether the current token closes an enclosing
// compound construct or a case clause (used so a nested parseList inside
// if/while/case/etc. stops without consuming the closing token).
func (p *Parser) atEndOfCompound() bool {
	return p.atAnyWord("then", "else", "elif", "fi", "do", "done", "esac", "}", "]]") || p.tok.Kind == token.RPAREN ||
		p.tok.Kind == token.SEMI_SEMI || p.tok.Kind == token.SEMI_AND || p.tok.Kind == token.SEMI_SEMI_AND
}

func (p *Parser) parseAndOrList() ast.Node {
	left := p.parsePipeline()
	if left == nil {
		return nil
	}
	for p.tok.Kind == token.AND_AND || p.tok.Kind == token.OR_OR {
		op := ast.OpAnd
		if p.tok.Kind == token.OR_OR {
			op = ast.OpOr
		}
		pos := p.tok.Pos
		p.advance()
		p.skipNewlines()
		right := p.parsePipeline()
		if right == nil {
			p.errf(errs.EUnexpectedToken, "expected command after operator")
			break
		}
		left = &ast.AndOr{Base: ast.NewPos(pos), Left: left, Op: op, Right: right}
	}
	return left
}

func (p *Parser) parsePipeline() ast.Node {
	negate := false
	if p.atWord("!") {
		negate = true
		p.advance()
	}
	pos := p.tok.Pos
	first := p.parseCommand()
	if first == nil {
		if negate {
			p.errf(errs.EUnexpectedToken, "expected command after '!'")
		}
		return nil
	}
	cmds := []ast.Node{first}
	var stderrInto []bool
	for p.tok.Kind == token.PIPE || p.tok.Kind == token.PIPE_AND {
		stderrInto = append(stderrInto, p.tok.Kind == token.PIPE_AND)
		p.advance()
		p.skipNewlines()
		next := p.parseCommand()
		if next == nil {
			p.errf(errs.EUnexpectedToken, "expected command after '|'")
			break
		}
		cmds = append(cmds, next)
	}
	if len(cmds) == 1 && !negate {
		return cmds[0]
	}
	return &ast.Pipeline{Base: ast.NewPos(pos), Commands: cmds, Negate: negate, StderrInto: stderrInto}
}

// ---- command dispatch ---------------------------------------------------------

func (p *Parser) parseCommand() ast.Node {
	pos := p.tok.Pos
	switch {
	case p.tok.Kind == token.END:
		return nil
	case p.atWord("if"):
		return p.wrapRedirs(pos, p.parseIf())
	case p.atWord("for"):
		return p.wrapRedirs(pos, p.parseFor())
	case p.atWord("while"):
		return p.wrapRedirs(pos, p.parseWhile(false))
	case p.atWord("until"):
		return p.wrapRedirs(pos, p.parseWhile(true))
	case p.atWord("case"):
		return p.wrapRedirs(pos, p.parseCase())
	case !p.opts.PosixMode && p.atWord("select"):
		return p.wrapRedirs(pos, p.parseSelect())
	case p.atWord("function"):
		return p.parseFunctionDefKeyword()
	case p.atWord("{"):
		return p.wrapRedirs(pos, p.parseBraceGroup())
	case p.tok.Kind == token.LPAREN:
		return p.wrapRedirs(pos, p.parseSubshell())
	case p.tok.Kind == token.DLPAREN:
		return p.wrapRedirs(pos, p.parseArithmeticCmd())
	case !p.opts.PosixMode && p.atWord("[["):
		return p.wrapRedirs(pos, p.parseCondExpr())
	case p.atWord("time"):
		p.advance() // time is tracked by the (out-of-scope) debugger/telemetry layer only
		return p.parseCommand()
	default:
		if p.atReservedPosition() {
			p.errf(errs.EUnexpectedToken, "unexpected keyword '"+p.tok.Text+"'")
			return nil
		}
		if name, body, ok := p.peekFunctionDefShorthand(); ok {
			return p.finishFunctionDef(pos, name, body)
		}
		return p.parseSimpleCommand()
	}
}

// wrapRedirs attaches any redirections trailing a compound command.
func (p *Parser) wrapRedirs(pos token.Position, node ast.Node) ast.Node {
	var redirs []ast.Redirection
	for {
		r, ok := p.tryParseRedirection()
		if !ok {
			break
		}
		redirs = append(redirs, r)
	}
	if len(redirs) == 0 {
		return node
	}
	return &ast.Redirected{Base: ast.NewPos(pos), Node: node, Redirs: redirs}
}

// peekFunctionDefShorthand recognizes `name ( ) body` without the `function`
// keyword. Only triggers when the word is immediately followed by `()`.
func (p *Parser) peekFunctionDefShorthand() (string, ast.Node, bool) {
	if p.tok.Kind != token.WORD || p.tok.Quote&token.QuotedAny != 0 {
		return "", nil, false
	}
	if !p.curFrame().lx.PeekIsParenParen() {
		return "", nil, false
	}
	name := p.tok.Text
	p.advance() // name
	p.advance() // (
	p.advance() // )
	p.skipNewlines()
	body := p.parseCommand()
	return name, body, true
}

func (p *Parser) parseFunctionDefKeyword() ast.Node {
	pos := p.tok.Pos
	p.advance() // function
	if p.tok.Kind != token.WORD {
		p.errf(errs.EUnexpectedToken, "expected function name")
		return nil
	}
	name := p.tok.Text
	p.advance()
	// optional ()
	if p.tok.Kind == token.LPAREN {
		p.advance()
		if p.tok.Kind == token.RPAREN {
			p.advance()
		} else {
			p.errf(errs.EUnexpectedToken, "expected ')' in function definition")
		}
	}
	p.skipNewlines()
	body := p.parseCommand()
	return p.finishFunctionDef(pos, name, body)
}

func (p *Parser) finishFunctionDef(pos token.Position, name string, body ast.Node) ast.Node {
	if body == nil {
		p.errf(errs.EUnexpectedToken, "expected function body")
	}
	return &ast.FunctionDef{Base: ast.NewPos(pos), Name: name, Body: body}
}

// ---- simple command ------------------------------------------------------

func (p *Parser) parseSimpleCommand() ast.Node {
	pos := p.tok.Pos
	cmd := &ast.SimpleCommand{Base: ast.NewPos(pos)}

	sawCommandWord := false
	for {
		switch {
		case p.tok.Kind == token.ASSIGNMENT_WORD && !sawCommandWord:
			name, val, ok := splitAssignment(p.tok.Text)
			if !ok {
				p.errf(errs.EUnexpectedToken, "malformed assignment")
				return cmd
			}
			cmd.Assigns = append(cmd.Assigns, ast.Assign{
				Name:  name,
				Value: ast.Word{Text: val, Quote: p.tok.Quote, Pos: p.tok.Pos},
				Pos:   p.tok.Pos,
			})
			p.advance()
		case p.tok.Kind == token.WORD || p.tok.Kind == token.ASSIGNMENT_WORD:
			// An ASSIGNMENT_WORD-shaped token seen after the first command
			// word reverts to an ordinary WORD (§3 Token invariant).
			if !sawCommandWord {
				p.tryExpandAlias()
			}
			cmd.Words = append(cmd.Words, ast.Word{Text: p.tok.Text, Quote: p.tok.Quote, Pos: p.tok.Pos})
			sawCommandWord = true
			p.advance()
		default:
			if r, ok := p.tryParseRedirection(); ok {
				cmd.Redirs = append(cmd.Redirs, r)
				continue
			}
			goto done
		}
	}
done:
	if len(cmd.Assigns) == 0 && len(cmd.Words) == 0 && len(cmd.Redirs) == 0 {
		return nil
	}
	return cmd
}

// splitAssignment splits "NAME=value" (or "NAME+=value") preserving the
// name captured before the '=' was consumed, per the Token invariant in §3.
func splitAssignment(text string) (name, value string, ok bool) {
	i := strings.IndexByte(text, '=')
	if i < 0 {
		return "", "", false
	}
	name = text[:i]
	value = text[i+1:]
	if strings.HasSuffix(name, "+") {
		name = strings.TrimSuffix(name, "+")
	}
	return name, value, true
}

// ---- redirections ---------------------------------------------------------

var redirOps = map[token.Kind]ast.RedirOp{
	token.LESS:       ast.RedirLess,
	token.GREAT:      ast.RedirGreat,
	token.DGREAT:     ast.RedirDGreat,
	token.LESS_AND:   ast.RedirLessAnd,
	token.GREAT_AND:  ast.RedirGreatAnd,
	token.LESS_GREAT: ast.RedirLessGreat,
	token.CLOBBER:    ast.RedirClobber,
}

func defaultFd(op ast.RedirOp) int {
	switch op {
	case ast.RedirLess, ast.RedirLessAnd, ast.RedirLessGreat, ast.RedirHereDoc, ast.RedirHereDocStrip, ast.RedirHereStr:
		return 0
	default:
		return 1
	}
}

// tryParseRedirection consumes an optional IO_NUMBER then a redirection
// operator and its target word (§4.1 algorithm step 8, §3 Redirection).
func (p *Parser) tryParseRedirection() (ast.Redirection, bool) {
	pos := p.tok.Pos
	hasFd := false
	fd := -1
	if p.tok.Kind == token.IO_NUMBER {
		var n int
		for _, c := range p.tok.Text {
			n = n*10 + int(c-'0')
		}
		fd = n
		hasFd = true
		p.advance()
	}

	switch p.tok.Kind {
	case token.DLESS, token.DLESS_DASH:
		strip := p.tok.Kind == token.DLESS_DASH
		p.advance()
		if p.tok.Kind != token.WORD {
			p.errf(errs.EUnexpectedToken, "expected here-document delimiter")
			return ast.Redirection{}, false
		}
		delim := stripQuotesForDelim(p.tok.Text)
		quoted := p.tok.Quote&token.QuotedAny != 0
		req := p.curFrame().lx.RequestHereDoc(delim, quoted, strip)
		target := ast.Word{Text: p.tok.Text, Quote: p.tok.Quote, Pos: p.tok.Pos}
		p.advance()
		op := ast.RedirHereDoc
		if strip {
			op = ast.RedirHereDocStrip
		}
		if !hasFd {
			fd = 0
		}
		hd := &ast.HereDoc{Expand: !quoted}
		p.hereDocLinks = append(p.hereDocLinks, hdLink{hd: hd, req: req})
		return ast.Redirection{Fd: fd, HasFd: hasFd, Op: op, Target: target, Pos: pos, HereDoc: hd}, true
	default:
		op, ok := redirOps[p.tok.Kind]
		if !ok {
			return ast.Redirection{}, false
		}
		p.advance()
		if p.tok.Kind != token.WORD {
			p.errf(errs.ERedirectTarget, "expected redirection target")
			return ast.Redirection{}, false
		}
		if !hasFd {
			fd = defaultFd(op)
		}
		target := ast.Word{Text: p.tok.Text, Quote: p.tok.Quote, Pos: p.tok.Pos}
		p.advance()
		return ast.Redirection{Fd: fd, HasFd: hasFd, Op: op, Target: target, Pos: pos}, true
	}
}

func stripQuotesForDelim(s string) string {
	var b strings.Builder
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == '\\' && !inSingle && i+1 < len(s):
			i++
			b.WriteByte(s[i])
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ---- compound commands -----------------------------------------------------

func (p *Parser) parseIf() ast.Node {
	pos := p.tok.Pos
	p.advance() // if
	cond := p.parseList(false)
	if !p.atWord("then") {
		p.errf(errs.EMissingKeyword, "expected 'then'")
	} else {
		p.advance()
	}
	then := p.parseList(false)

	n := &ast.If{Base: ast.NewPos(pos), Cond: cond, Then: then}
	for p.atWord("elif") {
		p.advance()
		econd := p.parseList(false)
		if !p.atWord("then") {
			p.errf(errs.EMissingKeyword, "expected 'then'")
		} else {
			p.advance()
		}
		ebody := p.parseList(false)
		n.Elif = append(n.Elif, ast.ElifClause{Cond: econd, Body: ebody})
	}
	if p.atWord("else") {
		p.advance()
		n.Else = p.parseList(false)
	}
	if !p.atWord("fi") {
		p.errf(errs.EMissingKeyword, "expected 'fi'")
	} else {
		p.advance()
	}
	return n
}

func (p *Parser) parseDoGroup() ast.Node {
	if !p.atWord("do") {
		p.errf(errs.EMissingKeyword, "expected 'do'")
	} else {
		p.advance()
	}
	body := p.parseList(false)
	if !p.atWord("done") {
		p.errf(errs.EMissingKeyword, "expected 'done'")
	} else {
		p.advance()
	}
	return body
}

func (p *Parser) parseFor() ast.Node {
	pos := p.tok.Pos
	p.advance() // for

	if p.tok.Kind == token.DLPAREN {
		return p.parseCStyleFor(pos)
	}

	if p.tok.Kind != token.WORD {
		p.errf(errs.EUnexpectedToken, "expected name after 'for'")
		return nil
	}
	name := p.tok.Text
	p.advance()
	p.skipNewlines()

	n := &ast.For{Base: ast.NewPos(pos), Var: name}
	if p.atWord("in") {
		p.advance()
		for p.tok.Kind == token.WORD || p.tok.Kind == token.ASSIGNMENT_WORD {
			n.Words = append(n.Words, ast.Word{Text: p.tok.Text, Quote: p.tok.Quote, Pos: p.tok.Pos})
			p.advance()
		}
		p.skipSeparators()
	} else {
		n.Positional = true
		p.skipSeparators()
	}
	n.Body = p.parseDoGroup()
	return n
}

// parseCStyleFor handles the extended `for (( init; cond; update ))` form.
// The three clauses are captured as raw text between the double parens; the
// (out-of-scope) arithmetic evaluator parses them at execute time.
func (p *Parser) parseCStyleFor(pos token.Position) ast.Node {
	raw, err := p.curFrame().lx.ScanArithRaw()
	if err != nil {
		p.errLex(err)
		return nil
	}
	p.advance() // resync lookahead past the consumed "(( ... ))"
	init, cond, upd := splitCStyleFor(raw)
	p.skipSeparators()
	n := &ast.CStyleFor{Base: ast.NewPos(pos), Init: init, Cond: cond, Update: upd}
	n.Body = p.parseDoGroup()
	return n
}

func splitCStyleFor(raw string) (init, cond, upd string) {
	parts := strings.SplitN(raw, ";", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
}

func (p *Parser) parseWhile(negate bool) ast.Node {
	pos := p.tok.Pos
	p.advance() // while/until
	cond := p.parseList(false)
	body := p.parseDoGroup()
	return &ast.While{Base: ast.NewPos(pos), Cond: cond, Body: body, Negate: negate}
}

func (p *Parser) parseCase() ast.Node {
	pos := p.tok.Pos
	p.advance() // case
	if p.tok.Kind != token.WORD {
		p.errf(errs.EUnexpectedToken, "expected word after 'case'")
		return nil
	}
	word := ast.Word{Text: p.tok.Text, Quote: p.tok.Quote, Pos: p.tok.Pos}
	p.advance()
	p.skipNewlines()
	if !p.atWord("in") {
		p.errf(errs.EMissingKeyword, "expected 'in'")
	} else {
		p.advance()
	}
	p.skipNewlines()

	n := &ast.Case{Base: ast.NewPos(pos), Word: word}
	for !p.atWord("esac") && p.tok.Kind != token.END {
		clause := ast.CaseClause{Term: ast.CaseBreak}
		if p.tok.Kind == token.LPAREN {
			p.advance()
		}
		for {
			if p.tok.Kind != token.WORD {
				p.errf(errs.EUnexpectedToken, "expected case pattern")
				break
			}
			clause.Patterns = append(clause.Patterns, ast.Word{Text: p.tok.Text, Quote: p.tok.Quote, Pos: p.tok.Pos})
			p.advance()
			if p.tok.Kind == token.PIPE {
				p.advance()
				continue
			}
			break
		}
		if p.tok.Kind != token.RPAREN {
			p.errf(errs.EUnexpectedToken, "expected ')' after case pattern")
		} else {
			p.advance()
		}
		p.skipNewlines()
		if !p.atWord("esac") && p.tok.Kind != token.SEMI_SEMI && p.tok.Kind != token.SEMI_AND && p.tok.Kind != token.SEMI_SEMI_AND {
			clause.Body = p.parseList(false)
		}
		switch p.tok.Kind {
		case token.SEMI_SEMI:
			clause.Term = ast.CaseBreak
			p.advance()
		case token.SEMI_AND:
			clause.Term = ast.CaseFallThrough
			p.advance()
		case token.SEMI_SEMI_AND:
			clause.Term = ast.CaseTestNext
			p.advance()
		}
		p.skipNewlines()
		n.Clauses = append(n.Clauses, clause)
	}
	if !p.atWord("esac") {
		p.errf(errs.EMissingKeyword, "expected 'esac'")
	} else {
		p.advance()
	}
	return n
}

func (p *Parser) parseSelect() ast.Node {
	pos := p.tok.Pos
	p.advance() // select
	if p.tok.Kind != token.WORD {
		p.errf(errs.EUnexpectedToken, "expected name after 'select'")
		return nil
	}
	name := p.tok.Text
	p.advance()
	p.skipNewlines()
	n := &ast.Select{Base: ast.NewPos(pos), Var: name}
	if p.atWord("in") {
		p.advance()
		for p.tok.Kind == token.WORD {
			n.Words = append(n.Words, ast.Word{Text: p.tok.Text, Quote: p.tok.Quote, Pos: p.tok.Pos})
			p.advance()
		}
		p.skipSeparators()
	}
	n.Body = p.parseDoGroup()
	return n
}

func (p *Parser) parseSubshell() ast.Node {
	pos := p.tok.Pos
	p.advance() // (
	body := p.parseList(false)
	if p.tok.Kind != token.RPAREN {
		p.errf(errs.EUnexpectedToken, "expected ')'")
	} else {
		p.advance()
	}
	return &ast.Subshell{Base: ast.NewPos(pos), Body: body}
}

func (p *Parser) parseBraceGroup() ast.Node {
	pos := p.tok.Pos
	p.advance() // {
	body := p.parseList(false)
	if !p.atWord("}") {
		p.errf(errs.EMissingKeyword, "expected '}'")
	} else {
		p.advance()
	}
	return &ast.BraceGroup{Base: ast.NewPos(pos), Body: body}
}

func (p *Parser) parseArithmeticCmd() ast.Node {
	pos := p.tok.Pos
	raw, err := p.curFrame().lx.ScanArithRaw()
	if err != nil {
		p.errLex(err)
		return nil
	}
	p.advance()
	return &ast.ArithmeticCmd{Base: ast.NewPos(pos), Expr: strings.TrimSpace(raw)}
}

// parseCondExpr parses the extended `[[ ... ]]` test expression into a flat
// operand-word list; the executor applies the unary/binary test semantics
// (§9: `[[ ]]` is an extended-mode feature, enabled by default).
func (p *Parser) parseCondExpr() ast.Node {
	pos := p.tok.Pos
	p.advance() // [[
	n := &ast.CondExpr{Base: ast.NewPos(pos)}
	for !p.atWord("]]") && p.tok.Kind != token.END {
		n.Words = append(n.Words, ast.Word{Text: p.tok.Text, Quote: p.tok.Quote, Pos: p.tok.Pos})
		p.advance()
	}
	if !p.atWord("]]") {
		p.errf(errs.EMissingKeyword, "expected ']]'")
	} else {
		p.advance()
	}
	return n
}
