// Package symtable implements the scoped symbol table shared by the
// expander and executor (§3 Symbol, Scope Frame; §5). Scope frames chain to
// a parent the way the teacher's runtime/executor execution context chains
// immutable With*-constructed values, generalized here to a mutable,
// parent-linked frame since POSIX variable scoping is push/pop by nature
// (function calls, `.`, subshells) rather than copy-on-write.
package symtable

import (
	"fmt"
	"sort"
)

// Attr is a bitmask of POSIX/extended variable attributes (§3 Symbol).
type Attr uint16

const (
	AttrExported Attr = 1 << iota
	AttrReadonly
	AttrInteger
	AttrLocal
	AttrNameref
	AttrUpperCase // declare -u
	AttrLowerCase // declare -l
	AttrArray
)

// Symbol is one named binding (§3 Symbol). Unset and set-to-empty are
// distinct states: Unset==true means the name has no entry at all, which a
// lookup surfaces by returning (Symbol{}, false) rather than a Symbol with
// an empty Value.
type Symbol struct {
	Name  string
	Value string
	Attrs Attr
	// Array holds indexed-array elements (extended mode, §9). Nil for
	// scalar symbols.
	Array map[string]string
	// NamerefTarget is the name this symbol forwards reads/writes to, set
	// only when AttrNameref is present.
	NamerefTarget string
}

func (s Symbol) Has(a Attr) bool { return s.Attrs&a != 0 }

// Scope is one frame of the variable scope chain: function calls and `.`
// (dot-source, when invoked with `local`-capable semantics) push a frame;
// plain command execution and control-flow bodies do not — POSIX shells
// are single-scope except across function boundaries, and §9's resolved
// Open Question keeps `for`-loop bodies sharing the enclosing frame rather
// than opening their own (no per-iteration subshell).
type Scope struct {
	parent *Scope
	vars   map[string]*Symbol
	// funcName names the function this frame belongs to, empty at the
	// global frame; used only for diagnostics.
	funcName string
}

// NewGlobal creates the root scope frame.
func NewGlobal() *Scope {
	return &Scope{vars: map[string]*Symbol{}}
}

// Push creates a child frame for a function call.
func (s *Scope) Push(funcName string) *Scope {
	return &Scope{parent: s, vars: map[string]*Symbol{}, funcName: funcName}
}

// Parent returns the enclosing frame, or nil at the global frame.
func (s *Scope) Parent() *Scope { return s.parent }

// Lookup walks the frame chain outward, returning the nearest binding.
func (s *Scope) Lookup(name string) (Symbol, bool) {
	for f := s; f != nil; f = f.parent {
		if sym, ok := f.vars[name]; ok {
			if sym.Has(AttrNameref) && sym.NamerefTarget != "" && sym.NamerefTarget != name {
				return s.Lookup(sym.NamerefTarget)
			}
			return *sym, true
		}
	}
	return Symbol{}, false
}

// IsSet distinguishes "bound, possibly to empty string" from "no entry at
// all" — the ${var:-x} vs ${var-x} distinction in §3/§4.3.
func (s *Scope) IsSet(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// frameOf returns the frame that owns name (walking outward), or nil.
func (s *Scope) frameOf(name string) *Scope {
	for f := s; f != nil; f = f.parent {
		if _, ok := f.vars[name]; ok {
			return f
		}
	}
	return nil
}

// ReadonlyError reports an attempt to modify or unset a readonly symbol
// (§7 error taxonomy: AssignmentErr/EReadonly).
type ReadonlyError struct{ Name string }

func (e *ReadonlyError) Error() string { return fmt.Sprintf("%s: readonly variable", e.Name) }

// NamerefCycleError reports a nameref chain that refers back to itself
// (§3 Symbol invariant: namerefs must not cycle).
type NamerefCycleError struct{ Name string }

func (e *NamerefCycleError) Error() string { return fmt.Sprintf("%s: circular nameref", e.Name) }

// Set assigns value to name attributes preserved, creating the binding in
// the frame that already owns it, or in the local frame if unbound. Local
// declarations (`local x=1`) go through Declare instead.
func (s *Scope) Set(name, value string) error {
	target := s.frameOf(name)
	if target == nil {
		target = s
	}
	if existing, ok := target.vars[name]; ok {
		if existing.Has(AttrReadonly) {
			return &ReadonlyError{Name: name}
		}
		if existing.Has(AttrNameref) {
			return s.setNameref(existing, value)
		}
		existing.Value = applyCase(existing, value)
		return nil
	}
	target.vars[name] = &Symbol{Name: name, Value: value}
	return nil
}

func (s *Scope) setNameref(sym *Symbol, value string) error {
	if sym.NamerefTarget == sym.Name {
		return &NamerefCycleError{Name: sym.Name}
	}
	return s.Set(sym.NamerefTarget, value)
}

func applyCase(sym *Symbol, value string) string {
	switch {
	case sym.Has(AttrUpperCase):
		return upper(value)
	case sym.Has(AttrLowerCase):
		return lower(value)
	default:
		return value
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

// Declare binds name in THIS frame (not an ancestor), used for `local` and
// top-level assignment/declare builtins. If already declared in this exact
// frame and readonly, it fails.
func (s *Scope) Declare(name, value string, attrs Attr) error {
	if existing, ok := s.vars[name]; ok && existing.Has(AttrReadonly) {
		return &ReadonlyError{Name: name}
	}
	s.vars[name] = &Symbol{Name: name, Value: value, Attrs: attrs}
	return nil
}

// SetNameref declares name as a nameref pointing at target, rejecting it at
// declaration time when target is name itself or when the chain of namerefs
// starting at target leads back to name, so Lookup never meets a cycle
// created here.
func (s *Scope) SetNameref(name, target string) error {
	for t, hops := target, 0; hops < 64; hops++ {
		if t == name {
			return &NamerefCycleError{Name: name}
		}
		f := s.frameOf(t)
		if f == nil || !f.vars[t].Has(AttrNameref) || f.vars[t].NamerefTarget == "" {
			break
		}
		t = f.vars[t].NamerefTarget
	}
	s.vars[name] = &Symbol{Name: name, Attrs: AttrNameref, NamerefTarget: target}
	return nil
}

// Export marks name exported. If name has no binding yet it creates one
// holding the empty string, so after `export FOO` with no prior value FOO
// counts as set.
func (s *Scope) Export(name string) error {
	target := s.frameOf(name)
	if target == nil {
		s.vars[name] = &Symbol{Name: name, Attrs: AttrExported}
		return nil
	}
	target.vars[name].Attrs |= AttrExported
	return nil
}

// MarkReadonly sets the readonly attribute on an existing or new binding.
func (s *Scope) MarkReadonly(name string) {
	target := s.frameOf(name)
	if target == nil {
		s.vars[name] = &Symbol{Name: name, Attrs: AttrReadonly}
		return
	}
	target.vars[name].Attrs |= AttrReadonly
}

// Unset removes name from whichever frame owns it, failing if readonly.
func (s *Scope) Unset(name string) error {
	target := s.frameOf(name)
	if target == nil {
		return nil
	}
	if target.vars[name].Has(AttrReadonly) {
		return &ReadonlyError{Name: name}
	}
	delete(target.vars, name)
	return nil
}

// Exported returns every exported symbol visible from this frame, outer
// frames first so an inner frame's value for the same name wins — the
// shape the executor's environ() turns into an environ slice.
func (s *Scope) Exported() []Symbol {
	seen := map[string]Symbol{}
	var chain []*Scope
	for f := s; f != nil; f = f.parent {
		chain = append(chain, f)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for name, sym := range chain[i].vars {
			if sym.Has(AttrExported) {
				seen[name] = *sym
			} else {
				delete(seen, name)
			}
		}
	}
	out := make([]Symbol, 0, len(seen))
	for _, sym := range seen {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every name visible from this frame (local shadows outer),
// used by `set`/`declare -p` style introspection.
func (s *Scope) Names() []string {
	seen := map[string]bool{}
	for f := s; f != nil; f = f.parent {
		for name := range f.vars {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
