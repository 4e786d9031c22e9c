package semantic

import "github.com/you-not-fish/basicc/internal/syntax"

// Symbol is a variable or array with its storage.
type Symbol struct {
	Name string
	Slot int   // 1-based word offset from the variable base
	Size int   // words
	Dims []int // nil for scalars
	Decl syntax.Node
}

// IsArray reports whether the symbol was declared by DIM.
func (s *Symbol) IsArray() bool { return s.Dims != nil }

// Function is a DEF FN declaration.
type Function struct {
	Name   string
	Params []string // qualified parameter names, e.g. "F.X"
	Decl   *syntax.DefStmt
}

// SymbolTable maps identifiers to storage slots. Entries are allocated in
// first-declaration order and never removed. Lookups scan linearly.
type SymbolTable struct {
	syms  []*Symbol
	funcs []*Function
	words int
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{}
}

// Lookup returns the symbol named name, or nil.
func (t *SymbolTable) Lookup(name string) *Symbol {
	for _, s := range t.syms {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Declare returns the scalar named name, allocating one word for it on
// first use.
func (t *SymbolTable) Declare(name string, decl syntax.Node) *Symbol {
	if s := t.Lookup(name); s != nil {
		return s
	}
	return t.alloc(&Symbol{Name: name, Size: 1, Decl: decl})
}

// DeclareArray allocates an array with the given dimensions. The caller
// checks that name is not yet declared.
func (t *SymbolTable) DeclareArray(name string, dims []int, decl syntax.Node) *Symbol {
	size := 1
	for _, d := range dims {
		size *= d
	}
	return t.alloc(&Symbol{Name: name, Size: size, Dims: dims, Decl: decl})
}

func (t *SymbolTable) alloc(s *Symbol) *Symbol {
	s.Slot = t.words + 1
	t.words += s.Size
	t.syms = append(t.syms, s)
	return s
}

// LookupFunc returns the function named name, or nil.
func (t *SymbolTable) LookupFunc(name string) *Function {
	for _, f := range t.funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// InsertFunc adds f. It reports false if a function with that name exists.
func (t *SymbolTable) InsertFunc(f *Function) bool {
	if t.LookupFunc(f.Name) != nil {
		return false
	}
	t.funcs = append(t.funcs, f)
	return true
}

// Symbols returns all symbols in allocation order.
func (t *SymbolTable) Symbols() []*Symbol {
	return append([]*Symbol(nil), t.syms...)
}

// Functions returns all functions in declaration order.
func (t *SymbolTable) Functions() []*Function {
	return append([]*Function(nil), t.funcs...)
}

// Words returns the number of words allocated to symbols.
func (t *SymbolTable) Words() int { return t.words }

// TotalBytes returns the size of the variable area. Slot 0 is reserved,
// so the area holds one word more than the symbols need.
func (t *SymbolTable) TotalBytes() int {
	return 4 * (1 + t.words)
}
