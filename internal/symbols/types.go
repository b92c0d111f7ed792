// Package symbols parses tracked source files into Symbol nodes and
// IMPORTS/USES_LIBRARY edges (spec §4.6), using a true tree-sitter AST
// walk for Python and a regex subset for TS/JS.
package symbols

// Kind mirrors Symbol.kind (spec §3).
type Kind string

const (
	KindClass     Kind = "class"
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindInterface Kind = "interface"
)

// Symbol is one extracted declaration, ready to become a Symbol node.
type Symbol struct {
	ID            string
	Name          string
	QualifiedName string
	Kind          Kind
	Language      string
	LineNumber    int
	Signature     string
	Docstring     string
	Decorators    []string
	Bases         []string
	IsAsync       bool
	Exported      bool
}

// Import is a resolved or unresolved import statement.
type Import struct {
	Module   string // raw module/specifier as written
	Symbols  []string
	Line     int
	Resolved string // resolved repo-relative File.path, if any
}

// symbolID formats Symbol.symbol_id = "<file>::<kind>::<qualified_name>" (spec §3).
func symbolID(file string, kind Kind, qualifiedName string) string {
	return file + "::" + string(kind) + "::" + qualifiedName
}
