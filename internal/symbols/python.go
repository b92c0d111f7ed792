package symbols

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

var pythonParser = func() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return p
}()

// ExtractPython walks a true Python AST (tree-sitter) and emits a
// Symbol per class/function/async-function, plus the file's imports
// (spec §4.6 step 2 "Python: true AST walk").
func ExtractPython(ctx context.Context, filePath string, source []byte) ([]Symbol, []Import, error) {
	tree, err := pythonParser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, nil, err
	}
	defer tree.Close()

	lines := strings.Split(string(source), "\n")
	var symbolsOut []Symbol
	var imports []Import

	var walk func(node *sitter.Node, classStack []string)
	walk = func(node *sitter.Node, classStack []string) {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "class_definition":
				sym := parsePythonClass(child, filePath, source, lines, classStack)
				symbolsOut = append(symbolsOut, sym)
				if body := child.ChildByFieldName("body"); body != nil {
					walk(body, append(classStack, sym.Name))
				}
			case "function_definition":
				sym := parsePythonFunction(child, filePath, source, lines, classStack, nil)
				symbolsOut = append(symbolsOut, sym)
			case "decorated_definition":
				decorators := collectDecorators(child, source)
				for j := 0; j < int(child.NamedChildCount()); j++ {
					inner := child.NamedChild(j)
					switch inner.Type() {
					case "function_definition":
						sym := parsePythonFunction(inner, filePath, source, lines, classStack, decorators)
						symbolsOut = append(symbolsOut, sym)
					case "class_definition":
						sym := parsePythonClass(inner, filePath, source, lines, classStack)
						sym.Decorators = decorators
						symbolsOut = append(symbolsOut, sym)
						if body := inner.ChildByFieldName("body"); body != nil {
							walk(body, append(classStack, sym.Name))
						}
					}
				}
			case "import_statement", "import_from_statement":
				imports = append(imports, parsePythonImport(child, source)...)
			default:
				walk(child, classStack)
			}
		}
	}
	walk(tree.RootNode(), nil)

	return symbolsOut, imports, nil
}

func nodeText(n *sitter.Node, source []byte) string {
	return string(source[n.StartByte():n.EndByte()])
}

func qualifiedName(classStack []string, name string) string {
	if len(classStack) == 0 {
		return name
	}
	return strings.Join(classStack, ".") + "." + name
}

func parsePythonClass(node *sitter.Node, filePath string, source []byte, lines []string, classStack []string) Symbol {
	nameNode := node.ChildByFieldName("name")
	name := ""
	if nameNode != nil {
		name = nodeText(nameNode, source)
	}
	var bases []string
	if superclasses := node.ChildByFieldName("superclasses"); superclasses != nil {
		for i := 0; i < int(superclasses.NamedChildCount()); i++ {
			bases = append(bases, nodeText(superclasses.NamedChild(i), source))
		}
	}
	qname := qualifiedName(classStack, name)
	startLine := int(node.StartPoint().Row) + 1
	return Symbol{
		ID:            symbolID(filePath, KindClass, qname),
		Name:          name,
		QualifiedName: qname,
		Kind:          KindClass,
		Language:      "python",
		LineNumber:    startLine,
		Signature:     firstLine(lines, startLine),
		Docstring:     extractDocstring(node, source),
		Bases:         bases,
		Exported:      !strings.HasPrefix(name, "_"),
	}
}

func parsePythonFunction(node *sitter.Node, filePath string, source []byte, lines []string, classStack []string, decorators []string) Symbol {
	nameNode := node.ChildByFieldName("name")
	name := ""
	if nameNode != nil {
		name = nodeText(nameNode, source)
	}
	params := ""
	if p := node.ChildByFieldName("parameters"); p != nil {
		params = nodeText(p, source)
	}
	returnType := ""
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		returnType = nodeText(rt, source)
	}
	isAsync := strings.HasPrefix(strings.TrimSpace(firstLine(lines, int(node.StartPoint().Row)+1)), "async ")

	kind := KindFunction
	if len(classStack) > 0 {
		kind = KindMethod
	}
	qname := qualifiedName(classStack, name)
	signature := "def " + name + params
	if returnType != "" {
		signature += " -> " + returnType
	}
	startLine := int(node.StartPoint().Row) + 1
	return Symbol{
		ID:            symbolID(filePath, kind, qname),
		Name:          name,
		QualifiedName: qname,
		Kind:          kind,
		Language:      "python",
		LineNumber:    startLine,
		Signature:     signature,
		Docstring:     extractDocstring(node, source),
		Decorators:    decorators,
		IsAsync:       isAsync,
		Exported:      !strings.HasPrefix(name, "_"),
	}
}

// extractDocstring returns the function/class body's first statement
// when it is a bare string expression.
func extractDocstring(node *sitter.Node, source []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return strings.Trim(nodeText(str, source), "\"' \t\n")
}

func collectDecorators(decorated *sitter.Node, source []byte) []string {
	var decorators []string
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		child := decorated.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		text := strings.TrimPrefix(strings.TrimSpace(nodeText(child, source)), "@")
		if idx := strings.Index(text, "("); idx > 0 {
			text = text[:idx]
		}
		decorators = append(decorators, text)
	}
	return decorators
}

func firstLine(lines []string, oneIndexedLine int) string {
	if oneIndexedLine < 1 || oneIndexedLine > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[oneIndexedLine-1])
}

// parsePythonImport handles both `import a.b` and `from a.b import c, d`.
func parsePythonImport(node *sitter.Node, source []byte) []Import {
	line := int(node.StartPoint().Row) + 1
	if node.Type() == "import_statement" {
		var out []Import
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "dotted_name" || child.Type() == "aliased_import" {
				out = append(out, Import{Module: nodeText(child, source), Line: line})
			}
		}
		return out
	}

	// import_from_statement
	moduleNode := node.ChildByFieldName("module_name")
	module := ""
	if moduleNode != nil {
		module = nodeText(moduleNode, source)
	}
	var names []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == moduleNode {
			continue
		}
		if child.Type() == "dotted_name" || child.Type() == "identifier" || child.Type() == "aliased_import" {
			names = append(names, nodeText(child, source))
		}
	}
	return []Import{{Module: module, Symbols: names, Line: line}}
}
