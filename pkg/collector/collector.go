package collector

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies the grammar used to parse a file.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangUnknown    Language = "unknown"
)

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return LangTypeScript
	case ".tsx":
		return LangTSX
	case ".js", ".mjs", ".cjs":
		return LangJavaScript
	case ".jsx":
		return LangTSX // JSX parses under the TSX grammar
	default:
		return LangUnknown
	}
}

// ScriptKind returns the backend script-kind hint for a file path.
func ScriptKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return "TS"
	case ".tsx":
		return "TSX"
	case ".jsx":
		return "JSX"
	default:
		return "JS"
	}
}

func grammarFor(lang Language) *sitter.Language {
	switch lang {
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	default:
		return nil
	}
}

// Collector extracts candidate declarations from source files. It
// wraps a single tree-sitter parser and is not safe for concurrent
// use.
type Collector struct {
	parser *sitter.Parser
}

// New creates a collector.
func New() *Collector {
	return &Collector{parser: sitter.NewParser()}
}

// Close releases parser resources.
func (c *Collector) Close() {
	c.parser.Close()
}

// Collect parses the file text and returns every binding-introducing
// declaration in traversal order (source order, outer before inner).
// The parse is best-effort: a file with syntax errors still yields
// whatever declarations the recovered tree exposes.
func (c *Collector) Collect(path string, source []byte) ([]Declaration, error) {
	lang := DetectLanguage(path)
	grammar := grammarFor(lang)
	if grammar == nil {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	c.parser.SetLanguage(grammar)
	tree, err := c.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	var decls []Declaration
	walk(tree.RootNode(), func(n *sitter.Node) {
		switch n.Type() {
		case "lexical_declaration", "variable_declaration":
			collectVariableStatement(n, source, isExported(n), &decls)
		case "function_declaration", "generator_function_declaration":
			collectNamed(n, source, KindFunction, isExported(n), &decls)
		case "class_declaration":
			collectNamed(n, source, KindClass, isExported(n), &decls)
		case "import_statement":
			collectImports(n, source, &decls)
		}
	})
	return decls, nil
}

// walk visits every node depth-first. Traversal always descends so
// declarations nested inside function and class bodies are collected
// too.
func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}

// isExported reports whether the declaring statement carries an export
// marker.
func isExported(n *sitter.Node) bool {
	parent := n.Parent()
	return parent != nil && parent.Type() == "export_statement"
}

func nodeText(n *sitter.Node, source []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// collectVariableStatement emits one declaration per bound name in a
// const/let/var declaration list.
func collectVariableStatement(n *sitter.Node, source []byte, exported bool, decls *[]Declaration) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		if name := child.ChildByFieldName("name"); name != nil {
			collectPattern(name, source, KindVariable, exported, decls)
		}
	}
}

// collectNamed emits the declaration for a named function or class.
func collectNamed(n *sitter.Node, source []byte, kind Kind, exported bool, decls *[]Declaration) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	*decls = append(*decls, Declaration{
		Name:     nodeText(name, source),
		Offset:   name.StartByte(),
		Kind:     kind,
		Exported: exported,
	})
}

// collectPattern recurses into a binding position, emitting one
// declaration per leaf identifier. A plain name is the trivial case;
// object and array destructuring patterns expand to their leaves.
func collectPattern(n *sitter.Node, source []byte, kind Kind, exported bool, decls *[]Declaration) {
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		*decls = append(*decls, Declaration{
			Name:     nodeText(n, source),
			Offset:   n.StartByte(),
			Kind:     kind,
			Exported: exported,
		})
	case "object_pattern", "array_pattern", "rest_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			collectPattern(n.NamedChild(i), source, kind, exported, decls)
		}
	case "pair_pattern":
		// {key: binding} introduces only the value side.
		if value := n.ChildByFieldName("value"); value != nil {
			collectPattern(value, source, kind, exported, decls)
		}
	case "assignment_pattern", "object_assignment_pattern":
		// A default value binds only the left side.
		if left := n.ChildByFieldName("left"); left != nil {
			collectPattern(left, source, kind, exported, decls)
		}
	}
}

// collectImports emits one declaration per locally-bound name that an
// import statement introduces: the default binding, a namespace
// binding, and each named or aliased binding.
func collectImports(n *sitter.Node, source []byte, decls *[]Declaration) {
	emit := func(name *sitter.Node) {
		if name == nil {
			return
		}
		*decls = append(*decls, Declaration{
			Name:   nodeText(name, source),
			Offset: name.StartByte(),
			Kind:   KindImport,
		})
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			binding := clause.NamedChild(j)
			switch binding.Type() {
			case "identifier":
				emit(binding)
			case "namespace_import":
				for k := 0; k < int(binding.NamedChildCount()); k++ {
					if id := binding.NamedChild(k); id.Type() == "identifier" {
						emit(id)
					}
				}
			case "named_imports":
				for k := 0; k < int(binding.NamedChildCount()); k++ {
					spec := binding.NamedChild(k)
					if spec.Type() != "import_specifier" {
						continue
					}
					// The local name is the alias when present.
					if alias := spec.ChildByFieldName("alias"); alias != nil {
						emit(alias)
					} else {
						emit(spec.ChildByFieldName("name"))
					}
				}
			}
		}
	}
}
