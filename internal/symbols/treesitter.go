//go:build cgo

package symbols

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// Extract parses a JavaScript file with tree-sitter and extracts functions
// and exported names. Falls back to the regex extractor when parsing fails,
// so callers always get a usable result.
func Extract(ctx context.Context, path, content string) *FileSymbols {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	src := []byte(content)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil || tree == nil {
		return extractWithRegex(path, content)
	}
	defer tree.Close()

	fs := &FileSymbols{Path: path, Source: "treesitter"}
	exports := make(map[string]bool)

	walk(tree.RootNode(), func(node *sitter.Node) {
		switch node.Type() {
		case "function_declaration", "generator_function_declaration":
			if fn, ok := extractFunction(node, src); ok {
				fn.Exported = isExportedNode(node)
				fs.Functions = append(fs.Functions, fn)
			}

		case "export_statement":
			collectExportNames(node, src, exports)

		case "assignment_expression":
			collectCommonJSExport(node, src, exports)
		}
	})

	fs.Exports = sortedKeys(exports)
	fs.markExportedFunctions()
	return fs
}

// walk visits every node in the tree depth-first.
func walk(node *sitter.Node, fn func(*sitter.Node)) {
	if node == nil {
		return
	}
	fn(node)
	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), fn)
	}
}

func extractFunction(node *sitter.Node, src []byte) (Function, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return Function{}, false
	}

	fn := Function{
		Name: nameNode.Content(src),
		Line: int(node.StartPoint().Row) + 1,
	}

	if body := node.ChildByFieldName("body"); body != nil {
		fn.EmptyBody = countStatements(body) == 0
	}

	return fn, true
}

// countStatements counts named body children that are not comments.
func countStatements(body *sitter.Node) int {
	count := 0
	for i := 0; i < int(body.NamedChildCount()); i++ {
		if body.NamedChild(i).Type() != "comment" {
			count++
		}
	}
	return count
}

func isExportedNode(node *sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && parent.Type() == "export_statement"
}

// collectExportNames records names exported by an export statement: the
// declared function/class/variable names, or the specifiers of an export
// clause (the alias wins when one is given).
func collectExportNames(node *sitter.Node, src []byte, exports map[string]bool) {
	if decl := node.ChildByFieldName("declaration"); decl != nil {
		switch decl.Type() {
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if name := decl.ChildByFieldName("name"); name != nil {
				exports[name.Content(src)] = true
			}
		case "lexical_declaration", "variable_declaration":
			for i := 0; i < int(decl.NamedChildCount()); i++ {
				child := decl.NamedChild(i)
				if child.Type() != "variable_declarator" {
					continue
				}
				if name := child.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
					exports[name.Content(src)] = true
				}
			}
		}
		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "export_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			spec := child.NamedChild(j)
			if spec.Type() != "export_specifier" {
				continue
			}
			name := spec.ChildByFieldName("alias")
			if name == nil {
				name = spec.ChildByFieldName("name")
			}
			if name != nil {
				exports[name.Content(src)] = true
			}
		}
	}
}

// collectCommonJSExport records exports.x = ... and module.exports.x = ...
// assignment targets.
func collectCommonJSExport(node *sitter.Node, src []byte, exports map[string]bool) {
	left := node.ChildByFieldName("left")
	if left == nil || left.Type() != "member_expression" {
		return
	}

	text := left.Content(src)
	for _, prefix := range []string{"exports.", "module.exports."} {
		if strings.HasPrefix(text, prefix) {
			name := text[len(prefix):]
			if isIdentifier(name) {
				exports[name] = true
			}
			return
		}
	}
}
