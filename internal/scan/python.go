package scan

import (
	"context"
	"fmt"
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// pyImports records what a Python file imports from the wrappers module.
type pyImports struct {
	safe     bool
	all      bool // from <module> import *
	explicit map[string]bool
}

func scanPython(rep *FileReport, src []byte, rules Rules) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		addFinding(rep, 1, 1, MethodSyntax, SeverityError, "cannot parse file: "+err.Error(), "")
		return
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		bad := firstSyntaxError(root)
		if bad == nil {
			bad = root
		}
		line, col := position(bad)
		addFinding(rep, line, col, MethodSyntax, SeverityError, "cannot parse file: invalid syntax", "")
		return
	}

	text := func(n *sitter.Node) string { return n.Content(src) }
	imps := pyImportsOf(root, text, rules.Module)
	rep.ImportsSafe = imps.safe

	walkNamed(root, func(n *sitter.Node) {
		if n.Type() == "call" {
			checkPyCall(rep, n, text, rules, imps)
		}
	})
}

func walkNamed(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkNamed(n.NamedChild(i), visit)
	}
}

// firstSyntaxError returns the first ERROR or MISSING node in document order.
func firstSyntaxError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if bad := firstSyntaxError(child); bad != nil {
			return bad
		}
	}
	return nil
}

// position converts a node's 0-based start point to 1-based line and column.
func position(n *sitter.Node) (int, int) {
	p := n.StartPoint()
	row, err := safecast.Conv[int](p.Row)
	if err != nil {
		return 1, 1
	}
	col, err := safecast.Conv[int](p.Column)
	if err != nil {
		return row + 1, 1
	}
	return row + 1, col + 1
}

func pyImportsOf(root *sitter.Node, text func(*sitter.Node) string, module string) pyImports {
	imps := pyImports{explicit: map[string]bool{}}
	if module == "" {
		return imps
	}

	walkNamed(root, func(n *sitter.Node) {
		switch n.Type() {
		case "import_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				if matchesModule(importedName(n.NamedChild(i), text), module) {
					imps.safe = true
				}
			}

		case "import_from_statement":
			modNode := n.ChildByFieldName("module_name")
			if modNode == nil {
				return
			}
			mod := text(modNode)
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child.StartByte() == modNode.StartByte() {
					continue
				}
				if child.Type() == "wildcard_import" {
					if matchesModule(mod, module) {
						imps.safe = true
						imps.all = true
					}
					continue
				}
				name := importedName(child, text)
				if name == "" {
					continue
				}
				switch {
				case matchesModule(mod, module):
					imps.safe = true
					imps.explicit[name] = true
				case matchesModule(joinModule(mod, name), module):
					imps.safe = true
				}
			}
		}
	})
	return imps
}

// importedName returns the original (unaliased) name of an import clause.
func importedName(n *sitter.Node, text func(*sitter.Node) string) string {
	switch n.Type() {
	case "dotted_name":
		return text(n)
	case "aliased_import":
		if name := n.ChildByFieldName("name"); name != nil {
			return text(name)
		}
	}
	return ""
}

// matchesModule reports whether an imported module name refers to module.
// Relative names match by suffix.
func matchesModule(name, module string) bool {
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return false
	}
	return name == module || strings.HasSuffix(module, "."+name)
}

func joinModule(mod, name string) string {
	mod = strings.TrimLeft(mod, ".")
	if mod == "" {
		return name
	}
	return mod + "." + name
}

func checkPyCall(rep *FileReport, call *sitter.Node, text func(*sitter.Node) string, rules Rules, imps pyImports) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return
	}
	line, col := position(call)

	var name string
	switch fn.Type() {
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		if attr == nil {
			return
		}
		name = text(attr)
		if wrapper, ok := rules.Wrappers[name]; ok {
			addFinding(rep, line, col, name, SeverityError,
				fmt.Sprintf("direct call to %s detected; use the corresponding safe wrapper %s", name, wrapper),
				pyRewrite(call, fn, wrapper, text))
			return
		}
	case "identifier":
		name = text(fn)
	default:
		return
	}
	if !rules.isWrapper(name) {
		return
	}

	switch {
	case !imps.safe:
		addFinding(rep, line, col, name, SeverityError,
			fmt.Sprintf("%s used without importing it from %s", name, rules.Module),
			fmt.Sprintf("from %s import %s", rules.Module, name))
	case !imps.all && !imps.explicit[name]:
		addFinding(rep, line, col, name, SeverityWarning,
			fmt.Sprintf("%s used but not explicitly imported from %s; add it to the import list", name, rules.Module),
			fmt.Sprintf("from %s import %s", rules.Module, name))
	}
}

// pyRewrite renders the wrapper call replacing receiver.method(args).
func pyRewrite(call, fn *sitter.Node, wrapper string, text func(*sitter.Node) string) string {
	receiver := "collection"
	if obj := fn.ChildByFieldName("object"); obj != nil {
		receiver = text(obj)
	}
	args := receiver
	if argNode := call.ChildByFieldName("arguments"); argNode != nil {
		inner := strings.TrimSpace(text(argNode))
		inner = strings.TrimSuffix(strings.TrimPrefix(inner, "("), ")")
		inner = strings.Join(strings.Fields(inner), " ")
		inner = strings.TrimSuffix(inner, ",")
		if inner != "" {
			args += ", " + inner
		}
	}

	prefix := ""
	if parent := call.Parent(); parent != nil && parent.Type() == "await" {
		prefix = "await "
	}
	return fmt.Sprintf("%s%s(%s)", prefix, wrapper, args)
}
