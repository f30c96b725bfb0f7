package scan

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/printer"
	"go/token"
	"path"
	"strconv"
	"strings"
)

// goImports records how a Go file binds the wrappers package.
type goImports struct {
	qualifiers map[string]bool // local names bound to the wrappers package
	dot        bool
}

func (g goImports) importsSafe() bool { return g.dot || len(g.qualifiers) > 0 }

// preferred returns the qualifier used in suggestions.
func (g goImports) preferred(module string) string {
	best := ""
	for q := range g.qualifiers {
		if best == "" || q < best {
			best = q
		}
	}
	if best != "" {
		return best
	}
	return path.Base(module)
}

func scanGo(rep *FileReport, src []byte, rules Rules) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, rep.Path, src, parser.SkipObjectResolution)
	if err != nil {
		line, col, msg := 1, 1, err.Error()
		if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
			line, col, msg = list[0].Pos.Line, list[0].Pos.Column, list[0].Msg
		}
		addFinding(rep, line, col, MethodSyntax, SeverityError, "cannot parse file: "+msg, "")
		return
	}

	imps := goImportsOf(f, rules.Module)
	rep.ImportsSafe = imps.importsSafe()

	ast.Inspect(f, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		pos := fset.Position(call.Pos())

		switch fn := call.Fun.(type) {
		case *ast.SelectorExpr:
			name := fn.Sel.Name
			if wrapper, ok := rules.Wrappers[name]; ok {
				addFinding(rep, pos.Line, pos.Column, name, SeverityError,
					fmt.Sprintf("direct call to %s detected; use the corresponding safe wrapper %s", name, wrapper),
					goRewrite(fset, call, fn, imps.preferred(rules.Module), wrapper))
				return true
			}
			if rules.isWrapper(name) {
				qual, _ := fn.X.(*ast.Ident)
				explicit := qual != nil && imps.qualifiers[qual.Name]
				checkGoWrapper(rep, pos, name, explicit, imps, rules.Module)
			}
		case *ast.Ident:
			if rules.isWrapper(fn.Name) {
				checkGoWrapper(rep, pos, fn.Name, imps.dot, imps, rules.Module)
			}
		}
		return true
	})
}

func goImportsOf(f *ast.File, module string) goImports {
	imps := goImports{qualifiers: map[string]bool{}}
	if module == "" {
		return imps
	}
	for _, spec := range f.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil || p != module {
			continue
		}
		switch {
		case spec.Name == nil:
			imps.qualifiers[path.Base(module)] = true
		case spec.Name.Name == ".":
			imps.dot = true
		case spec.Name.Name == "_":
			// blank imports bind nothing
		default:
			imps.qualifiers[spec.Name.Name] = true
		}
	}
	return imps
}

func checkGoWrapper(rep *FileReport, pos token.Position, name string, explicit bool, imps goImports, module string) {
	switch {
	case !imps.importsSafe():
		addFinding(rep, pos.Line, pos.Column, name, SeverityError,
			fmt.Sprintf("%s used without importing it from %s", name, module),
			fmt.Sprintf("import %q", module))
	case !explicit:
		q := imps.preferred(module)
		addFinding(rep, pos.Line, pos.Column, name, SeverityWarning,
			fmt.Sprintf("%s used but not explicitly imported from %s; call it through the wrappers import", name, module),
			fmt.Sprintf("%s.%s(...)", q, name))
	}
}

// goRewrite renders the wrapper call replacing coll.Method(ctx, filter, update, ...).
func goRewrite(fset *token.FileSet, call *ast.CallExpr, sel *ast.SelectorExpr, qualifier, wrapper string) string {
	args := []string{"ctx", exprText(fset, sel.X), "filter", "update"}
	// the collection is inserted after ctx
	for i := 0; i < len(call.Args) && i < 3; i++ {
		dst := i + 1
		if i == 0 {
			dst = 0
		}
		args[dst] = exprText(fset, call.Args[i])
	}
	return fmt.Sprintf("%s.%s(%s)", qualifier, wrapper, strings.Join(args, ", "))
}

// exprText prints e on a single line.
func exprText(fset *token.FileSet, e ast.Expr) string {
	var b strings.Builder
	if err := printer.Fprint(&b, fset, e); err != nil {
		return "?"
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
