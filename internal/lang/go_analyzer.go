package lang

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"adi/internal/codegraph"
)

// GoAnalyzer extracts symbols and references from Go source using the
// standard library's go/ast, following the teacher's own GoCodeParser
// (precise, no external grammar dependency for the host language).
type GoAnalyzer struct{}

func NewGoAnalyzer() *GoAnalyzer { return &GoAnalyzer{} }

func (g *GoAnalyzer) parse(source []byte) (*token.FileSet, *ast.File, error) {
	fset := token.NewFileSet()
	// parser.AllErrors + best-effort: a syntax error still returns a
	// partial *ast.File for the declarations that did parse.
	node, err := parser.ParseFile(fset, "", source, parser.ParseComments|parser.AllErrors)
	return fset, node, err
}

func loc(fset *token.FileSet, start, end token.Pos) codegraph.Location {
	sp := fset.Position(start)
	ep := fset.Position(end)
	return codegraph.Location{
		StartLine: sp.Line, StartCol: sp.Column, StartByte: sp.Offset,
		EndLine: ep.Line, EndCol: ep.Column, EndByte: ep.Offset,
	}
}

func goVisibility(name string) codegraph.Visibility {
	if name == "" {
		return codegraph.VisUnknown
	}
	r := name[0]
	if r >= 'A' && r <= 'Z' {
		return codegraph.VisPublic
	}
	return codegraph.VisPrivate
}

func signatureUpTo(src []byte, start, bodyStart int) string {
	if bodyStart <= start || bodyStart > len(src) {
		bodyStart = len(src)
	}
	return strings.TrimSpace(string(src[start:bodyStart]))
}

func docText(cg *ast.CommentGroup) string {
	if cg == nil {
		return ""
	}
	var lines []string
	for _, c := range cg.List {
		t := c.Text
		t = strings.TrimPrefix(t, "///")
		t = strings.TrimPrefix(t, "//")
		t = strings.TrimPrefix(t, "/*")
		t = strings.TrimSuffix(t, "*/")
		t = strings.TrimPrefix(t, "!")
		for _, l := range strings.Split(t, "\n") {
			lines = append(lines, strings.Join(strings.Fields(l), " "))
		}
	}
	// Collapse whitespace within each line but keep paragraph breaks (blank lines).
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (g *GoAnalyzer) ExtractSymbols(source []byte) ([]codegraph.ParsedSymbol, error) {
	fset, node, err := g.parse(source)
	if node == nil {
		return nil, err
	}

	var out []codegraph.ParsedSymbol
	structFields := map[string][]codegraph.ParsedSymbol{} // struct name -> field children, filled as we see type decls

	for _, decl := range node.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			out = append(out, g.parseFuncDecl(fset, source, d))

		case *ast.GenDecl:
			switch d.Tok {
			case token.TYPE:
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok {
						continue
					}
					sym := g.parseTypeSpec(fset, source, d, ts)
					structFields[ts.Name.Name] = sym.Children
					out = append(out, sym)
				}
			case token.CONST, token.VAR:
				out = append(out, g.parseValueSpecs(fset, source, d)...)
			}
		}
	}
	return out, err
}

func (g *GoAnalyzer) parseFuncDecl(fset *token.FileSet, src []byte, d *ast.FuncDecl) codegraph.ParsedSymbol {
	kind := codegraph.KindFunction
	if d.Recv != nil && len(d.Recv.List) > 0 {
		kind = codegraph.KindMethod
	}
	bodyStart := int(d.End())
	if d.Body != nil {
		bodyStart = int(d.Body.Pos())
	}
	return codegraph.ParsedSymbol{
		Name:       d.Name.Name,
		Kind:       kind,
		Location:   loc(fset, d.Pos(), d.End()),
		Signature:  signatureUpTo(src, fset.Position(d.Pos()).Offset, fset.Position(token.Pos(bodyStart)).Offset),
		DocComment: docText(d.Doc),
		Visibility: goVisibility(d.Name.Name),
	}
}

func (g *GoAnalyzer) parseTypeSpec(fset *token.FileSet, src []byte, gd *ast.GenDecl, ts *ast.TypeSpec) codegraph.ParsedSymbol {
	start := gd.Pos()
	end := gd.End()
	if len(gd.Specs) > 1 {
		// Each spec in a grouped `type (...)` block gets its own range.
		start = ts.Pos()
		end = ts.End()
	}

	var kind codegraph.SymbolKind
	var children []codegraph.ParsedSymbol

	switch t := ts.Type.(type) {
	case *ast.StructType:
		kind = codegraph.KindStruct
		children = g.parseFields(fset, src, t.Fields)
	case *ast.InterfaceType:
		kind = codegraph.KindInterface
		children = g.parseInterfaceMethods(fset, src, t.Methods)
	default:
		kind = codegraph.KindType
	}

	doc := gd.Doc
	if doc == nil {
		doc = ts.Doc
	}

	return codegraph.ParsedSymbol{
		Name:       ts.Name.Name,
		Kind:       kind,
		Location:   loc(fset, start, end),
		Signature:  signatureUpTo(src, fset.Position(start).Offset, fset.Position(end).Offset),
		DocComment: docText(doc),
		Visibility: goVisibility(ts.Name.Name),
		Children:   children,
	}
}

func (g *GoAnalyzer) parseFields(fset *token.FileSet, src []byte, fl *ast.FieldList) []codegraph.ParsedSymbol {
	if fl == nil {
		return nil
	}
	var out []codegraph.ParsedSymbol
	for _, f := range fl.List {
		names := f.Names
		if len(names) == 0 {
			// Embedded field: use the type expression as the name.
			names = []*ast.Ident{{Name: exprString(src, fset, f.Type), NamePos: f.Pos()}}
		}
		for _, n := range names {
			out = append(out, codegraph.ParsedSymbol{
				Name:       n.Name,
				Kind:       codegraph.KindField,
				Location:   loc(fset, f.Pos(), f.End()),
				Signature:  signatureUpTo(src, fset.Position(f.Pos()).Offset, fset.Position(f.End()).Offset),
				DocComment: docText(f.Doc),
				Visibility: goVisibility(n.Name),
			})
		}
	}
	return out
}

func (g *GoAnalyzer) parseInterfaceMethods(fset *token.FileSet, src []byte, fl *ast.FieldList) []codegraph.ParsedSymbol {
	if fl == nil {
		return nil
	}
	var out []codegraph.ParsedSymbol
	for _, f := range fl.List {
		for _, n := range f.Names {
			out = append(out, codegraph.ParsedSymbol{
				Name:       n.Name,
				Kind:       codegraph.KindMethod,
				Location:   loc(fset, f.Pos(), f.End()),
				Signature:  signatureUpTo(src, fset.Position(f.Pos()).Offset, fset.Position(f.End()).Offset),
				DocComment: docText(f.Doc),
				Visibility: goVisibility(n.Name),
			})
		}
	}
	return out
}

func (g *GoAnalyzer) parseValueSpecs(fset *token.FileSet, src []byte, d *ast.GenDecl) []codegraph.ParsedSymbol {
	kind := codegraph.KindVariable
	if d.Tok == token.CONST {
		kind = codegraph.KindConstant
	}
	var out []codegraph.ParsedSymbol
	for _, spec := range d.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		doc := vs.Doc
		if doc == nil && len(d.Specs) == 1 {
			doc = d.Doc
		}
		for _, n := range vs.Names {
			if n.Name == "_" {
				continue
			}
			out = append(out, codegraph.ParsedSymbol{
				Name:       n.Name,
				Kind:       kind,
				Location:   loc(fset, vs.Pos(), vs.End()),
				Signature:  signatureUpTo(src, fset.Position(vs.Pos()).Offset, fset.Position(vs.End()).Offset),
				DocComment: docText(doc),
				Visibility: goVisibility(n.Name),
			})
		}
	}
	return out
}

func exprString(src []byte, fset *token.FileSet, e ast.Expr) string {
	start := fset.Position(e.Pos()).Offset
	end := fset.Position(e.End()).Offset
	if start < 0 || end > len(src) || start > end {
		return ""
	}
	s := string(src[start:end])
	s = strings.TrimPrefix(s, "*")
	if idx := strings.LastIndex(s, "."); idx >= 0 {
		s = s[idx+1:]
	}
	return s
}

// ExtractReferences walks call expressions, type mentions, and import
// specs, emitting the byte range of the referenced identifier only (not
// the whole expression), per spec §4.A.
func (g *GoAnalyzer) ExtractReferences(source []byte) ([]codegraph.ParsedReference, error) {
	fset, node, err := g.parse(source)
	if node == nil {
		return nil, err
	}

	var out []codegraph.ParsedReference
	callTargets := map[token.Pos]bool{}
	ast.Inspect(node, func(n ast.Node) bool {
		switch expr := n.(type) {
		case *ast.CallExpr:
			if ident := calleeIdent(expr.Fun); ident != nil {
				name := ident.Name
				if sel, ok := expr.Fun.(*ast.SelectorExpr); ok {
					callTargets[sel.Sel.Pos()] = true
					if pkgIdent, ok := sel.X.(*ast.Ident); ok {
						name = pkgIdent.Name + "." + sel.Sel.Name
					}
				}
				if !Denied(codegraph.LangGo, name) {
					out = append(out, codegraph.ParsedReference{
						Name:     ident.Name,
						Kind:     codegraph.RefCall,
						Location: loc(fset, ident.Pos(), ident.End()),
					})
				}
			}
		case *ast.ImportSpec:
			path := strings.Trim(expr.Path.Value, `"`)
			out = append(out, codegraph.ParsedReference{
				Name:     path,
				Kind:     codegraph.RefImport,
				Location: loc(fset, expr.Path.Pos(), expr.Path.End()),
			})
		case *ast.SelectorExpr:
			// Field access not already covered by a call above.
			if !callTargets[expr.Sel.Pos()] {
				out = append(out, codegraph.ParsedReference{
					Name:     expr.Sel.Name,
					Kind:     codegraph.RefFieldAccess,
					Location: loc(fset, expr.Sel.Pos(), expr.Sel.End()),
				})
			}
		}
		return true
	})
	return out, err
}

func calleeIdent(fun ast.Expr) *ast.Ident {
	switch f := fun.(type) {
	case *ast.Ident:
		return f
	case *ast.SelectorExpr:
		return f.Sel
	}
	return nil
}
