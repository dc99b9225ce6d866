package lang

import (
	"context"
	"strings"

	"adi/internal/codegraph"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	tssitter "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// declRule maps one tree-sitter node type to a recognized SymbolKind plus
// the field names used to pull its name and body out of the node, mirroring
// the teacher's ChildByFieldName-driven extraction in ast_treesitter.go.
type declRule struct {
	kind      codegraph.SymbolKind
	nameField string
	bodyField string
}

// treeSitterAnalyzer is a generic, per-language-configured analyzer over
// go-tree-sitter, used for every language the host Go toolchain can't parse
// natively.
type treeSitterAnalyzer struct {
	language     *sitter.Language
	rules        map[string]declRule
	commentTypes map[string]bool
	denyLang     codegraph.Language
}

func newTreeSitterAnalyzers() map[codegraph.Language]Analyzer {
	return map[codegraph.Language]Analyzer{
		codegraph.LangPython: &treeSitterAnalyzer{
			language: python.GetLanguage(),
			rules: map[string]declRule{
				"function_definition": {codegraph.KindFunction, "name", "body"},
				"class_definition":    {codegraph.KindClass, "name", "body"},
			},
			commentTypes: map[string]bool{"comment": true, "string": true},
			denyLang:     codegraph.LangPython,
		},
		codegraph.LangJavaScript: &treeSitterAnalyzer{
			language: javascript.GetLanguage(),
			rules: map[string]declRule{
				"function_declaration": {codegraph.KindFunction, "name", "body"},
				"class_declaration":    {codegraph.KindClass, "name", "body"},
				"method_definition":    {codegraph.KindMethod, "name", "body"},
			},
			commentTypes: map[string]bool{"comment": true},
			denyLang:     codegraph.LangJavaScript,
		},
		codegraph.LangTypeScript: &treeSitterAnalyzer{
			language: tssitter.GetLanguage(),
			rules: map[string]declRule{
				"function_declaration":  {codegraph.KindFunction, "name", "body"},
				"class_declaration":      {codegraph.KindClass, "name", "body"},
				"method_definition":      {codegraph.KindMethod, "name", "body"},
				"interface_declaration":  {codegraph.KindInterface, "name", "body"},
				"enum_declaration":       {codegraph.KindEnum, "name", "body"},
				"type_alias_declaration": {codegraph.KindType, "name", "value"},
			},
			commentTypes: map[string]bool{"comment": true},
			denyLang:     codegraph.LangTypeScript,
		},
		codegraph.LangRust: &treeSitterAnalyzer{
			language: rust.GetLanguage(),
			rules: map[string]declRule{
				"function_item":    {codegraph.KindFunction, "name", "body"},
				"struct_item":      {codegraph.KindStruct, "name", "body"},
				"enum_item":        {codegraph.KindEnum, "name", "body"},
				"trait_item":       {codegraph.KindTrait, "name", "body"},
				"impl_item":        {codegraph.KindType, "type", "body"},
				"mod_item":         {codegraph.KindModule, "name", "body"},
				"macro_definition": {codegraph.KindMacro, "name", "body"},
			},
			commentTypes: map[string]bool{"line_comment": true, "block_comment": true},
			denyLang:     codegraph.LangRust,
		},
		codegraph.LangJava: &treeSitterAnalyzer{
			language: java.GetLanguage(),
			rules: map[string]declRule{
				"class_declaration":     {codegraph.KindClass, "name", "body"},
				"interface_declaration": {codegraph.KindInterface, "name", "body"},
				"enum_declaration":      {codegraph.KindEnum, "name", "body"},
				"method_declaration":    {codegraph.KindMethod, "name", "body"},
				"constructor_declaration": {codegraph.KindConstructor, "name", "body"},
			},
			commentTypes: map[string]bool{"comment": true, "line_comment": true, "block_comment": true},
			denyLang:     codegraph.LangJava,
		},
		codegraph.LangCSharp: &treeSitterAnalyzer{
			language: csharp.GetLanguage(),
			rules: map[string]declRule{
				"class_declaration":     {codegraph.KindClass, "name", "body"},
				"interface_declaration": {codegraph.KindInterface, "name", "body"},
				"struct_declaration":    {codegraph.KindStruct, "name", "body"},
				"enum_declaration":      {codegraph.KindEnum, "name", "body"},
				"method_declaration":    {codegraph.KindMethod, "name", "body"},
				"constructor_declaration": {codegraph.KindConstructor, "name", "body"},
			},
			commentTypes: map[string]bool{"comment": true},
			denyLang:     codegraph.LangCSharp,
		},
	}
}

func (t *treeSitterAnalyzer) parseTree(source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(t.language)
	return parser.ParseCtx(context.Background(), nil, source)
}

func (t *treeSitterAnalyzer) ExtractSymbols(source []byte) ([]codegraph.ParsedSymbol, error) {
	tree, err := t.parseTree(source)
	if tree == nil {
		return nil, err
	}
	defer tree.Close()

	var out []codegraph.ParsedSymbol
	var walk func(n *sitter.Node) []codegraph.ParsedSymbol
	walk = func(n *sitter.Node) []codegraph.ParsedSymbol {
		var syms []codegraph.ParsedSymbol
		count := int(n.NamedChildCount())
		for i := 0; i < count; i++ {
			child := n.NamedChild(i)
			if rule, ok := t.rules[child.Type()]; ok {
				if sym, ok := t.buildSymbol(source, child, rule); ok {
					sym.Children = walk(child)
					syms = append(syms, sym)
					continue
				}
			}
			syms = append(syms, walk(child)...)
		}
		return syms
	}
	out = walk(tree.RootNode())
	return out, nil
}

func (t *treeSitterAnalyzer) buildSymbol(source []byte, n *sitter.Node, rule declRule) (codegraph.ParsedSymbol, bool) {
	nameNode := n.ChildByFieldName(rule.nameField)
	var name string
	if nameNode != nil {
		name = nameNode.Content(source)
	}
	if name == "" {
		return codegraph.ParsedSymbol{}, false
	}

	bodyStart := int(n.EndByte())
	if b := n.ChildByFieldName(rule.bodyField); b != nil {
		bodyStart = int(b.StartByte())
	}

	sp := n.StartPoint()
	ep := n.EndPoint()
	signature := strings.TrimSpace(string(source[n.StartByte():min(int(n.EndByte()), bodyStart)]))

	return codegraph.ParsedSymbol{
		Name: name,
		Kind: rule.kind,
		Location: codegraph.Location{
			StartLine: int(sp.Row) + 1, StartCol: int(sp.Column) + 1,
			EndLine: int(ep.Row) + 1, EndCol: int(ep.Column) + 1,
			StartByte: int(n.StartByte()), EndByte: int(n.EndByte()),
		},
		Signature:  signature,
		DocComment: t.precedingDocComment(source, n),
		Visibility: treeSitterVisibility(name),
	}, true
}

// precedingDocComment walks back over the immediately preceding sibling
// comment nodes, normalizing them the way spec §4.A requires (trim prefix,
// strip leaders, collapse whitespace, keep paragraph breaks).
func (t *treeSitterAnalyzer) precedingDocComment(source []byte, n *sitter.Node) string {
	parent := n.Parent()
	if parent == nil {
		return ""
	}
	idx := -1
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		if parent.NamedChild(i) == n {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return ""
	}
	var lines []string
	for i := idx - 1; i >= 0; i-- {
		sib := parent.NamedChild(i)
		if !t.commentTypes[sib.Type()] {
			break
		}
		text := sib.Content(source)
		text = strings.TrimPrefix(text, "///")
		text = strings.TrimPrefix(text, "//!")
		text = strings.TrimPrefix(text, "//")
		text = strings.TrimPrefix(text, "/**")
		text = strings.TrimPrefix(text, "/*")
		text = strings.TrimSuffix(text, "*/")
		var norm []string
		for _, l := range strings.Split(text, "\n") {
			l = strings.TrimPrefix(strings.TrimSpace(l), "*")
			norm = append(norm, strings.Join(strings.Fields(l), " "))
		}
		lines = append([]string{strings.TrimSpace(strings.Join(norm, "\n"))}, lines...)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func treeSitterVisibility(name string) codegraph.Visibility {
	if name == "" {
		return codegraph.VisUnknown
	}
	if strings.HasPrefix(name, "_") {
		return codegraph.VisPrivate
	}
	r := name[0]
	if r >= 'A' && r <= 'Z' {
		return codegraph.VisPublic
	}
	return codegraph.VisUnknown
}

// ExtractReferences walks call-expression-like nodes across the supported
// grammars. Node type names for "a call" vary by grammar; we match the
// common ones directly rather than introducing a second rule table, since
// the set is small and stable across these languages.
var callNodeTypes = map[string]string{ // node type -> field holding the callee
	"call_expression":     "function",
	"call":                "function",
	"method_invocation":   "name",
	"macro_invocation":    "macro",
}

func (t *treeSitterAnalyzer) ExtractReferences(source []byte) ([]codegraph.ParsedReference, error) {
	tree, err := t.parseTree(source)
	if tree == nil {
		return nil, err
	}
	defer tree.Close()

	var out []codegraph.ParsedReference
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if field, ok := callNodeTypes[n.Type()]; ok {
			callee := n.ChildByFieldName(field)
			if callee == nil {
				callee = n.NamedChild(0)
			}
			if callee != nil {
				name := callee.Content(source)
				kind := codegraph.RefCall
				if n.Type() == "macro_invocation" {
					kind = codegraph.RefMacroInvocation
				}
				if !Denied(t.denyLang, name) {
					sp := callee.StartPoint()
					ep := callee.EndPoint()
					out = append(out, codegraph.ParsedReference{
						Name: name,
						Kind: kind,
						Location: codegraph.Location{
							StartLine: int(sp.Row) + 1, StartCol: int(sp.Column) + 1,
							EndLine: int(ep.Row) + 1, EndCol: int(ep.Column) + 1,
							StartByte: int(callee.StartByte()), EndByte: int(callee.EndByte()),
						},
					})
				}
			}
		}
		count := int(n.NamedChildCount())
		for i := 0; i < count; i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())
	return out, nil
}
