package workflow

import (
	"bytes"
	"strings"
	"text/template"
)

// funcMap supplies the filters the original minijinja-based engine exposed:
// string containment plus boolean composition for use inside `condition`
// expressions and `run` bodies.
var funcMap = template.FuncMap{
	"starts_with": strings.HasPrefix,
	"contains":    strings.Contains,
	"and":         func(a, b bool) bool { return a && b },
	"or":          func(a, b bool) bool { return a || b },
}

// render substitutes `{{.name}}`-style references to values into body.
func render(body string, values map[string]string) (string, error) {
	tmpl, err := template.New("workflow").Funcs(funcMap).Parse(body)
	if err != nil {
		return "", err
	}
	data := make(map[string]any, len(values))
	for k, v := range values {
		data[k] = v
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// isFalsy reports whether a rendered condition string counts as false:
// empty, or one of "false"/"0"/"none" case-insensitively, after trimming.
func isFalsy(rendered string) bool {
	s := strings.ToLower(strings.TrimSpace(rendered))
	switch s {
	case "", "false", "0", "none":
		return true
	default:
		return false
	}
}

// evaluateCondition renders expr against values and reports whether the
// guarded item (an Input or a Step) should run.
func evaluateCondition(expr string, values map[string]string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	rendered, err := render(expr, values)
	if err != nil {
		return false, err
	}
	return !isFalsy(rendered), nil
}
