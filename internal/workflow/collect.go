package workflow

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"adi/internal/errs"
)

// CollectInputs resolves every declared input in order, threading earlier
// values forward so later `condition` expressions and option commands can
// reference them. Resolution order per input: condition check, prefilled
// CLI value, environment variable, (non-interactive) default, then an
// interactive prompt.
func CollectInputs(f *File, cwd string, prefilled map[string]string, interactive bool) (map[string]string, error) {
	values := map[string]string{}
	var missing []string

	for _, in := range f.Inputs {
		ok, err := evaluateCondition(in.Condition, values)
		if err != nil {
			return nil, fmt.Errorf("input %q condition: %w", in.Name, err)
		}
		if !ok {
			continue
		}

		if raw, present := prefilled[in.Name]; present {
			value, err := convertPrefilledValue(in, raw, cwd)
			if err != nil {
				return nil, err
			}
			values[in.Name] = value
			continue
		}

		if in.Env != "" {
			if envVal := os.Getenv(in.Env); envVal != "" {
				value, err := convertPrefilledValue(in, envVal, cwd)
				if err != nil {
					return nil, err
				}
				values[in.Name] = value
				continue
			}
		}

		if !interactive {
			if in.Default != "" {
				values[in.Name] = in.Default
				continue
			}
			missing = append(missing, in.Name)
			continue
		}

		value, err := promptInteractive(in, cwd)
		if err != nil {
			return nil, err
		}
		values[in.Name] = value
	}

	if len(missing) > 0 {
		return nil, missingInputsError(missing)
	}
	return values, nil
}

func missingInputsError(names []string) error {
	return &errs.MissingInputs{Names: names}
}

// SuggestInvocation renders the `-i name=value` flags a caller should add
// to satisfy a MissingInputs error non-interactively.
func SuggestInvocation(names []string) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("-i %s=<value>", name)
	}
	return strings.Join(parts, " ")
}

// convertPrefilledValue validates and normalizes a raw string value (from
// -i flags or an environment variable) against an input's declared type.
func convertPrefilledValue(in Input, raw string, cwd string) (string, error) {
	switch in.Type {
	case InputConfirm:
		return convertConfirm(in, raw)
	case InputSelect:
		opts, err := resolveOptions(in, cwd)
		if err != nil {
			return "", &errs.InvalidInput{Name: in.Name, Reason: err.Error()}
		}
		return matchOption(in.Name, raw, opts)
	case InputMultiSelect:
		opts, err := resolveOptions(in, cwd)
		if err != nil {
			return "", &errs.InvalidInput{Name: in.Name, Reason: err.Error()}
		}
		parts := strings.Split(raw, ",")
		resolved := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			match, err := matchOption(in.Name, p, opts)
			if err != nil {
				return "", err
			}
			resolved = append(resolved, match)
		}
		return strings.Join(resolved, ","), nil
	case InputPassword, InputText:
		return convertValidated(in, raw)
	default:
		return raw, nil
	}
}

func convertConfirm(in Input, raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1":
		return "true", nil
	case "false", "no", "n", "0":
		return "false", nil
	default:
		return "", &errs.InvalidInput{Name: in.Name, Reason: fmt.Sprintf("%q is not a valid confirm value", raw)}
	}
}

func convertValidated(in Input, raw string) (string, error) {
	if in.Validation == "" {
		return raw, nil
	}
	re, err := regexp.Compile(in.Validation)
	if err != nil {
		return "", &errs.InvalidInput{Name: in.Name, Reason: fmt.Sprintf("bad validation pattern: %v", err)}
	}
	if !re.MatchString(raw) {
		return "", &errs.InvalidInput{Name: in.Name, Reason: fmt.Sprintf("%q does not match %s", raw, in.Validation)}
	}
	return raw, nil
}

// matchOption resolves raw against options by exact match, or by unique
// prefix match against either the whole option or the part preceding a
// " - " description separator.
func matchOption(name, raw string, options []string) (string, error) {
	for _, opt := range options {
		if opt == raw {
			return opt, nil
		}
	}

	var candidates []string
	for _, opt := range options {
		value := opt
		if idx := strings.Index(opt, " - "); idx >= 0 {
			value = opt[:idx]
		}
		if value == raw || strings.HasPrefix(value, raw) {
			candidates = append(candidates, opt)
		}
	}

	sort.Strings(candidates)
	switch len(candidates) {
	case 0:
		return "", &errs.InvalidInput{Name: name, Reason: fmt.Sprintf("%q matches no option", raw)}
	case 1:
		return candidates[0], nil
	default:
		return "", &errs.InvalidInput{Name: name, Reason: fmt.Sprintf("%q matches multiple options: %v", raw, candidates)}
	}
}
