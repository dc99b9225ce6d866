// Package workflow implements the TOML-defined, multi-step automation
// scripts described in spec §4.H: discovery, input collection (prefilled,
// env, interactive), template rendering, and step execution.
package workflow

// InputType selects how a single input value is gathered and, when
// interactive, which widget prompts for it.
type InputType string

const (
	InputSelect      InputType = "select"
	InputText        InputType = "input"
	InputConfirm     InputType = "confirm"
	InputMultiSelect InputType = "multi_select"
	InputPassword    InputType = "password"
)

// OptionsSource names one of the built-in option enumerators available to
// a select/multi_select input in place of a static options list.
type OptionsSource struct {
	Kind string `toml:"kind"`

	// docker-compose-services
	File string `toml:"file"`

	// directories, files
	Path    string `toml:"path"`
	Pattern string `toml:"pattern"`

	// lines-from-file
	LinesFile string `toml:"lines_file"`
}

const (
	SourceGitBranches           = "git-branches"
	SourceGitTags               = "git-tags"
	SourceGitRemotes            = "git-remotes"
	SourcePlugins               = "plugins"
	SourceDockerComposeServices = "docker-compose-services"
	SourceDirectories           = "directories"
	SourceFiles                 = "files"
	SourceLinesFromFile         = "lines-from-file"
	SourceCargoWorkspaceMembers = "cargo-workspace-members"
	SourceReleaseServices       = "release-services"
)

// Input describes one value a workflow needs before its steps can run.
type Input struct {
	Name              string         `toml:"name"`
	Prompt            string         `toml:"prompt"`
	Type              InputType      `toml:"type"`
	Options           []string       `toml:"options"`
	OptionsCmd        string         `toml:"options_cmd"`
	OptionsSource     *OptionsSource `toml:"options_source"`
	Autocomplete      bool           `toml:"autocomplete"`
	AutocompleteCount int            `toml:"autocomplete_count"`
	Default           string         `toml:"default"`
	Validation        string         `toml:"validation"`
	Env               string         `toml:"env"`
	Condition         string         `toml:"condition"`
}

// Step is a single shell command executed once all inputs are resolved.
type Step struct {
	Name      string `toml:"name"`
	Condition string `toml:"condition"`
	Run       string `toml:"run"`
}

type workflowMeta struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// File is the parsed shape of a `<name>.toml` workflow definition.
type File struct {
	Workflow workflowMeta `toml:"workflow"`
	Inputs   []Input      `toml:"inputs"`
	Steps    []Step       `toml:"steps"`

	// Path is the filesystem location File was loaded from; not part of
	// the TOML shape.
	Path string `toml:"-"`
}

// Name returns the workflow's declared name.
func (f *File) Name() string { return f.Workflow.Name }

// Description returns the workflow's declared description.
func (f *File) Description() string { return f.Workflow.Description }
