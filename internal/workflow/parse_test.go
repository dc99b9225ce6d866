package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleToml = `
[workflow]
name = "deploy"
description = "deploy a service"

[[inputs]]
name = "service"
type = "select"
prompt = "Which service?"
options = ["api", "web"]

[[inputs]]
name = "confirm_deploy"
type = "confirm"
prompt = "Really deploy?"
default = "true"

[[steps]]
name = "run"
run = "echo deploying {{.service}}"
`

func TestParse(t *testing.T) {
	f, err := Parse("deploy.toml", []byte(sampleToml))
	require.NoError(t, err)
	require.Equal(t, "deploy", f.Name())
	require.Equal(t, "deploy a service", f.Description())
	require.Len(t, f.Inputs, 2)
	require.Equal(t, InputSelect, f.Inputs[0].Type)
	require.Len(t, f.Steps, 1)
}

func TestParse_MissingName(t *testing.T) {
	_, err := Parse("bad.toml", []byte("[workflow]\ndescription = \"x\"\n"))
	require.Error(t, err)
}

func TestParse_DefaultsInputTypeToText(t *testing.T) {
	data := "[workflow]\nname = \"x\"\n[[inputs]]\nname = \"n\"\nprompt = \"p\"\n"
	f, err := Parse("x.toml", []byte(data))
	require.NoError(t, err)
	require.Equal(t, InputText, f.Inputs[0].Type)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deploy.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleToml), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "deploy", f.Name())
	require.Equal(t, path, f.Path)
}
