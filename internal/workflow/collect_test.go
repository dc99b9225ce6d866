package workflow

import (
	"testing"

	"adi/internal/errs"

	"github.com/stretchr/testify/require"
)

func TestConvertPrefilledValue_Confirm(t *testing.T) {
	in := Input{Name: "ok", Type: InputConfirm}
	for _, raw := range []string{"y", "Y", "yes", "1", "true"} {
		v, err := convertPrefilledValue(in, raw, "")
		require.NoError(t, err)
		require.Equal(t, "true", v)
	}
	v, err := convertPrefilledValue(in, "n", "")
	require.NoError(t, err)
	require.Equal(t, "false", v)

	_, err = convertPrefilledValue(in, "maybe", "")
	require.Error(t, err)
}

func TestConvertPrefilledValue_Select_ExactAndPrefix(t *testing.T) {
	in := Input{Name: "svc", Type: InputSelect, Options: []string{"api - the api service", "web"}}
	v, err := convertPrefilledValue(in, "web", "")
	require.NoError(t, err)
	require.Equal(t, "web", v)

	v, err = convertPrefilledValue(in, "api", "")
	require.NoError(t, err)
	require.Equal(t, "api - the api service", v)
}

func TestConvertPrefilledValue_Select_Ambiguous(t *testing.T) {
	in := Input{Name: "svc", Type: InputSelect, Options: []string{"api", "apitest"}}
	_, err := convertPrefilledValue(in, "api", "")
	require.NoError(t, err) // exact match on "api" wins over prefix ambiguity

	_, err = convertPrefilledValue(in, "ap", "")
	require.Error(t, err)
}

func TestConvertPrefilledValue_MultiSelect(t *testing.T) {
	in := Input{Name: "tags", Type: InputMultiSelect, Options: []string{"a", "b", "c"}}
	v, err := convertPrefilledValue(in, "a,c", "")
	require.NoError(t, err)
	require.Equal(t, "a,c", v)
}

func TestConvertPrefilledValue_ValidationRegex(t *testing.T) {
	in := Input{Name: "version", Type: InputText, Validation: `^\d+\.\d+\.\d+$`}
	v, err := convertPrefilledValue(in, "1.2.3", "")
	require.NoError(t, err)
	require.Equal(t, "1.2.3", v)

	_, err = convertPrefilledValue(in, "bad", "")
	require.Error(t, err)
}

func TestCollectInputs_PrefilledAndDefault(t *testing.T) {
	f := &File{Inputs: []Input{
		{Name: "service", Type: InputSelect, Options: []string{"api", "web"}},
		{Name: "region", Type: InputText, Default: "us-east"},
	}}
	values, err := CollectInputs(f, "", map[string]string{"service": "api"}, false)
	require.NoError(t, err)
	require.Equal(t, "api", values["service"])
	require.Equal(t, "us-east", values["region"])
}

func TestCollectInputs_MissingNonInteractive(t *testing.T) {
	f := &File{Inputs: []Input{{Name: "service", Type: InputText}}}
	_, err := CollectInputs(f, "", nil, false)
	require.Error(t, err)
	var missing *errs.MissingInputs
	require.ErrorAs(t, err, &missing)
	require.Equal(t, []string{"service"}, missing.Names)
}

func TestCollectInputs_ConditionSkipsInput(t *testing.T) {
	f := &File{Inputs: []Input{
		{Name: "enable_foo", Type: InputConfirm, Default: "false"},
		{Name: "foo_level", Type: InputText, Condition: "{{.enable_foo}}"},
	}}
	values, err := CollectInputs(f, "", map[string]string{"enable_foo": "false"}, false)
	require.NoError(t, err)
	_, present := values["foo_level"]
	require.False(t, present)
}
