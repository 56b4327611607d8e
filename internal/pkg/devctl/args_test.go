package devctl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCollapsesNamedPayload(t *testing.T) {
	var args Args
	require.NoError(t, json.Unmarshal([]byte(`{"commandType": "power", "commandOfPowerchange": "turnOn"}`), &args))

	cmd, err := Normalize(args)
	require.NoError(t, err)

	assert.Equal(t, "power", cmd.Type)
	assert.Equal(t, "", cmd.Target)
	text, ok := cmd.Payload.Text()
	assert.True(t, ok)
	assert.Equal(t, "turnOn", text)
}

func TestNormalizeTakesFirstRemainingKey(t *testing.T) {
	var args Args
	require.NoError(t, json.Unmarshal([]byte(`{"commandOfTempset": 24, "commandTarget": "work", "commandOfTempchange": 2, "commandType": "tempset"}`), &args))

	cmd, err := Normalize(args)
	require.NoError(t, err)

	assert.Equal(t, "tempset", cmd.Type)
	assert.Equal(t, "work", cmd.Target)
	n, ok := cmd.Payload.Int()
	require.True(t, ok)
	assert.Equal(t, 24, n)
}

func TestNormalizeWithoutPayload(t *testing.T) {
	cmd, err := Normalize(Args{{Key: KeyCommandType, Value: "power"}})
	require.NoError(t, err)
	assert.False(t, cmd.Payload.IsSet())
	assert.Equal(t, "<none>", cmd.Payload.String())

	cmd, err = Normalize(nil)
	require.NoError(t, err)
	assert.Equal(t, Command{}, cmd)
}

func TestNormalizeRejectsBadTypes(t *testing.T) {
	cases := map[string]Args{
		"numeric commandType":   {{Key: KeyCommandType, Value: 1.0}},
		"numeric commandTarget": {{Key: KeyCommandTarget, Value: json.Number("3")}},
		"bool payload":          {{Key: "commandTurning", Value: true}},
		"object payload":        {{Key: "command", Value: map[string]interface{}{"a": 1}}},
		"null payload":          {{Key: "command", Value: nil}},
	}

	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(args)
			assert.Error(t, err)
		})
	}
}

func TestPayloadInt(t *testing.T) {
	n, ok := NumberPayload(-3).Int()
	assert.True(t, ok)
	assert.Equal(t, -3, n)

	_, ok = NumberPayload(2.5).Int()
	assert.False(t, ok)

	_, ok = StringPayload("3").Int()
	assert.False(t, ok)

	assert.Equal(t, "2.5", NumberPayload(2.5).String())
}

func TestArgsJSONKeepsOrder(t *testing.T) {
	var args Args
	require.NoError(t, json.Unmarshal([]byte(`{"z": 1, "a": "x", "m": [1, 2]}`), &args))
	require.Len(t, args, 3)
	assert.Equal(t, "z", args[0].Key)
	assert.Equal(t, "a", args[1].Key)
	assert.Equal(t, "m", args[2].Key)

	out, err := json.Marshal(args.With("function_output", Result{Success: "done"}))
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"x","m":[1,2],"function_output":{"success":"done"}}`, string(out))

	assert.Equal(t, map[string]interface{}{"z": 1.0, "a": "x", "m": []interface{}{1.0, 2.0}}, args.Map())
}

func TestArgsWithReplacesExistingKey(t *testing.T) {
	var args Args
	require.NoError(t, json.Unmarshal([]byte(`{"commandType": "power", "function_output": "mine", "command": "x", "function_output": "again"}`), &args))

	out, err := json.Marshal(args.With("function_output", Result{Error: "nope"}))
	require.NoError(t, err)
	assert.Equal(t, `{"commandType":"power","function_output":{"error":"nope"},"command":"x"}`, string(out))

	// the receiver is left alone
	assert.Len(t, args, 4)
	assert.Equal(t, "mine", args[1].Value)
}

func TestArgsJSONRejectsNonObject(t *testing.T) {
	var args Args
	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &args))

	require.NoError(t, json.Unmarshal([]byte(`null`), &args))
	assert.Nil(t, args)
}
