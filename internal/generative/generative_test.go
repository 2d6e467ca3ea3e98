package generative

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_StripsFences(t *testing.T) {
	cases := []string{
		"```json\n{\"a\":1}\n```",
		"```\n{\"a\":1}```",
		"  {\"a\":1}  ",
	}
	for _, in := range cases {
		out, err := ExtractJSON(in)
		require.NoError(t, err, in)
		assert.Equal(t, `{"a":1}`, out)
	}
}

func TestExtractJSON_RejectsNonObjects(t *testing.T) {
	for _, in := range []string{"", "sure! here you go", "[1,2]", "{broken"} {
		_, err := ExtractJSON(in)
		assert.True(t, errors.Is(err, ErrGeneration), "input %q err %v", in, err)
	}
}

func TestCompleteJSON_WrapsTransportErrors(t *testing.T) {
	c := CompleterFunc(func(context.Context, string) (string, error) {
		return "", errors.New("connection refused")
	})
	_, err := CompleteJSON(context.Background(), c, "p")
	assert.ErrorIs(t, err, ErrGeneration)

	_, err = CompleteJSON(context.Background(), nil, "p")
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestFieldHelpers_Defaults(t *testing.T) {
	c := CompleterFunc(func(context.Context, string) (string, error) {
		return `{"s":"x","b":true,"n":42,"arr":["a",1,"b"],"null":null}`, nil
	})
	obj, err := CompleteJSON(context.Background(), c, "p")
	require.NoError(t, err)

	assert.Equal(t, "x", String(obj, "s", "d"))
	assert.Equal(t, "d", String(obj, "missing", "d"))
	assert.Equal(t, "d", String(obj, "null", "d"))
	assert.True(t, Bool(obj, "b", false))
	assert.False(t, Bool(obj, "s", false))
	assert.Equal(t, 42, Int(obj, "n", 0))
	assert.Equal(t, 7, Int(obj, "s", 7))
	assert.Equal(t, []string{"a", "b"}, Strings(obj, "arr", nil))
	assert.Nil(t, Strings(obj, "missing", nil))
}
