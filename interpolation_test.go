package req

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContext_ResolvesNestedReferences(t *testing.T) {
	// Given
	values := map[string]string{
		"api":    "${base}/api",
		"base":   "${scheme}://${host}:${port}",
		"scheme": "https",
		"host":   "example.com",
		"port":   "8080",
	}

	// When
	ctx, err := NewContext(values)

	// Then
	require.NoError(t, err)
	api, err := ctx.Lookup("api")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com:8080/api", api)
	assert.Equal(t, map[string]string{
		"api":    "https://example.com:8080/api",
		"base":   "https://example.com:8080",
		"scheme": "https",
		"host":   "example.com",
		"port":   "8080",
	}, ctx.Values())
}

func TestNewContext_BareNamesAndForwardReferences(t *testing.T) {
	ctx, err := NewContext(map[string]string{
		"a": "$b-$c",
		"b": "${c}x",
		"c": "z",
	})
	require.NoError(t, err)

	a, err := ctx.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, "zx-z", a)
}

func TestNewContext_CircularReference(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{name: "self reference", values: map[string]string{"a": "$a"}},
		{name: "braced self reference", values: map[string]string{"a": "x${a}y"}},
		{name: "two names", values: map[string]string{"a": "${b}", "b": "${a}"}},
		{name: "three names", values: map[string]string{"a": "${b}", "b": "${c}", "c": "${a}", "d": "ok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When
			ctx, err := NewContext(tt.values)

			// Then
			require.Error(t, err)
			assert.Nil(t, ctx)
			assert.ErrorIs(t, err, ErrCircularReference)
			assert.NotErrorIs(t, err, ErrValueNotFound)

			var ierr *InterpolationError
			require.True(t, errors.As(err, &ierr))
			assert.Contains(t, tt.values, ierr.Name, "reported name must be a store entry")
			assert.Equal(t, fmt.Sprintf("found circular reference in %q", ierr.Name), err.Error())
		})
	}
}

func TestNewContext_ValueNotFound(t *testing.T) {
	// Given
	values := map[string]string{
		"url":  "${host}/${missing}",
		"host": "example.com",
	}

	// When
	_, err := NewContext(values)

	// Then
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValueNotFound)
	assert.EqualError(t, err, `value named "missing" not defined`)
}

func TestNewContext_Empty(t *testing.T) {
	ctx, err := NewContext(nil)
	require.NoError(t, err)
	assert.Empty(t, ctx.Values())

	_, err = ctx.Lookup("anything")
	assert.ErrorIs(t, err, ErrValueNotFound)
}

func TestInterpolate(t *testing.T) {
	lookup := func(name string) (string, error) {
		switch name {
		case "foo":
			return "FOO", nil
		case "my var":
			return "spaced", nil
		case "bar1":
			return "BAR", nil
		}
		return "", valueNotFound(name)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no placeholder", input: "plain text", expected: "plain text"},
		{name: "braced", input: "a ${foo} b", expected: "a FOO b"},
		{name: "bare", input: "$foo/x", expected: "FOO/x"},
		{name: "bare name stops at non alphanumeric", input: "$foo-$bar1.", expected: "FOO-BAR."},
		{name: "any characters inside braces", input: "${my var}", expected: "spaced"},
		{name: "escaped braced", input: "$${foo}", expected: "${foo}"},
		{name: "escaped bare", input: "$$foo", expected: "$foo"},
		{name: "escaped next to resolved", input: "$${foo}${foo}", expected: "${foo}FOO"},
		{name: "lone dollar", input: "cost: $ 5", expected: "cost: $ 5"},
		{name: "unterminated brace", input: "${foo", expected: "${foo"},
		{name: "empty braces", input: "${}", expected: "${}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interpolate(tt.input, lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestInterpolate_EscapedPlaceholderIsNotLookedUp(t *testing.T) {
	called := false
	lookup := func(string) (string, error) {
		called = true
		return "", errors.New("unexpected lookup")
	}

	got, err := Interpolate("$${secret} and $$other", lookup)

	require.NoError(t, err)
	assert.Equal(t, "${secret} and $other", got)
	assert.False(t, called)
}

func TestInterpolate_PropagatesLookupError(t *testing.T) {
	ctx, err := NewContext(map[string]string{"a": "1"})
	require.NoError(t, err)

	_, err = ctx.Interpolate("${a}${b}")

	assert.ErrorIs(t, err, ErrValueNotFound)
	assert.EqualError(t, err, `value named "b" not defined`)
}

func TestContext_ValuesReturnsCopy(t *testing.T) {
	ctx, err := NewContext(map[string]string{"a": "1"})
	require.NoError(t, err)

	values := ctx.Values()
	values["a"] = "changed"

	a, err := ctx.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, "1", a)
}
