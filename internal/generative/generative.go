// Package generative is the boundary to the generative text service.
// Callers own prompt templating and must absorb ErrGeneration with their
// own fallback values.
package generative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrGeneration covers transport failures, timeouts, non-2xx answers and
// output that does not parse as a JSON object.
var ErrGeneration = errors.New("generation failure")

// Completer turns a prompt into free-form text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ExtractJSON strips surrounding code-fence markers and checks that what is
// left is a JSON object.
func ExtractJSON(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if !gjson.Valid(cleaned) || !gjson.Parse(cleaned).IsObject() {
		return "", fmt.Errorf("%w: response is not a JSON object: %.200q", ErrGeneration, text)
	}
	return cleaned, nil
}

// CompleteJSON calls c and returns the parsed JSON object.
func CompleteJSON(ctx context.Context, c Completer, prompt string) (gjson.Result, error) {
	if c == nil {
		return gjson.Result{}, fmt.Errorf("%w: no completer configured", ErrGeneration)
	}
	text, err := c.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrGeneration) {
			return gjson.Result{}, err
		}
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	raw, err := ExtractJSON(text)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.Parse(raw), nil
}

// String returns the field as a string, or def when the field is missing or null.
func String(obj gjson.Result, field, def string) string {
	v := obj.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	return v.String()
}

// Bool returns the field as a bool, or def when missing or not a boolean.
func Bool(obj gjson.Result, field string, def bool) bool {
	v := obj.Get(field)
	if !v.IsBool() {
		return def
	}
	return v.Bool()
}

// Int returns the field as an int, or def when missing or not numeric.
func Int(obj gjson.Result, field string, def int) int {
	v := obj.Get(field)
	if v.Type != gjson.Number {
		return def
	}
	return int(v.Int())
}

// Strings returns the field as a string slice, or def when missing or not an array.
// Non-string elements are skipped.
func Strings(obj gjson.Result, field string, def []string) []string {
	v := obj.Get(field)
	if !v.IsArray() {
		return def
	}
	out := []string{}
	for _, item := range v.Array() {
		if item.Type == gjson.String {
			out = append(out, item.String())
		}
	}
	return out
}
