package shell

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func Test_EscapeIsIdempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Escaped output is either the unchanged input or a fully double-quoted
	// word, both of which Escape passes through untouched.
	properties.Property("escaping an escaped string changes nothing", prop.ForAll(
		func(raw string) bool {
			once := Escape(raw)
			return Escape(once) == once
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func Test_EscapePassesAlphanumericsThrough(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("alphanumeric strings are returned unchanged", prop.ForAll(
		func(raw string) bool {
			return Escape(raw) == raw
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func Test_EscapeWrapsAnythingWithASpace(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("unquoted input containing a space comes back double-quoted", prop.ForAll(
		func(a string, b string) bool {
			raw := a + " " + b
			if isQuoted(raw) {
				return Escape(raw) == raw
			}
			out := Escape(raw)
			return strings.HasPrefix(out, "\"") && strings.HasSuffix(out, "\"")
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
