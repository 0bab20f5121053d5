package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"locales/en-US/events.yaml": {Data: []byte(`locale: "en-US"
namespace: "events"
messages:
  "pick-action": "{character} picks up {item}"
  "pick-success": "Got it!"
`)},
		"locales/en-US/entities.yaml": {Data: []byte(`locale: "en-US"
namespace: "entities"
messages:
  "character-kitie": "Kitie"
`)},
		"locales/cs/events.yaml": {Data: []byte(`locale: "cs"
namespace: "events"
messages:
  "pick-action": "{character} zvedá {item}"
`)},
	}
}

func TestLoadFromFS(t *testing.T) {
	b, err := LoadFromFS(testFS())
	require.NoError(t, err)
	assert.Equal(t, []string{"cs", "en-US"}, b.Locales())
	assert.True(t, b.HasLocale("cs"))
	assert.False(t, b.HasLocale("de"))
}

func TestLoadFromFS_Rejects(t *testing.T) {
	tests := []struct {
		name string
		fs   fstest.MapFS
	}{
		{"empty", fstest.MapFS{}},
		{"no base locale", fstest.MapFS{
			"locales/cs/events.yaml": {Data: []byte("locale: \"cs\"\nnamespace: \"events\"\nmessages:\n  \"a\": \"b\"\n")},
		}},
		{"locale mismatch", fstest.MapFS{
			"locales/en-US/events.yaml": {Data: []byte("locale: \"cs\"\nnamespace: \"events\"\nmessages:\n  \"a\": \"b\"\n")},
		}},
		{"namespace mismatch", fstest.MapFS{
			"locales/en-US/events.yaml": {Data: []byte("locale: \"en-US\"\nnamespace: \"other\"\nmessages:\n  \"a\": \"b\"\n")},
		}},
		{"no messages", fstest.MapFS{
			"locales/en-US/events.yaml": {Data: []byte("locale: \"en-US\"\nnamespace: \"events\"\n")},
		}},
		{"duplicate key across namespaces", fstest.MapFS{
			"locales/en-US/a.yaml": {Data: []byte("locale: \"en-US\"\nnamespace: \"a\"\nmessages:\n  \"k\": \"1\"\n")},
			"locales/en-US/b.yaml": {Data: []byte("locale: \"en-US\"\nnamespace: \"b\"\nmessages:\n  \"k\": \"2\"\n")},
		}},
		{"invalid yaml", fstest.MapFS{
			"locales/en-US/events.yaml": {Data: []byte("locale: [\n")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFS(tt.fs)
			assert.Error(t, err)
		})
	}
}

func TestMatch(t *testing.T) {
	b := MustLoad(testFS())

	tests := []struct {
		lang     string
		expected string
	}{
		{"en-US", "en-US"},
		{"cs", "cs"},
		{"cs-CZ", "cs"},
		{"cs-CZ,cs;q=0.9,en;q=0.8", "cs"},
		{"en-GB", "en-US"},
		{"de", "en-US"},
		{"", "en-US"},
		{"not a tag!", "en-US"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.expected, b.Match(tt.lang))
		})
	}
}

func TestMessage(t *testing.T) {
	b := MustLoad(testFS())
	args := map[string]string{"character": "Kitie", "item": "the flour"}

	assert.Equal(t, "Kitie picks up the flour", b.Message("pick-action", "en-US", args))
	assert.Equal(t, "Kitie zvedá the flour", b.Message("pick-action", "cs", args))
	// cs has no success text, so the base locale answers
	assert.Equal(t, "Got it!", b.Message("pick-success", "cs", nil))
	assert.Equal(t, "Kitie", b.Message("character-kitie", "cs", nil))
	assert.Equal(t, "give-action", b.Message("give-action", "en-US", args))

	var nilBundle *Bundle
	assert.Equal(t, "pick-action", nilBundle.Message("pick-action", "en-US", nil))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		args     map[string]string
		expected string
	}{
		{"no args", "hello {who}", nil, "hello {who}"},
		{"replaces", "{a} and {b}", map[string]string{"a": "1", "b": "2"}, "1 and 2"},
		{"keeps unknown", "{a} and {c}", map[string]string{"a": "1"}, "1 and {c}"},
		{"unterminated", "{a} and {b", map[string]string{"a": "1", "b": "2"}, "1 and {b"},
		{"repeated", "{a}{a}", map[string]string{"a": "x"}, "xx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.template, tt.args))
		})
	}
}
