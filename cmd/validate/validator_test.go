package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/storyworld/pkg/stories"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func freshDump(t *testing.T, story string) []byte {
	t.Helper()
	s, err := stories.Get(story)
	require.NoError(t, err)
	w, err := s.Setup("en-US")
	require.NoError(t, err)
	data, err := w.Dump()
	require.NoError(t, err)
	return data
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	cake := writeFile(t, dir, "cake_start.json", freshDump(t, "cake"))
	doll := writeFile(t, dir, "doll_start.json", freshDump(t, "doll"))
	good := writeFile(t, dir, "good.json", []byte(`[
		{"name":"pick","character":"kitie","item":"sand_cake"},
		{"name":"give_sand_cake","from_character":"kitie","to_character":"doggie","item":"sand_cake"}
	]`))
	blocked := writeFile(t, dir, "blocked.json", []byte(`[
		{"name":"move","character":"kitie","scene":"kitchen"}
	]`))
	unknown := writeFile(t, dir, "unknown.json", []byte(`[{"name":"fly","character":"kitie"}]`))
	notArray := writeFile(t, dir, "object.json", []byte(`{"name":"pick"}`))
	broken := writeFile(t, dir, "broken.json", []byte(`{"characters":`))
	textFile := writeFile(t, dir, "world.txt", freshDump(t, "cake"))
	ghostOwner := writeFile(t, dir, "ghost_owner.json", []byte(`{"items":{"sand_cake":{"state":{"Owned":"ghost"}}}}`))
	moonScene := writeFile(t, dir, "moon.json", []byte(`{"characters":{"kitie":{"scene":"moon"}}}`))

	tests := []struct {
		name    string
		story   string
		file    string
		events  string
		wantErr string
		wantOut string
	}{
		{name: "fresh cake world", story: "cake", file: cake, wantOut: "events available"},
		{name: "fresh doll world", story: "doll", file: doll, wantOut: "events available"},
		{name: "replay", story: "cake", file: cake, events: good, wantOut: "2. "},
		{name: "blocked replay", story: "cake", file: cake, events: blocked, wantErr: "cannot be triggered"},
		{name: "unknown event", story: "cake", file: cake, events: unknown, wantErr: "event 1"},
		{name: "events not an array", story: "cake", file: cake, events: notArray, wantErr: "JSON array"},
		{name: "wrong story", story: "doll", file: cake, wantErr: "does not load"},
		{name: "unknown story", story: "pirates", file: cake, wantErr: "pirates"},
		{name: "item owned by unknown character", story: "cake", file: ghostOwner, wantErr: "does not load"},
		{name: "character in unknown scene", story: "cake", file: moonScene, wantErr: "moon"},
		{name: "invalid json", story: "cake", file: broken, wantErr: "invalid JSON"},
		{name: "wrong extension", story: "cake", file: textFile, wantErr: ".json extension"},
		{name: "missing file", story: "cake", file: filepath.Join(dir, "missing.json"), wantErr: "failed to read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			v := &WorldValidator{out: &out}
			err := v.validateFile(tt.story, tt.file, tt.events)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestIsValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"kitie", true},
		{"sand_cake", true},
		{"a", true},
		{"children_garden2", true},
		{"Kitie", false},
		{"sand-cake", false},
		{"trailing_", false},
		{"2cake", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isValidID(tt.id), tt.id)
	}
}
