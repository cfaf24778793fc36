package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, &UserConfig{}, cfg)
	assert.Equal(t, StorageFile, cfg.ResolveStorage())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	want := &UserConfig{APIURL: "https://api.example.org", Storage: StorageKeyring, Cache: true}

	require.NoError(t, SaveTo(path, want))

	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"api_url": "https://api.example.org"`)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"api_url":`},
		{"unknown storage", `{"storage":"cloud"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadFrom(path)
			assert.Error(t, err)
		})
	}
}

func TestResolveAPIURL(t *testing.T) {
	const fallback = "http://localhost:8080"

	tests := []struct {
		name string
		cfg  UserConfig
		env  string
		want string
	}{
		{"fallback", UserConfig{}, "", fallback},
		{"config file", UserConfig{APIURL: "http://file"}, "", "http://file"},
		{"env wins", UserConfig{APIURL: "http://file"}, "http://env", "http://env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ResolveAPIURL(tt.env, fallback))
		})
	}
}

func TestDir(t *testing.T) {
	assert.Equal(t, "shiftdesk", filepath.Base(Dir()))
	assert.Equal(t, "config.json", filepath.Base(GetConfigPath()))
}
