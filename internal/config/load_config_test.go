package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParse_ProjectVariant(t *testing.T) {
	cfg, err := Parse([]byte(`
figma_token: user-token
project_token: proj-token
ids:
  - "1:2"
  - "3:4"
percy_token: percy-secret
`), nil)
	require.NoError(t, err)

	assert.Equal(t, "user-token", cfg.FigmaToken)
	assert.Equal(t, ProjectSource{Token: "proj-token"}, cfg.Source)
	assert.Equal(t, "proj-token", cfg.Source.ContainerToken())
	assert.Equal(t, []string{"1:2", "3:4"}, cfg.IDs)
	assert.Equal(t, "percy-secret", cfg.PercyToken)
}

func TestParse_FileVariantWithNames(t *testing.T) {
	cfg, err := Parse([]byte(`
figma_token: user-token
figma_file_token: file-token
ids: ["1:2", "3:4"]
names: ["home", "settings"]
`), nil)
	require.NoError(t, err)

	fs, ok := cfg.Source.(FileSource)
	require.True(t, ok, "expected FileSource, got %T", cfg.Source)
	assert.Equal(t, "file-token", fs.Token)
	assert.Equal(t, []string{"home", "settings"}, fs.Names)
}

func TestParse_EnvironmentFallback(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantSrc Source
		wantTok string
	}{
		{
			name:    "all tokens from env, project",
			yaml:    `ids: ["1:2"]`,
			env:     map[string]string{EnvFigmaToken: "env-user", EnvProjectToken: "env-proj"},
			wantSrc: ProjectSource{Token: "env-proj"},
			wantTok: "env-user",
		},
		{
			name:    "file token from env",
			yaml:    `ids: ["1:2"]`,
			env:     map[string]string{EnvFigmaToken: "env-user", EnvFigmaFileToken: "env-file"},
			wantSrc: FileSource{Token: "env-file"},
			wantTok: "env-user",
		},
		{
			name:    "config wins over env",
			yaml:    "figma_token: cfg-user\nproject_token: cfg-proj\nids: [\"1:2\"]",
			env:     map[string]string{EnvFigmaToken: "env-user", EnvFigmaFileToken: "env-file"},
			wantSrc: ProjectSource{Token: "cfg-proj"},
			wantTok: "cfg-user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml), envMap(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSrc, cfg.Source)
			assert.Equal(t, tt.wantTok, cfg.FigmaToken)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		env       map[string]string
		wantField string
	}{
		{
			name:      "missing figma token",
			yaml:      "project_token: p\nids: [\"1:2\"]",
			wantField: "figma_token",
		},
		{
			name:      "missing container token",
			yaml:      "figma_token: u\nids: [\"1:2\"]",
			wantField: "project_token",
		},
		{
			name: "both container tokens in config",
			yaml: "figma_token: u\nproject_token: p\nfigma_file_token: f\nids: [\"1:2\"]",
		},
		{
			name: "both container tokens in env",
			yaml: "figma_token: u\nids: [\"1:2\"]",
			env:  map[string]string{EnvProjectToken: "p", EnvFigmaFileToken: "f"},
		},
		{
			name:      "no ids",
			yaml:      "figma_token: u\nproject_token: p",
			wantField: "ids",
		},
		{
			name:      "empty id",
			yaml:      "figma_token: u\nproject_token: p\nids: [\"1:2\", \"\"]",
			wantField: "ids",
		},
		{
			name:      "names length mismatch",
			yaml:      "figma_token: u\nfigma_file_token: f\nids: [\"1:2\", \"3:4\"]\nnames: [\"only-one\"]",
			wantField: "names",
		},
		{
			name:      "names with project token",
			yaml:      "figma_token: u\nproject_token: p\nids: [\"1:2\"]\nnames: [\"home\"]",
			wantField: "names",
		},
		{
			name:      "duplicate names",
			yaml:      "figma_token: u\nfigma_file_token: f\nids: [\"1:2\", \"3:4\"]\nnames: [\"home\", \"home\"]",
			wantField: "names",
		},
		{
			name:      "name escaping directory",
			yaml:      "figma_token: u\nfigma_file_token: f\nids: [\"1:2\"]\nnames: [\"../home\"]",
			wantField: "names",
		},
		{
			name: "invalid yaml",
			yaml: "ids: [unterminated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml), envMap(tt.env))
			require.Error(t, err)
			assert.Nil(t, cfg)

			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.wantField, cerr.Field)
		})
	}
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "percyFigma.yml")
	require.NoError(t, os.WriteFile(path, []byte("figma_token: u\nproject_token: p\nids: [\"1:2\"]\n"), 0644))

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1:2"}, cfg.IDs)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"), nil)

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Error(), "failed to read")
}
