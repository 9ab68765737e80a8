package config

import "fmt"

// Config is the validated run configuration produced by LoadConfig.
//   - FigmaToken: personal access token sent as X-FIGMA-TOKEN.
//   - Source: which Figma container the ids belong to (project or file variant).
//   - IDs: node ids to render, in configured order.
//   - PercyToken: optional token handed to the upload tool's environment.
type Config struct {
	FigmaToken string
	Source     Source
	IDs        []string
	PercyToken string
}

// Source selects the Figma container the node ids are rendered from.
// It is implemented only by ProjectSource and FileSource.
type Source interface {
	// ContainerToken is the path segment of the images endpoint.
	ContainerToken() string
	isSource()
}

// ProjectSource is the project-token variant: files are named after their node id.
type ProjectSource struct {
	Token string
}

// FileSource is the file-token variant. When Names is set, output files are
// named positionally after it instead of the node id.
type FileSource struct {
	Token string
	Names []string
}

func (s ProjectSource) ContainerToken() string { return s.Token }
func (s FileSource) ContainerToken() string    { return s.Token }

func (ProjectSource) isSource() {}
func (FileSource) isSource()    {}

// ConfigError reports a missing or invalid configuration value.
// It is always returned before any network call is made.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Msg
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// rawConfig mirrors the YAML file layout.
type rawConfig struct {
	FigmaToken     string   `yaml:"figma_token"`
	ProjectToken   string   `yaml:"project_token"`
	FigmaFileToken string   `yaml:"figma_file_token"`
	IDs            []string `yaml:"ids"`
	Names          []string `yaml:"names"`
	PercyToken     string   `yaml:"percy_token"`
}
