package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted when the matching YAML key is absent.
const (
	EnvFigmaToken     = "FIGMA_TOKEN"
	EnvProjectToken   = "PROJECT_TOKEN"
	EnvFigmaFileToken = "FIGMA_FILE_TOKEN"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "percyFigma.yml"

// LoadConfig reads the YAML file at configFile and validates it into a Config.
// getenv supplies environment fallbacks; pass os.Getenv outside of tests.
func LoadConfig(configFile string, getenv func(string) string) (*Config, error) {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("failed to read %s: %v", configFile, err)}
	}
	return Parse(raw, getenv)
}

// Parse validates raw YAML bytes into a Config.
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	var rc rawConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("failed to unmarshal: %v", err)}
	}

	// ----- Figma user token -----
	figmaToken := firstNonEmpty(rc.FigmaToken, getenv(EnvFigmaToken))
	if figmaToken == "" {
		return nil, &ConfigError{
			Field: "figma_token",
			Msg:   "Figma user token not provided, set it in the config file or as " + EnvFigmaToken,
		}
	}

	// ----- Container token (project or file variant) -----
	source, err := resolveSource(rc, getenv)
	if err != nil {
		return nil, err
	}

	// ----- Node ids -----
	if len(rc.IDs) == 0 {
		return nil, &ConfigError{Field: "ids", Msg: "no image ids found in the config file"}
	}
	for i, id := range rc.IDs {
		if strings.TrimSpace(id) == "" {
			return nil, &ConfigError{Field: "ids", Msg: fmt.Sprintf("id at position %d is empty", i)}
		}
	}

	// ----- Output names (file variant only) -----
	if len(rc.Names) > 0 {
		fs, ok := source.(FileSource)
		if !ok {
			return nil, &ConfigError{Field: "names", Msg: "names are only supported together with figma_file_token"}
		}
		if len(rc.Names) != len(rc.IDs) {
			return nil, &ConfigError{
				Field: "names",
				Msg:   fmt.Sprintf("got %d names for %d ids, they are paired by position", len(rc.Names), len(rc.IDs)),
			}
		}
		// Each name becomes <name>.png in the scratch directory, so they must be unique.
		firstAt := make(map[string]int, len(rc.Names))
		for i, name := range rc.Names {
			if err := validateName(name); err != nil {
				return nil, &ConfigError{Field: "names", Msg: fmt.Sprintf("name at position %d: %v", i, err)}
			}
			if j, dup := firstAt[name]; dup {
				return nil, &ConfigError{
					Field: "names",
					Msg:   fmt.Sprintf("name %q at position %d duplicates position %d", name, i, j),
				}
			}
			firstAt[name] = i
		}
		fs.Names = rc.Names
		source = fs
	}

	return &Config{
		FigmaToken: figmaToken,
		Source:     source,
		IDs:        rc.IDs,
		PercyToken: rc.PercyToken,
	}, nil
}

// resolveSource picks the container variant. Config keys win over the
// environment, and the two token kinds may never be mixed.
func resolveSource(rc rawConfig, getenv func(string) string) (Source, error) {
	switch {
	case rc.ProjectToken != "" && rc.FigmaFileToken != "":
		return nil, &ConfigError{Msg: "project_token and figma_file_token are mutually exclusive"}
	case rc.ProjectToken != "":
		return ProjectSource{Token: rc.ProjectToken}, nil
	case rc.FigmaFileToken != "":
		return FileSource{Token: rc.FigmaFileToken}, nil
	}

	project, file := getenv(EnvProjectToken), getenv(EnvFigmaFileToken)
	switch {
	case project != "" && file != "":
		return nil, &ConfigError{
			Msg: fmt.Sprintf("both %s and %s are set, choose one in the config file", EnvProjectToken, EnvFigmaFileToken),
		}
	case project != "":
		return ProjectSource{Token: project}, nil
	case file != "":
		return FileSource{Token: file}, nil
	}
	return nil, &ConfigError{
		Field: "project_token",
		Msg: fmt.Sprintf("Figma project or file token not provided, set project_token or figma_file_token, or %s / %s",
			EnvProjectToken, EnvFigmaFileToken),
	}
}

// validateName rejects names that would escape the scratch directory.
func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("empty name")
	case name == "." || name == "..":
		return fmt.Errorf("invalid name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("name %q contains a path separator", name)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
