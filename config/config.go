// Package config loads the CLI front end's environment: a .env file (via
// godotenv) layered under process environment variables, plus an
// optional sqltpl.yaml for defaults the command line doesn't override.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// File is the on-disk configuration format, loaded from sqltpl.yaml.
type File struct {
	// DefaultURI is used when both --uri and --dialect are omitted from
	// the query command.
	DefaultURI string `yaml:"default_uri"`
	// MockPath, if set, supplies a default --mock-path entry
	// (<template-path>=<rows-file>) used when the query command's
	// --mock-path and --mock-table flags are both omitted.
	MockPath string `yaml:"mock_path"`
}

// LoadEnv loads a .env file from the current directory into the process
// environment, if one is present. A missing file is not an error.
func LoadEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load(".env")
}

// Load reads path as YAML into a File. A missing file yields a zero File
// and no error, so sqltpl.yaml is always optional.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
