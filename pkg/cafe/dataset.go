package cafe

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed dataset.yaml
var defaultDataset []byte

// datasetFile is the on-disk layout of a cafe dataset.
type datasetFile struct {
	Version string `yaml:"version"`
	Cafes   []Cafe `yaml:"cafes"`
}

// Decode parses a YAML dataset and validates it.
func Decode(data []byte) (*Collection, error) {
	var file datasetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse cafe dataset: %w", err)
	}
	return NewCollection(file.Cafes)
}

// LoadFile reads and parses the dataset at path.
func LoadFile(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cafe dataset: %w", err)
	}
	return Decode(data)
}

// LoadDefault returns the dataset compiled into the binary.
func LoadDefault() (*Collection, error) {
	return Decode(defaultDataset)
}

// Load returns the dataset at path, or the built-in one when path is empty.
func Load(path string) (*Collection, error) {
	if path == "" {
		return LoadDefault()
	}
	return LoadFile(path)
}
