package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/danebolt/weft/pkg/models"
)

// LoadPipelines reads every *.yaml file in dir as a pipeline definition.
// The map key is the pipeline's declared name, falling back to the file
// name without extension.
func LoadPipelines(dir string) (map[string]*models.PipelineDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*models.PipelineDefinition{}, nil
		}
		return nil, fmt.Errorf("reading pipeline directory: %w", err)
	}

	pipelines := make(map[string]*models.PipelineDefinition)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		def, err := LoadPipeline(path)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", entry.Name(), err)
		}
		pipelines[def.Name] = def
	}
	return pipelines, nil
}

// LoadPipeline reads a single pipeline definition file.
func LoadPipeline(path string) (*models.PipelineDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	def := &models.PipelineDefinition{}
	if err := yaml.Unmarshal(data, def); err != nil {
		return nil, fmt.Errorf("parsing pipeline yaml: %w", err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), ".yaml")
	}
	if err := ValidatePipeline(def); err != nil {
		return nil, err
	}
	return def, nil
}

// ValidatePipeline checks structural requirements of a definition:
// at least one step, unique step names, and an output variable per step.
func ValidatePipeline(def *models.PipelineDefinition) error {
	if len(def.Steps) == 0 {
		return fmt.Errorf("pipeline %q has no steps", def.Name)
	}
	seen := make(map[string]bool)
	for i, step := range def.Steps {
		if step.Name == "" {
			return fmt.Errorf("pipeline %q: step %d has no name", def.Name, i)
		}
		if seen[step.Name] {
			return fmt.Errorf("pipeline %q: duplicate step name %q", def.Name, step.Name)
		}
		seen[step.Name] = true
		if step.Output == "" {
			return fmt.Errorf("pipeline %q: step %q has no output variable", def.Name, step.Name)
		}
		if step.Prompt == "" {
			return fmt.Errorf("pipeline %q: step %q has no prompt", def.Name, step.Name)
		}
	}
	return nil
}
