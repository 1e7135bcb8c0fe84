package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/aime/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Scene is a planning-cycle fixture: map context, agent tracks and route.
type Scene struct {
	Sample      domain.LocalSample      `json:"sample" yaml:"sample"`
	Observation domain.AgentObservation `json:"observation" yaml:"observation"`
	TargetLane  domain.TargetLane       `json:"target_lane" yaml:"target_lane"`
}

// LoadScene reads a scene from a .yaml, .yml or .json file.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	return ParseScene(data, filepath.Ext(path))
}

// ParseScene decodes a scene. ext selects the format (".json" or YAML otherwise).
func ParseScene(data []byte, ext string) (*Scene, error) {
	var sc Scene
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("failed to parse scene: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("failed to parse scene: %w", err)
		}
	}
	return &sc, nil
}
