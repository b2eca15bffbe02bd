package greeting

import (
	"fmt"
	"os"
	"strings"

	"linebot_responder/src/model"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout accepted by the seed command
type SeedFile struct {
	Greetings []model.GreetingEntry `yaml:"greetings"`
}

// LoadSeedFile reads greeting entries from a YAML file
func LoadSeedFile(path string) ([]model.GreetingEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	for i, g := range seed.Greetings {
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("greeting %d has an empty name", i)
		}
		if strings.TrimSpace(g.Reply) == "" {
			return nil, fmt.Errorf("greeting %q has an empty reply", g.Name)
		}
	}
	return seed.Greetings, nil
}
