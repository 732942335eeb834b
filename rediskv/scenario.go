package rediskv

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is the YAML description of a keyspace environment
type Scenario struct {
	Seed     map[string]string `yaml:"seed"`
	Commands []Command         `yaml:"commands"`
	// Hidden keys do not distinguish states, counters for instance
	Hidden []string `yaml:"hidden"`
	Goal   struct {
		Key   string `yaml:"key"`
		Value string `yaml:"value"`
	} `yaml:"goal"`
}

// Config of the environment under the prefix
func (s *Scenario) Config(prefix string) *Config {
	return &Config{
		Prefix:    prefix,
		Commands:  s.Commands,
		Seed:      s.Seed,
		GoalKey:   s.Goal.Key,
		GoalValue: s.Goal.Value,
		Hidden:    s.Hidden,
	}
}

// DefaultScenario is a checkout flow where the order ships once the cart is paid
func DefaultScenario() *Scenario {
	s := &Scenario{
		Seed: map[string]string{"stock": "3"},
		Commands: []Command{
			{Name: "add_to_cart", Op: OpSet, Key: "cart", Value: "full", Requires: map[string]string{"cart": ""}},
			{Name: "empty_cart", Op: OpDel, Key: "cart", Requires: map[string]string{"payment": ""}},
			{Name: "pay", Op: OpSet, Key: "payment", Value: "done", Requires: map[string]string{"cart": "full", "payment": ""}},
			{Name: "ship", Op: OpSet, Key: "order", Value: "shipped", Requires: map[string]string{"payment": "done"}},
			{Name: "browse", Op: OpIncr, Key: "views"},
		},
		Hidden: []string{"views"},
	}
	s.Goal.Key = "order"
	s.Goal.Value = "shipped"
	return s
}

// ParseScenario reads a scenario file
func ParseScenario(path string) (*Scenario, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading scenario file: %w", err)
	}
	s := &Scenario{}
	if err := yaml.Unmarshal(bytes, s); err != nil {
		return nil, fmt.Errorf("error unmarshalling scenario: %w", err)
	}
	if len(s.Commands) == 0 {
		return nil, fmt.Errorf("scenario %s has no commands", path)
	}
	return s, nil
}
