package searchserver

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed sample.yml
var sampleCatalogue []byte

// Item is one searchable document.
type Item struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Summary   string    `yaml:"summary"`
	Link      string    `yaml:"link"`
	Tags      []string  `yaml:"tags"`
	Published time.Time `yaml:"published"`
}

// Tag is a filter option offered by the search form.
type Tag struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// Catalogue is the in-memory document set.
type Catalogue struct {
	Tags  []Tag  `yaml:"tags"`
	Items []Item `yaml:"items"`
}

// LoadCatalogue reads a catalogue from a YAML file.
func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue %q: %w", path, err)
	}
	cat, err := ParseCatalogue(data)
	if err != nil {
		return nil, fmt.Errorf("catalogue %q: %w", path, err)
	}
	return cat, nil
}

// SampleCatalogue returns the built-in catalogue.
func SampleCatalogue() *Catalogue {
	cat, err := ParseCatalogue(sampleCatalogue)
	if err != nil {
		panic(fmt.Sprintf("searchserver: built-in catalogue: %v", err))
	}
	return cat
}

// ParseCatalogue decodes YAML and checks that every item tag is declared.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var cat Catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	known := make(map[string]bool, len(cat.Tags))
	for _, t := range cat.Tags {
		known[t.Value] = true
	}
	for i, item := range cat.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("item %d has no id", i)
		}
		for _, tag := range item.Tags {
			if !known[tag] {
				return nil, fmt.Errorf("item %q uses undeclared tag %q", item.ID, tag)
			}
		}
	}
	return &cat, nil
}
