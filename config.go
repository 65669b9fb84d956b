package epub

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TagList is the ordered list of raw tag names that may carry one semantic
// metadata field. Earlier entries take precedence.
type TagList struct {
	Tags        []string `yaml:"tags"`
	Description string   `yaml:"description,omitempty"`
}

// TagConfig maps each semantic metadata field to its candidate tag names.
// The package document parser stores values under raw tag names; the
// metadata accessors resolve fields through this table, so alternate or
// legacy tag spellings can be supported without touching the parser.
type TagConfig struct {
	Title       TagList `yaml:"title"`
	Creator     TagList `yaml:"creator"`
	Contributor TagList `yaml:"contributor"`
	Language    TagList `yaml:"language"`
	Identifier  TagList `yaml:"identifier"`
	Publisher   TagList `yaml:"publisher"`
	Date        TagList `yaml:"date"`
	Description TagList `yaml:"description"`
	Subject     TagList `yaml:"subject"`
	Rights      TagList `yaml:"rights"`
	Cover       TagList `yaml:"cover"`
	Modified    TagList `yaml:"modified"`
}

// DefaultTagConfig returns the standard Dublin Core tag mapping. "creator"
// also accepts "author", which some producers emit instead.
func DefaultTagConfig() TagConfig {
	return TagConfig{
		Title:       TagList{Tags: []string{"title"}},
		Creator:     TagList{Tags: []string{"creator", "author"}},
		Contributor: TagList{Tags: []string{"contributor"}},
		Language:    TagList{Tags: []string{"language"}},
		Identifier:  TagList{Tags: []string{"identifier"}},
		Publisher:   TagList{Tags: []string{"publisher"}},
		Date:        TagList{Tags: []string{"date"}},
		Description: TagList{Tags: []string{"description"}},
		Subject:     TagList{Tags: []string{"subject"}},
		Rights:      TagList{Tags: []string{"rights"}},
		Cover:       TagList{Tags: []string{"cover"}},
		Modified:    TagList{Tags: []string{"dcterms:modified"}},
	}
}

// ParseTagConfig parses a YAML tag configuration. Fields left empty in the
// document fall back to the defaults, so an override only needs to name
// the fields it changes.
func ParseTagConfig(data []byte) (TagConfig, error) {
	cfg := DefaultTagConfig()
	var override TagConfig
	if err := yaml.Unmarshal(data, &override); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	merge := func(dst *TagList, src TagList) {
		if len(src.Tags) > 0 {
			*dst = src
		}
	}
	merge(&cfg.Title, override.Title)
	merge(&cfg.Creator, override.Creator)
	merge(&cfg.Contributor, override.Contributor)
	merge(&cfg.Language, override.Language)
	merge(&cfg.Identifier, override.Identifier)
	merge(&cfg.Publisher, override.Publisher)
	merge(&cfg.Date, override.Date)
	merge(&cfg.Description, override.Description)
	merge(&cfg.Subject, override.Subject)
	merge(&cfg.Rights, override.Rights)
	merge(&cfg.Cover, override.Cover)
	merge(&cfg.Modified, override.Modified)
	return cfg, nil
}

// LoadTagConfig reads and parses a YAML tag configuration file.
func LoadTagConfig(path string) (TagConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultTagConfig(), fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return ParseTagConfig(data)
}

// allTags returns every configured tag name, for deciding which raw tags
// count as "other" metadata.
func (c TagConfig) allTags() map[string]bool {
	out := make(map[string]bool)
	for _, tl := range []TagList{
		c.Title, c.Creator, c.Contributor, c.Language, c.Identifier,
		c.Publisher, c.Date, c.Description, c.Subject, c.Rights,
		c.Cover, c.Modified,
	} {
		for _, t := range tl.Tags {
			out[t] = true
		}
	}
	return out
}
