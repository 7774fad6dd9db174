// Package catalog holds the read-only list of learning topics used as
// prompt material and as the universe of quiz topic filters.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"math/rand/v2"

	"gopkg.in/yaml.v3"
)

// AllTopics selects a uniformly random topic on every request.
const AllTopics = "all"

//go:embed topics.yaml
var defaultTopics []byte

// Topic is a single catalog entry.
type Topic struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Overview    string   `yaml:"overview"`
	KeyConcepts []string `yaml:"key_concepts"`
}

// Catalog is an ordered, immutable list of topics.
type Catalog struct {
	topics []Topic
	byID   map[string]int
}

type catalogFile struct {
	Topics []Topic `yaml:"topics"`
}

// Load parses a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	var f catalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(f.Topics)
}

// New builds a catalog from topics, rejecting empty and duplicate IDs.
func New(topics []Topic) (*Catalog, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("catalog has no topics")
	}
	c := &Catalog{topics: make([]Topic, len(topics)), byID: make(map[string]int, len(topics))}
	copy(c.topics, topics)
	for i, t := range c.topics {
		if t.ID == "" || t.ID == AllTopics {
			return nil, fmt.Errorf("topic %d: invalid id %q", i, t.ID)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate topic id %q", t.ID)
		}
		c.byID[t.ID] = i
	}
	return c, nil
}

// Default returns the embedded catalog.
func Default() *Catalog {
	var f catalogFile
	if err := yaml.Unmarshal(defaultTopics, &f); err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	c, err := New(f.Topics)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Topics returns a copy of all topics in catalog order.
func (c *Catalog) Topics() []Topic {
	out := make([]Topic, len(c.topics))
	copy(out, c.topics)
	return out
}

// Get looks up a topic by ID.
func (c *Catalog) Get(id string) (Topic, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Topic{}, false
	}
	return c.topics[i], true
}

// Contains reports whether filter names a topic or is AllTopics.
func (c *Catalog) Contains(filter string) bool {
	if filter == AllTopics {
		return true
	}
	_, ok := c.byID[filter]
	return ok
}

// Resolve maps a topic filter to a concrete topic. AllTopics picks
// uniformly at random using rng.
func (c *Catalog) Resolve(filter string, rng *rand.Rand) (Topic, error) {
	if filter == AllTopics {
		return c.topics[rng.IntN(len(c.topics))], nil
	}
	t, ok := c.Get(filter)
	if !ok {
		return Topic{}, fmt.Errorf("unknown topic %q", filter)
	}
	return t, nil
}
