package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/solatis/pricingtable/internal/types"
)

// Fixtures is a YAML description of catalog data and pricing rules.
//
// Rule set collections are kept as YAML nodes so that mapping order, which
// decides shadowing and last-rule-wins, survives the import.
type Fixtures struct {
	Categories []CategoryFixture    `yaml:"categories"`
	Products   []ProductFixture     `yaml:"products"`
	Users      []UserFixture        `yaml:"users"`
	Options    map[string]yaml.Node `yaml:"options"`
}

type CategoryFixture struct {
	ID   types.ID `yaml:"id"`
	Name string   `yaml:"name"`
}

type ProductFixture struct {
	ID         types.ID   `yaml:"id"`
	Name       string     `yaml:"name"`
	Price      float64    `yaml:"price"`
	Categories []types.ID `yaml:"categories"`
	RuleSets   yaml.Node  `yaml:"rule_sets"`
}

type UserFixture struct {
	ID          types.ID   `yaml:"id"`
	DisplayName string     `yaml:"display_name"`
	Roles       []string   `yaml:"roles"`
	Groups      []types.ID `yaml:"groups"`
}

// ParseFixtures decodes fixtures, rejecting unknown fields.
func ParseFixtures(r io.Reader) (*Fixtures, error) {
	var f Fixtures
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	for name := range f.Options {
		if !types.KnownOption(name) {
			return nil, fmt.Errorf("%w: %s", types.ErrUnknownOption, name)
		}
	}
	return &f, nil
}

// SeedSummary counts imported fixture records.
type SeedSummary struct {
	Categories int
	Products   int
	Users      int
	Options    int
}

// Seed writes fixtures into the store.
func (s *Store) Seed(ctx context.Context, f *Fixtures) (SeedSummary, error) {
	var sum SeedSummary

	for _, c := range f.Categories {
		if err := s.PutCategory(ctx, types.Category{ID: c.ID, Name: c.Name}); err != nil {
			return sum, fmt.Errorf("category %d: %w", c.ID, err)
		}
		sum.Categories++
	}

	for _, p := range f.Products {
		err := s.PutProduct(ctx, types.Product{ID: p.ID, Name: p.Name, Price: p.Price, CategoryIDs: p.Categories})
		if err != nil {
			return sum, fmt.Errorf("product %d: %w", p.ID, err)
		}
		if p.RuleSets.Kind != 0 {
			raw, err := NodeJSON(&p.RuleSets)
			if err != nil {
				return sum, fmt.Errorf("product %d rule sets: %w", p.ID, err)
			}
			if err := s.PutProductRuleSets(ctx, p.ID, raw); err != nil {
				return sum, fmt.Errorf("product %d rule sets: %w", p.ID, err)
			}
		}
		sum.Products++
	}

	for _, u := range f.Users {
		if err := s.PutUser(ctx, types.User{ID: u.ID, DisplayName: u.DisplayName, Roles: u.Roles, Groups: u.Groups}); err != nil {
			return sum, fmt.Errorf("user %d: %w", u.ID, err)
		}
		sum.Users++
	}

	for name, node := range f.Options {
		raw, err := NodeJSON(&node)
		if err != nil {
			return sum, fmt.Errorf("option %s: %w", name, err)
		}
		if err := s.PutOptionRuleSets(ctx, name, raw); err != nil {
			return sum, fmt.Errorf("option %s: %w", name, err)
		}
		sum.Options++
	}

	return sum, nil
}

// NodeJSON converts a YAML node to JSON, keeping mapping order.
func NodeJSON(n *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNodeJSON(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNodeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeNodeJSON(buf, n.Content[0])
	case yaml.AliasNode:
		return writeNodeJSON(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeNodeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNodeJSON(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		return writeScalarJSON(buf, n)
	default:
		return fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
	return nil
}

func writeScalarJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!null":
		buf.WriteString("null")
		return nil
	case "!!bool", "!!int", "!!float":
		var v any
		if err := n.Decode(&v); err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		buf.Write(out)
		return nil
	default:
		out, err := json.Marshal(n.Value)
		if err != nil {
			return err
		}
		buf.Write(out)
		return nil
	}
}
