// Package config supplies per-entity, per-view DTO settings to the dto factory.
//
// Settings come either from an in-memory StaticProvider (tests, small apps) or from
// a YAML document shaped like the easy_admin bundle configuration:
//
//	easy_admin:
//	  entities:
//	    Product:
//	      class: app.Product
//	      new:
//	        dto_class: app.NewProductDTO
//	      edit:
//	        dto_class: app.EditProductDTO
//	        dto_factory: product_factory::FromProduct
package config

import (
	stderrors "errors"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable LoadFromEnv reads the file path from.
const EnvConfigPath = "EASYDTO_CONFIG"

// ErrUnknownEntity is returned when a provider has no configuration for an entity.
var ErrUnknownEntity = stderrors.New("config: unknown entity")

// ViewConfig holds the DTO settings of one view of an entity.
type ViewConfig struct {
	DTOClass string `yaml:"dto_class"`

	// DTOFactory is empty when no factory is configured.
	DTOFactory string `yaml:"dto_factory"`

	// DTOEntityMethod names the DTO method that writes a submitted form back onto
	// the entity. The dto factory does not read it; form handlers do.
	DTOEntityMethod string `yaml:"dto_entity_method"`
	Fields          []any  `yaml:"fields"`
}

// EntityConfig is the configuration of a single entity, keyed by view name.
type EntityConfig struct {
	Class string
	Views map[string]ViewConfig
}

// View returns the settings for view and whether they exist.
func (c EntityConfig) View(view string) (ViewConfig, bool) {
	v, ok := c.Views[view]
	return v, ok
}

// UnmarshalYAML splits the "class" key from the view mappings that share its level.
// Merge keys ("<<: *anchor") are expanded; keys set directly take precedence over
// merged ones, and earlier merge sources over later ones.
func (c *EntityConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("config: line %d: entity must be a mapping", node.Line)
	}
	c.Views = map[string]ViewConfig{}
	return c.decodeMapping(node, map[string]bool{})
}

func (c *EntityConfig) decodeMapping(node *yaml.Node, seen map[string]bool) error {
	var merges []*yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], resolveAlias(node.Content[i+1])
		if key.ShortTag() == mergeTag {
			merges = append(merges, val)
			continue
		}
		if seen[key.Value] {
			continue
		}
		seen[key.Value] = true

		if key.Value == "class" {
			if err := val.Decode(&c.Class); err != nil {
				return errors.Wrapf(err, "config: line %d: class", key.Line)
			}
			continue
		}
		if val.Kind != yaml.MappingNode {
			// scalar options (e.g. label) are not view settings
			continue
		}
		var vc ViewConfig
		if err := val.Decode(&vc); err != nil {
			return errors.Wrapf(err, "config: line %d: view %q", key.Line, key.Value)
		}
		c.Views[key.Value] = vc
	}

	for _, m := range merges {
		if err := c.merge(m, seen); err != nil {
			return err
		}
	}
	return nil
}

func (c *EntityConfig) merge(src *yaml.Node, seen map[string]bool) error {
	switch src.Kind {
	case yaml.MappingNode:
		return c.decodeMapping(src, seen)
	case yaml.SequenceNode:
		for _, item := range src.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.MappingNode {
				return errors.Errorf("config: line %d: merge sequence item must be a mapping", item.Line)
			}
			if err := c.decodeMapping(item, seen); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Errorf("config: line %d: merge value must be a mapping or a sequence of mappings", src.Line)
	}
}

const mergeTag = "!!merge"

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// Provider returns the configuration of an entity.
type Provider interface {
	EntityConfig(entityName string) (EntityConfig, error)
}

// StaticProvider is a map-backed Provider. It is read-only after construction.
type StaticProvider struct {
	entities map[string]EntityConfig
}

// NewStaticProvider returns a provider over entities. The map is copied.
func NewStaticProvider(entities map[string]EntityConfig) *StaticProvider {
	cp := make(map[string]EntityConfig, len(entities))
	for k, v := range entities {
		cp[k] = v
	}
	return &StaticProvider{entities: cp}
}

// EntityConfig implements Provider.
func (p *StaticProvider) EntityConfig(entityName string) (EntityConfig, error) {
	c, ok := p.entities[entityName]
	if !ok {
		return EntityConfig{}, errors.Wrapf(ErrUnknownEntity, "%q", entityName)
	}
	return c, nil
}

// Entities returns the configured entity names, sorted.
func (p *StaticProvider) Entities() []string {
	out := make([]string, 0, len(p.entities))
	for k := range p.entities {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type document struct {
	EasyAdmin struct {
		Entities map[string]EntityConfig `yaml:"entities"`
	} `yaml:"easy_admin"`
}

// Load parses a YAML document and validates it.
func Load(r io.Reader) (*StaticProvider, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return NewStaticProvider(nil), nil
		}
		return nil, errors.Wrap(err, "config: decode yaml")
	}
	if err := validate(doc.EasyAdmin.Entities); err != nil {
		return nil, err
	}
	return NewStaticProvider(doc.EasyAdmin.Entities), nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string) (*StaticProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: open")
	}
	defer f.Close()

	p, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "config: %s", path)
	}
	return p, nil
}

// LoadFromEnv loads the file named by EASYDTO_CONFIG.
func LoadFromEnv() (*StaticProvider, error) {
	path := strings.TrimSpace(os.Getenv(EnvConfigPath))
	if path == "" {
		return nil, errors.Errorf("config: %s is not set", EnvConfigPath)
	}
	return LoadFile(path)
}

func validate(entities map[string]EntityConfig) error {
	names := make([]string, 0, len(entities))
	for name := range entities {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		views := entities[name].Views
		viewNames := make([]string, 0, len(views))
		for v := range views {
			viewNames = append(viewNames, v)
		}
		sort.Strings(viewNames)
		for _, v := range viewNames {
			vc := views[v]
			if vc.DTOFactory != "" && strings.TrimSpace(vc.DTOClass) == "" {
				return errors.Errorf("config: entity %q view %q: dto_factory without dto_class", name, v)
			}
		}
	}
	return nil
}
