package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// loadYAML is a [kong.ConfigurationLoader] for YAML configuration files.
//
// The document is a mapping from flag names to values. Nested mappings are
// flattened by joining keys with "-", so these are equivalent:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Keys may use "_" in place of "-". Scalars are passed to kong as text and
// sequences are joined with the flag's separator. Command-line flags
// override configured values.
func loadYAML(r io.Reader) (kong.Resolver, error) {
	var doc yaml.MapSlice

	if err := yaml.NewDecoder(r, yaml.UseOrderedMap()).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return config{}, nil
		}

		return nil, ErrConfig.Wrap(err)
	}

	cfg := make(config)
	cfg.flatten("", doc)

	return cfg, nil
}

// config implements [kong.Resolver] over flattened YAML values.
type config map[string]any

func (c config) flatten(prefix string, doc yaml.MapSlice) {
	for _, item := range doc {
		key := strings.ReplaceAll(yamlKey(item.Key), "_", "-")
		if prefix != "" {
			key = prefix + "-" + key
		}

		if sub, ok := item.Value.(yaml.MapSlice); ok {
			c.flatten(key, sub)

			continue
		}

		c[key] = item.Value
	}
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	value, ok := c[flag.Name]
	if !ok {
		return nil, nil
	}

	sep := ","
	if flag.Tag != nil && flag.Tag.Sep > 0 {
		sep = string(flag.Tag.Sep)
	}

	return scalarText(value, sep), nil
}

func yamlKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}

	s, _ := scalarText(k, ",").(string)

	return s
}

// scalarText formats a decoded YAML value as flag text.
func scalarText(v any, sep string) any {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))

		for _, e := range v {
			if s, ok := scalarText(e, sep).(string); ok {
				parts = append(parts, s)
			}
		}

		return strings.Join(parts, sep)
	default:
		return fmt.Sprint(v)
	}
}
