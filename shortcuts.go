package joinz

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxShortcutDocumentSize limits the size of a shortcut document (64KB).
const MaxShortcutDocumentSize = 64 << 10

//go:embed shortcuts.yaml
var defaultShortcuts []byte

// LoadShortcuts registers every preset of a YAML shortcut document, in
// document order. Each top-level key is a shortcut name; its value maps
// plugin names to shorthand options, plus an optional "renderer":
//
//	or:
//	  renderer: inline
//	  inline: {conjunction: " or "}
//	q:
//	  quote: {enabled: true, quoteWith: "'", mirror: false}
//
// Loading stops at the first invalid preset; presets before it stay registered.
func (b *RegistryBuilder) LoadShortcuts(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty document", ErrInvalidShortcuts)
	}
	if len(data) > MaxShortcutDocumentSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInvalidShortcuts, len(data), MaxShortcutDocumentSize)
	}

	var doc yaml.MapSlice
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidShortcuts, err)
	}

	for _, item := range doc {
		name, ok := item.Key.(string)
		if !ok {
			return fmt.Errorf("%w: shortcut name %v is not a string", ErrInvalidShortcuts, item.Key)
		}
		preset, err := presetConfig(item.Value)
		if err != nil {
			return fmt.Errorf("%w: shortcut %q: %w", ErrInvalidShortcuts, name, err)
		}
		if err := b.RegisterShortcut(name, preset); err != nil {
			return err
		}
	}
	return nil
}

func presetConfig(v any) (Config, error) {
	entries, err := stringMap(v)
	if err != nil {
		return Config{}, err
	}

	var preset Config
	for key, value := range entries {
		if key == RendererKey {
			renderer, ok := value.(string)
			if !ok {
				return Config{}, fmt.Errorf("renderer must be a string, got %T", value)
			}
			preset.Renderer = renderer
			continue
		}
		if m, err := stringMap(value); err == nil {
			value = m
		}
		if preset.Plugins == nil {
			preset.Plugins = make(map[Name]Options, len(entries))
		}
		preset.Plugins[key] = Normalize(value)
	}
	return preset, nil
}

// stringMap converts the mapping shapes the YAML decoder produces into a
// map with string keys.
func stringMap(v any) (map[string]any, error) {
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case yaml.MapSlice:
		out := make(map[string]any, len(m))
		for _, item := range m {
			key, ok := item.Key.(string)
			if !ok {
				return nil, fmt.Errorf("key %v is not a string", item.Key)
			}
			if nested, err := stringMap(item.Value); err == nil {
				out[key] = nested
				continue
			}
			out[key] = item.Value
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("key %v is not a string", k)
			}
			if nested, err := stringMap(val); err == nil {
				out[key] = nested
				continue
			}
			out[key] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a mapping, got %T", v)
	}
}
