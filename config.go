package joinz

// Config is a Joiner's configuration: the active renderer and the options of
// every plugin that has been configured.
//
// Shortcuts are partial Configs; an empty Renderer leaves the renderer of the
// configuration they are merged into untouched.
type Config struct {
	Plugins  map[Name]Options
	Renderer Name
}

// Options returns the options stored for a plugin.
func (c Config) Options(name Name) (Options, bool) {
	o, ok := c.Plugins[name]
	return o, ok
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := Config{Renderer: c.Renderer}
	if c.Plugins != nil {
		out.Plugins = make(map[Name]Options, len(c.Plugins))
		for name, opts := range c.Plugins {
			out.Plugins[name] = opts.Clone()
		}
	}
	return out
}

// Merge combines over on top of base and returns a fresh Config.
// Values from over win at every nesting level; plugin option fields are
// merged recursively so an override of one field keeps its siblings.
func Merge(base, over Config) Config {
	out := base.Clone()
	if over.Renderer != "" {
		out.Renderer = over.Renderer
	}
	if len(over.Plugins) == 0 {
		return out
	}
	if out.Plugins == nil {
		out.Plugins = make(map[Name]Options, len(over.Plugins))
	}
	for name, opts := range over.Plugins {
		out.Plugins[name] = MergeOptions(out.Plugins[name], opts)
	}
	return out
}

// Resolve produces the configuration for a single call.
//
// Every plugin mentioned in settings is normalized and switched on unless it
// says otherwise explicitly. The result is then merged over stored. Options
// held in stored are not auto-enabled: a stored plugin with no enabled flag
// stays off.
func Resolve(settings Settings, stored Config) Config {
	return Merge(stored, settingsConfig(settings))
}

func settingsConfig(settings Settings) Config {
	var call Config
	for name, value := range settings {
		if name == RendererKey {
			if renderer, ok := value.(string); ok {
				call.Renderer = renderer
			}
			continue
		}
		opts := Normalize(value)
		if !opts.HasEnabled() {
			enabled := true
			opts.Enabled = &enabled
		}
		if call.Plugins == nil {
			call.Plugins = make(map[Name]Options, len(settings))
		}
		call.Plugins[name] = opts
	}
	return call
}

// mergeSettings folds a list of Settings into one, later values winning.
func mergeSettings(all []Settings) Settings {
	switch len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	}
	out := Settings{}
	for _, s := range all {
		for name, value := range s {
			prev, ok := out[name]
			if !ok || name == RendererKey {
				out[name] = value
				continue
			}
			out[name] = MergeOptions(Normalize(prev), Normalize(value))
		}
	}
	return out
}
