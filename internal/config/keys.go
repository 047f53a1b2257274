package config

import "sort"

// ToMap renders cfg as the nested key map used in config.yaml
func ToMap(c *Config) map[string]any {
	return map[string]any{
		"commands": map[string]any{
			"type_check":           c.Commands.TypeCheck,
			"lint":                 c.Commands.Lint,
			"build":                c.Commands.Build,
			"dependency_check":     c.Commands.DependencyCheck,
			"verify":               c.Commands.Verify,
			"lint_fix":             c.Commands.LintFix,
			"install_module":       c.Commands.InstallModule,
			"clean_dependencies":   c.Commands.CleanDependencies,
			"install_dependencies": c.Commands.InstallDependencies,
			"schema_generate":      c.Commands.SchemaGenerate,
		},
		"remediation": map[string]any{
			"unused_prefix":        c.Remediation.UnusedPrefix,
			"return_type":          c.Remediation.ReturnType,
			"compiler_config_file": c.Remediation.CompilerConfigFile,
			"schema_keywords":      c.Remediation.SchemaKeywords,
		},
		"log": map[string]any{
			"file":   c.Log.File,
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
		"history": map[string]any{
			"driver": c.History.Driver,
			"path":   c.History.Path,
		},
		"recovery": map[string]any{
			"max_passes": c.Recovery.MaxPasses,
			"strict":     c.Recovery.Strict,
		},
	}
}

// Keys returns every dotted config key, sorted
func Keys() []string {
	var keys []string
	for section, values := range ToMap(DefaultConfig()) {
		for key := range values.(map[string]any) {
			keys = append(keys, section+"."+key)
		}
	}
	sort.Strings(keys)
	return keys
}

// IsKnownKey reports whether key is a dotted config key
func IsKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// IsListKey reports whether key holds a list value
func IsListKey(key string) bool {
	return key == "remediation.schema_keywords"
}
