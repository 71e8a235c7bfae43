package model

import (
	"fmt"
	"strings"
)

// ReportConfig selects the optional reports written after a packing run.
// Empty paths disable the corresponding report.
type ReportConfig struct {
	PDF  string `toml:"pdf" json:"pdf"`
	XLSX string `toml:"xlsx" json:"xlsx"`
	DXF  string `toml:"dxf" json:"dxf"`
}

// Config holds everything a packing run needs to know.
type Config struct {
	// Resource set selection
	ResourceRoot  string `toml:"resource_root" json:"resource_root"`     // Directory holding resource sets
	ResourceSetID string `toml:"resource_set_id" json:"resource_set_id"` // Resource set to scan

	// Texture filtering
	ExcludeTextures        []string `toml:"exclude_textures" json:"exclude_textures"`                 // Exact names, never atlased
	UtilityTextureSuffixes []string `toml:"utility_texture_suffixes" json:"utility_texture_suffixes"` // Neither atlased nor excluded

	// Packing
	Padding        int `toml:"padding" json:"padding"`                 // Tiling multiplier for fresh placements
	GroupThreshold int `toml:"group_threshold" json:"group_threshold"` // Groups with this many members or fewer are not atlased

	// Filesystem layout
	TextureFolder      string `toml:"texture_folder" json:"texture_folder"`           // Folder under <ns>/textures that is scanned
	TextureExtension   string `toml:"texture_extension" json:"texture_extension"`     // Source texture file extension
	AnimationSuffix    string `toml:"animation_suffix" json:"animation_suffix"`       // Sidecar marking animated textures
	GeneratedNamespace string `toml:"generated_namespace" json:"generated_namespace"` // Namespace receiving generated atlases
	MappingFile        string `toml:"mapping_file" json:"mapping_file"`               // Mapping document, relative to the resource set

	// Material classification
	ClassTable   string `toml:"class_table" json:"class_table"`     // Optional CSV/XLSX rule table
	DefaultClass string `toml:"default_class" json:"default_class"` // Class for names no rule matches

	// Run behaviour
	BackupMapping bool   `toml:"backup_mapping" json:"backup_mapping"` // Keep <mapping>.bak before overwriting
	Fresh         bool   `toml:"fresh" json:"fresh"`                   // Ignore the previous mapping
	LogLevel      string `toml:"log_level" json:"log_level"`           // debug, info, warn, error

	Report ReportConfig `toml:"report" json:"report"`
}

// DefaultConfig returns a Config populated with the stock defaults.
func DefaultConfig() Config {
	return Config{
		ResourceRoot:           "resourcepacks",
		ResourceSetID:          "base_resource_pack",
		ExcludeTextures:        []string{},
		UtilityTextureSuffixes: []string{},
		Padding:                4,
		GroupThreshold:         3,
		TextureFolder:          "block",
		TextureExtension:       ".png",
		AnimationSuffix:        ".mcmeta",
		GeneratedNamespace:     "atlaspack",
		MappingFile:            "atlas_mapping.json",
		DefaultClass:           "default",
		BackupMapping:          true,
		LogLevel:               "info",
	}
}

// ConfigError describes an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// Validate checks the configuration for values the packer cannot work with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ResourceSetID) == "" {
		return &ConfigError{Field: "resource_set_id", Reason: "must not be empty"}
	}
	if c.Padding < 1 {
		return &ConfigError{Field: "padding", Reason: fmt.Sprintf("must be at least 1, got %d", c.Padding)}
	}
	if c.GroupThreshold < 0 {
		return &ConfigError{Field: "group_threshold", Reason: "must be non-negative"}
	}
	if c.TextureFolder == "" {
		return &ConfigError{Field: "texture_folder", Reason: "must not be empty"}
	}
	if !strings.HasPrefix(c.TextureExtension, ".") {
		return &ConfigError{Field: "texture_extension", Reason: "must start with a dot"}
	}
	if c.AnimationSuffix == "" {
		return &ConfigError{Field: "animation_suffix", Reason: "must not be empty"}
	}
	if c.GeneratedNamespace == "" || strings.ContainsAny(c.GeneratedNamespace, ":/") {
		return &ConfigError{Field: "generated_namespace", Reason: "must be a plain namespace name"}
	}
	if c.MappingFile == "" {
		return &ConfigError{Field: "mapping_file", Reason: "must not be empty"}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "log_level", Reason: fmt.Sprintf("unknown level %q", c.LogLevel)}
	}
	return nil
}

// IsExcluded reports whether name is on the exclude list (case-insensitive).
func (c Config) IsExcluded(name string) bool {
	for _, ex := range c.ExcludeTextures {
		if strings.EqualFold(name, ex) {
			return true
		}
	}
	return false
}

// IsUtility reports whether name ends with one of the utility suffixes
// (case-insensitive).
func (c Config) IsUtility(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range c.UtilityTextureSuffixes {
		if suffix != "" && strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}
