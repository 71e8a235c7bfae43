package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/piwi3910/atlaspack/internal/model"
)

// Layout maps logical texture names onto a resource set directory:
//
//	<root>/<set>/assets/<namespace>/textures/<path><ext>  ->  <namespace>:<path>
type Layout struct {
	SetDir        string // <root>/<set>
	TextureFolder string // folder under textures/ that is scanned, e.g. "block"
	Extension     string // source texture extension, e.g. ".png"
	GeneratedNS   string // namespace receiving generated atlases
	MappingFile   string // mapping document name inside SetDir
}

// NewLayout builds the layout for a configuration.
func NewLayout(cfg model.Config) Layout {
	return Layout{
		SetDir:        filepath.Join(cfg.ResourceRoot, cfg.ResourceSetID),
		TextureFolder: cfg.TextureFolder,
		Extension:     cfg.TextureExtension,
		GeneratedNS:   cfg.GeneratedNamespace,
		MappingFile:   cfg.MappingFile,
	}
}

// AssetsDir returns the directory holding one folder per namespace.
func (l Layout) AssetsDir() string {
	return filepath.Join(l.SetDir, "assets")
}

// MappingPath returns the location of the persisted mapping document.
func (l Layout) MappingPath() string {
	return filepath.Join(l.SetDir, l.MappingFile)
}

// SplitName splits "<namespace>:<path>" into its parts.
func SplitName(name string) (namespace, p string, err error) {
	namespace, p, ok := strings.Cut(name, ":")
	if !ok || namespace == "" || p == "" {
		return "", "", fmt.Errorf("invalid texture name %q: expected <namespace>:<path>", name)
	}
	return namespace, p, nil
}

// TexturePath returns the file backing a logical texture name.
func (l Layout) TexturePath(name string) (string, error) {
	ns, p, err := SplitName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.AssetsDir(), ns, "textures", filepath.FromSlash(p)+l.Extension), nil
}

// AtlasName returns the logical name of the n-th generated atlas.
func (l Layout) AtlasName(n int) string {
	return fmt.Sprintf("%s:%s/atlas_%d", l.GeneratedNS, l.TextureFolder, n)
}

// Texture is one discovered source texture.
type Texture struct {
	Name     string // Logical name, <namespace>:<folder>/<path>
	Path     string // File on disk
	Animated bool   // An animation sidecar sits next to the file
}

// Namespaces lists the namespaces under the assets directory in lexical
// order, leaving out the generated namespace.
func (l Layout) Namespaces() ([]string, error) {
	entries, err := os.ReadDir(l.AssetsDir())
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || strings.EqualFold(e.Name(), l.GeneratedNS) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Textures walks <namespace>/textures/<folder> recursively and returns every
// file carrying the configured extension in lexical path order. A namespace without the folder yields
// nothing.
func (l Layout) Textures(namespace, animationSuffix string) ([]Texture, error) {
	texturesDir := filepath.Join(l.AssetsDir(), namespace, "textures")
	root := filepath.Join(texturesDir, l.TextureFolder)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, nil
	}

	var out []Texture
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		// Case-sensitive: TexturePath rebuilds file names from the
		// configured extension.
		if filepath.Ext(d.Name()) != l.Extension {
			return nil
		}
		rel, err := filepath.Rel(texturesDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		rel = rel[:len(rel)-len(path.Ext(rel))]

		tex := Texture{Name: namespace + ":" + rel, Path: p}
		if _, err := os.Stat(p + animationSuffix); err == nil {
			tex.Animated = true
		}
		out = append(out, tex)
		return nil
	})
	return out, err
}
