package engine

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"sort"

	"github.com/google/uuid"

	"github.com/piwi3910/atlaspack/internal/imageio"
	"github.com/piwi3910/atlaspack/internal/model"
	"github.com/piwi3910/atlaspack/internal/progress"
	"github.com/piwi3910/atlaspack/internal/project"
)

// ImageCodec reads source textures and writes generated atlases.
type ImageCodec interface {
	Decode(path string) (*image.NRGBA, error)
	Encode(img *image.NRGBA, path string) error
}

// Progress receives a monotonically increasing fraction in [0, 1].
type Progress interface {
	Report(fraction float64)
}

// Options carries the collaborators of a Packer. Nil fields get defaults:
// the PNG/BMP/TIFF/WebP codec, a classifier putting every texture in the
// configured default class, no progress output and no logging.
type Options struct {
	Codec      ImageCodec
	Classifier Classifier
	Progress   Progress
	Logger     *slog.Logger
}

// Packer packs the textures of one resource set into atlases.
type Packer struct {
	cfg        model.Config
	layout     Layout
	codec      ImageCodec
	classifier Classifier
	progress   Progress
	logger     *slog.Logger
}

// New validates the configuration and creates a Packer.
func New(cfg model.Config, opts Options) (*Packer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Packer{
		cfg:        cfg,
		layout:     NewLayout(cfg),
		codec:      opts.Codec,
		classifier: opts.Classifier,
		progress:   opts.Progress,
		logger:     opts.Logger,
	}
	if p.codec == nil {
		p.codec = imageio.Codec{}
	}
	if p.classifier == nil {
		p.classifier = NewRuleClassifier(nil, cfg.DefaultClass)
	}
	if p.progress == nil {
		p.progress = progress.Nop{}
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p, nil
}

// Layout returns the filesystem layout the packer works on.
func (p *Packer) Layout() Layout { return p.layout }

// session is the state of a single packing run.
type session struct {
	*Packer
	log *slog.Logger

	canvases []*Canvas // seeded canvases first, then new ones in finalize order
	byName   map[string]*Canvas
	seeded   map[*Canvas]bool
	claimed  map[*Canvas]bool
	written  map[*Canvas]bool
	onDisk   map[*Canvas]*image.NRGBA // decoded image of each seeded atlas
	classOf  map[*Canvas]string

	placed   map[string]*Canvas
	excluded map[string]bool

	groups    map[string][]Texture
	nextAtlas int
}

// Pack runs the load, discovery, packing and persist phases. A resource set
// without an assets directory is a successful no-op.
func (p *Packer) Pack() (model.PackResult, error) {
	runID := uuid.NewString()
	s := &session{
		Packer:   p,
		log:      p.logger.With("run", runID),
		byName:   make(map[string]*Canvas),
		seeded:   make(map[*Canvas]bool),
		claimed:  make(map[*Canvas]bool),
		written:  make(map[*Canvas]bool),
		onDisk:   make(map[*Canvas]*image.NRGBA),
		classOf:  make(map[*Canvas]string),
		placed:   make(map[string]*Canvas),
		excluded: make(map[string]bool),
		groups:   make(map[string][]Texture),
	}
	result := model.PackResult{
		RunID:       runID,
		ResourceSet: p.cfg.ResourceSetID,
		MappingPath: p.layout.MappingPath(),
		Mapping:     model.NewMapping(),
	}

	if info, err := os.Stat(p.layout.AssetsDir()); err != nil || !info.IsDir() {
		s.log.Info("no assets directory, nothing to pack", "dir", p.layout.AssetsDir())
		return result, nil
	}
	p.progress.Report(0.1)

	s.load()
	p.progress.Report(0.2)

	s.discover()
	p.progress.Report(0.3)

	if err := s.pack(); err != nil {
		return result, err
	}
	p.progress.Report(0.9)

	mapping, err := s.persist()
	if err != nil {
		return result, err
	}
	p.progress.Report(1.0)

	result.Mapping = mapping
	result.Excluded = mapping.ExcludedNames()
	result.Atlases = s.summaries()
	s.log.Info("packing finished",
		"atlases", len(result.Atlases),
		"placed", len(mapping.Placements),
		"excluded", len(mapping.Exclusions))
	return result, nil
}

// load seeds canvases from the previous mapping so earlier placements keep
// their exact coordinates. Any problem with the document itself abandons the
// load and the run repacks from scratch.
func (s *session) load() {
	path := s.layout.MappingPath()
	if s.cfg.Fresh {
		s.log.Info("ignoring previous mapping", "path", path)
		return
	}
	mapping, warnings, err := project.LoadMapping(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug("no previous mapping", "path", path)
		} else {
			s.log.Warn("previous mapping unreadable, repacking everything", "path", path, "err", err)
		}
		return
	}
	for _, w := range warnings {
		s.log.Warn("previous mapping entry ignored", "detail", w)
	}

	for name := range mapping.Exclusions {
		s.excluded[name] = true
	}

	names := make([]string, 0, len(mapping.Placements))
	for name := range mapping.Placements {
		names = append(names, name)
	}
	sort.Strings(names)

	broken := make(map[string]bool)
	for _, name := range names {
		item := mapping.Placements[name]
		c, ok := s.byName[item.Atlas]
		if !ok {
			if broken[item.Atlas] {
				continue
			}
			var err error
			c, err = s.openAtlas(item.Atlas)
			if err != nil {
				s.log.Warn("cannot reconstruct atlas, its textures will be repacked", "atlas", item.Atlas, "err", err)
				broken[item.Atlas] = true
				continue
			}
		}
		s.seed(c, item)
	}

	// Atlases none of whose entries could be seeded are rebuilt from scratch.
	kept := s.canvases[:0]
	for _, c := range s.canvases {
		if c.Len() > 0 {
			kept = append(kept, c)
			continue
		}
		s.log.Info("no entries of atlas could be seeded, dropping it", "atlas", c.Name())
		delete(s.byName, c.Name())
		delete(s.seeded, c)
		delete(s.onDisk, c)
	}
	s.canvases = kept

	s.log.Info("previous mapping loaded",
		"atlases", len(s.canvases),
		"seeded", len(s.placed),
		"excluded", len(s.excluded))
}

// openAtlas reconstructs an empty canvas for a previously generated atlas,
// recovering its size from the atlas image itself.
func (s *session) openAtlas(name string) (*Canvas, error) {
	path, err := s.layout.TexturePath(name)
	if err != nil {
		return nil, err
	}
	img, err := s.codec.Decode(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() != b.Dy() {
		return nil, fmt.Errorf("atlas image is %dx%d, expected a square", b.Dx(), b.Dy())
	}
	c, err := newCanvasSize(name, b.Dx(), s.cfg.Padding)
	if err != nil {
		return nil, err
	}
	s.register(c)
	s.seeded[c] = true
	s.onDisk[c] = img
	return c, nil
}

// seed puts one stored item back onto its canvas. Items whose texture is
// gone, changed size or no longer fits are dropped and repacked normally.
func (s *session) seed(c *Canvas, item model.AtlasItem) {
	path, err := s.layout.TexturePath(item.Name)
	if err != nil {
		s.log.Warn("invalid texture name in mapping", "name", item.Name, "err", err)
		return
	}
	tex, err := s.codec.Decode(path)
	if err != nil {
		s.log.Debug("texture not seeded", "name", item.Name, "err", err)
		return
	}
	w, h := item.PixelSize(c.Size())
	if tex.Bounds().Dx() != w || tex.Bounds().Dy() != h {
		s.log.Warn("texture changed size since last run, repacking",
			"name", item.Name, "stored", fmt.Sprintf("%dx%d", w, h),
			"actual", fmt.Sprintf("%dx%d", tex.Bounds().Dx(), tex.Bounds().Dy()))
		return
	}
	if !item.Footprint(c.Size()).Within(c.Size()) {
		s.log.Warn("stored placement outside its atlas, repacking", "name", item.Name, "atlas", c.Name())
		return
	}
	if err := c.AddItem(item, tex); err != nil {
		s.log.Warn("texture not seeded", "name", item.Name, "err", err)
		return
	}
	s.placed[item.Name] = c
}

// discover walks every namespace and sorts textures into material groups.
func (s *session) discover() {
	namespaces, err := s.layout.Namespaces()
	if err != nil {
		s.log.Warn("cannot list namespaces", "err", err)
		return
	}
	count := 0
	for _, ns := range namespaces {
		textures, err := s.layout.Textures(ns, s.cfg.AnimationSuffix)
		if err != nil {
			s.log.Warn("cannot scan namespace", "namespace", ns, "err", err)
			continue
		}
		for _, tex := range textures {
			switch {
			case tex.Animated:
				s.exclude(tex.Name, "animated")
			case s.cfg.IsExcluded(tex.Name):
				s.exclude(tex.Name, "excluded by config")
			case s.cfg.IsUtility(tex.Name):
				s.log.Debug("skipping utility texture", "name", tex.Name)
			default:
				key := s.classifier.Classify(tex.Name)
				s.groups[key] = append(s.groups[key], tex)
				count++
			}
		}
	}
	s.log.Info("textures discovered", "namespaces", len(namespaces), "grouped", count, "groups", len(s.groups))
}

// exclude adds name to the exclusion set unless it already holds a placement.
func (s *session) exclude(name, reason string) {
	if _, ok := s.placed[name]; ok {
		s.log.Debug("keeping previous placement", "name", name, "reason", reason)
		return
	}
	if !s.excluded[name] {
		s.log.Debug("excluding texture", "name", name, "reason", reason)
	}
	s.excluded[name] = true
}

// pack places every group large enough to be worth an atlas.
func (s *session) pack() error {
	keys := make([]string, 0, len(s.groups))
	for k := range s.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	numGroups := float64(len(keys))
	for gi, key := range keys {
		members := s.groups[key]
		if len(members) <= s.cfg.GroupThreshold {
			for _, tex := range members {
				s.exclude(tex.Name, "group too small")
			}
			continue
		}

		c := s.canvasFor(members)
		numTextures := float64(len(members))
		for ti, tex := range members {
			s.progress.Report(0.3 + 0.6*((float64(ti)/numTextures)+float64(gi))/numGroups)

			if s.excluded[tex.Name] || c.Contains(tex.Name) {
				continue
			}
			if owner, ok := s.placed[tex.Name]; ok && owner != c {
				continue
			}

			img, err := s.codec.Decode(tex.Path)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					s.log.Warn("cannot decode texture, skipping", "name", tex.Name, "err", err)
				}
				continue
			}
			if !c.Place(tex.Name, img) {
				s.log.Warn("texture does not fit in a max size atlas", "name", tex.Name,
					"size", fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()))
				s.exclude(tex.Name, "atlas full")
				continue
			}
			s.placed[tex.Name] = c
		}

		if err := s.finalize(c, key); err != nil {
			return err
		}
	}
	return s.refresh()
}

// refresh re-encodes seeded atlases no group claimed whose rebuilt pixels no
// longer match the image on disk, e.g. after a texture was edited in place
// or removed.
func (s *session) refresh() error {
	for _, c := range s.canvases {
		disk, ok := s.onDisk[c]
		if !ok || s.written[c] {
			continue
		}
		delete(s.onDisk, c)
		if samePixels(c.Image(), disk) {
			continue
		}
		path, err := s.layout.TexturePath(c.Name())
		if err != nil {
			return err
		}
		if err := s.codec.Encode(c.Image(), path); err != nil {
			return fmt.Errorf("failed to write atlas %s: %w", c.Name(), err)
		}
		s.written[c] = true
		s.log.Info("atlas refreshed", "atlas", c.Name(), "size", c.Size(), "items", c.Len(), "path", path)
	}
	return nil
}

func samePixels(a, b *image.NRGBA) bool {
	if a.Rect != b.Rect {
		return false
	}
	for y := a.Rect.Min.Y; y < a.Rect.Max.Y; y++ {
		ra := a.Pix[a.PixOffset(a.Rect.Min.X, y):a.PixOffset(a.Rect.Max.X, y)]
		rb := b.Pix[b.PixOffset(b.Rect.Min.X, y):b.PixOffset(b.Rect.Max.X, y)]
		if !bytes.Equal(ra, rb) {
			return false
		}
	}
	return true
}

// canvasFor picks the canvas a group packs into: the first unclaimed seeded
// canvas holding one of its members, or a fresh one.
func (s *session) canvasFor(members []Texture) *Canvas {
	for _, tex := range members {
		c, ok := s.placed[tex.Name]
		if ok && s.seeded[c] && !s.claimed[c] {
			s.claimed[c] = true
			return c
		}
	}
	c := NewCanvas(s.cfg.Padding)
	s.claimed[c] = true
	return c
}

// finalize names a group's canvas and writes its image. Canvases that ended
// up empty are dropped.
func (s *session) finalize(c *Canvas, class string) error {
	if c.Len() == 0 {
		s.log.Debug("nothing placed for group", "class", class)
		return nil
	}
	if c.Name() == "" {
		c.SetName(s.nextAtlasName())
		s.register(c)
	}
	s.classOf[c] = class

	path, err := s.layout.TexturePath(c.Name())
	if err != nil {
		return err
	}
	if err := s.codec.Encode(c.Image(), path); err != nil {
		return fmt.Errorf("failed to write atlas %s: %w", c.Name(), err)
	}
	s.written[c] = true
	s.log.Info("atlas written", "atlas", c.Name(), "class", class, "size", c.Size(), "items", c.Len(), "path", path)
	return nil
}

func (s *session) register(c *Canvas) {
	s.canvases = append(s.canvases, c)
	s.byName[c.Name()] = c
}

// nextAtlasName returns the first counter-based atlas name not already taken
// by a seeded atlas.
func (s *session) nextAtlasName() string {
	for {
		s.nextAtlas++
		name := s.layout.AtlasName(s.nextAtlas)
		if _, taken := s.byName[name]; !taken {
			return name
		}
	}
}

// persist builds the final mapping and overwrites the mapping document.
func (s *session) persist() (model.Mapping, error) {
	mapping := model.NewMapping()
	for _, c := range s.canvases {
		for _, it := range c.Items() {
			mapping.Place(it)
		}
	}
	for name := range s.excluded {
		mapping.Exclude(name)
	}

	path := s.layout.MappingPath()
	if s.cfg.BackupMapping {
		if backup, err := project.BackupMapping(path); err != nil {
			s.log.Warn("cannot back up previous mapping", "path", path, "err", err)
		} else if backup != "" {
			s.log.Debug("previous mapping backed up", "path", backup)
		}
	}
	if err := project.SaveMapping(path, mapping); err != nil {
		return mapping, fmt.Errorf("failed to write mapping: %w", err)
	}
	s.log.Info("mapping written", "path", path, "entries", mapping.Len())
	return mapping, nil
}

func (s *session) summaries() []model.AtlasSummary {
	out := make([]model.AtlasSummary, 0, len(s.canvases))
	for _, c := range s.canvases {
		path, _ := s.layout.TexturePath(c.Name())
		out = append(out, model.AtlasSummary{
			Name:    c.Name(),
			Path:    path,
			Class:   s.classOf[c],
			Size:    c.Size(),
			Padding: c.Padding(),
			Items:   c.Items(),
			Seeded:  s.seeded[c],
			Written: s.written[c],
			Image:   c.Image(),
		})
	}
	return out
}
