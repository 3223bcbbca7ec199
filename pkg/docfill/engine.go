package docfill

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/engine"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

// Engine fills templates. It holds the configuration, a template cache and
// the replacements, aliases and importable templates every fill sees.
// An Engine is safe for concurrent use.
type Engine struct {
	config *Config
	cache  *TemplateCache
	log    *Logger

	mu           sync.RWMutex
	replacements map[string]string
	aliases      []engine.Alias
	fragments    map[string]*Template
}

// New creates an engine with ProcessConfig.
func New() *Engine {
	return NewWithConfig(ProcessConfig())
}

// NewWithConfig creates an engine with config. Unset fields take their
// defaults.
func NewWithConfig(config *Config) *Engine {
	config = completed(config)
	return &Engine{
		config: config,
		cache: NewTemplateCache(config.CacheMaxSize, config.CacheTTL),
		log:          ProcessLogger(),
		replacements: map[string]string{},
		fragments:    map[string]*Template{},
	}
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = completed(config)
		e.cache = NewTemplateCache(e.config.CacheMaxSize, e.config.CacheTTL)
	}
}

// WithLogger returns an option that sets the logger fills write to.
func WithLogger(logger *Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

// WithCache returns an option that sets the cache size (0 disables caching).
func WithCache(maxSize int) Option {
	return func(e *Engine) {
		e.config.CacheMaxSize = maxSize
		e.cache = NewTemplateCache(maxSize, e.config.CacheTTL)
	}
}

// WithReplacement returns an option that registers a replacement.
func WithReplacement(key, text string) Option {
	return func(e *Engine) {
		e.RegisterReplacement(key, text)
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(opts ...Option) *Engine {
	e := New()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prepare parses a template read from r.
func (e *Engine) Prepare(name string, format Format, r io.Reader) (*Template, error) {
	return ReadTemplate(name, format, r)
}

// PrepareFile parses a template file. Parsed templates are cached by path
// when caching is enabled, and parsed again once the file changes.
func (e *Engine) PrepareFile(path string) (*Template, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ParseTemplateFile(path)
	}
	return e.cache.Load(path, StampOf(info), func() (*Template, error) {
		e.log.Debug("parsing template %s", path)
		return ParseTemplateFile(path)
	})
}

// RegisterReplacement makes every placeholder with key key be replaced by
// text.
func (e *Engine) RegisterReplacement(key, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.replacements[key] = text
}

// RegisterAlias registers an alias every fill starts with.
func (e *Engine) RegisterAlias(a engine.Alias) error {
	if a.Key == "" || a.ReplaceKey == "" {
		return engine.NewConfigError("key", a.Key, "alias needs key and replaceKey")
	}
	if a.Key == a.ReplaceKey {
		return engine.NewConfigError("replaceKey", a.ReplaceKey, "alias cannot replace itself")
	}
	if a.Defaults == nil {
		a.Defaults = placeholder.NewAttributes()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	known := engine.NewAliasHandler()
	replace := -1
	for i, existing := range e.aliases {
		if existing.Key == a.Key {
			replace = i
			continue
		}
		if err := known.Register(existing); err != nil {
			return err
		}
	}
	if err := known.Check(a); err != nil {
		return err
	}
	if replace >= 0 {
		e.aliases[replace] = a
	} else {
		e.aliases = append(e.aliases, a)
	}
	return nil
}

// RegisterTemplate makes t importable under name with ${Import name:"..."}.
func (e *Engine) RegisterTemplate(name string, t *Template) error {
	if name == "" {
		return engine.NewConfigError("name", name, "template name is required")
	}
	if t.Format == FormatXLSX {
		return fmt.Errorf("templates of format %s cannot be imported", t.Format)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fragments[name] = t
	return nil
}

// Templates lists the names of the importable templates.
func (e *Engine) Templates() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.fragments))
	for name := range e.fragments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fill fills t with model and writes the document to w. Each part of a
// multi-part document is filled by its own run over the same model.
func (e *Engine) Fill(ctx context.Context, t *Template, model *datamodel.Node, w io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Template: t.Name, Value: r}
		}
	}()

	if model == nil {
		model = datamodel.NewMap()
	}
	doc, err := t.instance()
	if err != nil {
		return NewDocumentError("open", t.Name, err)
	}
	if doc.close != nil {
		defer doc.close()
	}

	log := e.log.With("template", t.Name, "format", string(t.Format))
	for i, tr := range doc.trees {
		if err := e.pipeline(tr, doc.cap, model, t.Format, log).Run(ctx); err != nil {
			if len(doc.trees) > 1 {
				return &PartError{Template: t.Name, Part: i, Err: err}
			}
			return err
		}
	}

	if err := doc.write(w); err != nil {
		return NewDocumentError("write", t.Name, err)
	}
	log.Debug("filled %d part(s)", len(doc.trees))
	return nil
}

// FillValue converts data (maps, slices, structs decoded from JSON and
// scalars) into a model and fills t with it.
func (e *Engine) FillValue(ctx context.Context, t *Template, data any, w io.Writer) error {
	return e.Fill(ctx, t, datamodel.FromValue(data), w)
}

func (e *Engine) pipeline(t *tree.Tree, c tree.TextCapability, model *datamodel.Node, format Format, log *Logger) *engine.Pipeline {
	return engine.NewPipeline(t, c, engine.NewEnv(model), e.options(log)).
		Register(e.handlers(format).List()...)
}

func (e *Engine) options(log *Logger) engine.Options {
	return engine.Options{
		Codec:    e.config.Codec(),
		MaxSteps: e.config.MaxSteps,
		Strict:   e.config.StrictMode,
		Logger:   log,
		MaxDepth: e.config.MaxImportDepth,
	}
}

// handlers builds the command set of one run from the registered state.
func (e *Engine) handlers(format Format) *engine.Handlers {
	hs := engine.NewHandlers()

	e.mu.RLock()
	for key, text := range e.replacements {
		hs.Replacements.Set(key, text)
	}
	for _, a := range e.aliases {
		// Checked when registered.
		if err := hs.Alias.Register(a); err != nil {
			e.log.Warn("alias %s dropped: %v", a.Key, err)
		}
	}
	e.mu.RUnlock()

	hs.Import.Source = engine.FragmentSourceFunc(func(name string) (*tree.Tree, tree.NodeID, error) {
		return e.fragment(name, format)
	})
	return hs
}

func (e *Engine) fragment(name string, format Format) (*tree.Tree, tree.NodeID, error) {
	e.mu.RLock()
	t, ok := e.fragments[name]
	e.mu.RUnlock()
	if !ok {
		return nil, tree.None, fmt.Errorf("no template registered as '%s'", name)
	}
	if t.Format.family() != format.family() {
		return nil, tree.None, fmt.Errorf("template '%s' is %s and cannot be imported into %s", name, t.Format, format)
	}
	return t.fragment()
}

// PlaceholderInfo describes one placeholder found by Inspect.
type PlaceholderInfo struct {
	Part  int    `json:"part"`
	Key   string `json:"key"`
	Raw   string `json:"raw"`
	Known bool   `json:"known"`
	Hint  string `json:"hint,omitempty"`
	Error string `json:"error,omitempty"`
}

// Report lists the placeholders of a template.
type Report struct {
	Template     string            `json:"template"`
	Format       Format            `json:"format"`
	Placeholders []PlaceholderInfo `json:"placeholders"`
}

// Keys returns the distinct keys in document order.
func (r *Report) Keys() []string {
	seen := map[string]bool{}
	var keys []string
	for _, p := range r.Placeholders {
		if p.Key != "" && !seen[p.Key] {
			seen[p.Key] = true
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// Inspect scans t without filling it. Placeholders that do not parse are
// reported and their syntax errors are returned together.
func (e *Engine) Inspect(t *Template) (*Report, error) {
	doc, err := t.instance()
	if err != nil {
		return nil, NewDocumentError("open", t.Name, err)
	}
	if doc.close != nil {
		defer doc.close()
	}

	report := &Report{Template: t.Name, Format: t.Format}
	errs := &PlaceholderErrors{Template: t.Name}
	for i, tr := range doc.trees {
		p := e.pipeline(tr, doc.cap, nil, t.Format, e.log)
		known := map[string]bool{}
		for _, k := range p.KnownKeys() {
			known[k] = true
		}
		for _, ph := range p.Scan() {
			info := PlaceholderInfo{Part: i, Key: ph.Key, Raw: ph.Raw}
			if ph.Err != nil {
				info.Error = ph.Err.Error()
				errs.add(ph.Err)
			}
			info.Known = known[ph.Key] || isShortForm(ph.Key)
			if !info.Known && ph.Err == nil {
				info.Hint = p.Hint(ph.Key)
			}
			report.Placeholders = append(report.Placeholders, info)
		}
	}
	return report, errs.errOrNil()
}

func isShortForm(key string) bool {
	return len(key) > 1 && (key[0] == '*' || key[0] == '$')
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// SetConfig updates the engine's configuration. The cache keeps its size
// until ClearCache.
func (e *Engine) SetConfig(config *Config) {
	e.config = completed(config)
}

// ClearCache removes all templates from the cache.
func (e *Engine) ClearCache() {
	e.cache.Purge()
}

// Cache exposes the template cache.
func (e *Engine) Cache() *TemplateCache {
	return e.cache
}

// Close releases the cached templates.
func (e *Engine) Close() error {
	e.ClearCache()
	return nil
}
