package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

// DefaultMaxSteps bounds the number of placeholders one run may process.
const DefaultMaxSteps = 100000

// Logger is the logging surface the engine writes to.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// NopLogger discards everything.
var NopLogger Logger = nopLogger{}

// Env is the data one run fills from: the model with its current path,
// the variable stacks and the base missing data policy.
type Env struct {
	Model  *datamodel.Model
	Vars   *datamodel.Variables
	Policy *Policy
}

// NewEnv creates an environment over root with fresh variables and the
// default policy.
func NewEnv(root *datamodel.Node) *Env {
	return &Env{
		Model:  datamodel.NewModel(root),
		Vars:   datamodel.NewVariables(),
		Policy: DefaultPolicy(),
	}
}

// Handler implements one or more placeholder commands.
type Handler interface {
	TryHandle(ctx *Context) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx *Context) (Result, error)

func (f HandlerFunc) TryHandle(ctx *Context) (Result, error) {
	return f(ctx)
}

// Keyed is implemented by handlers that can list the keys they claim. The
// keys feed "did you mean" hints for unknown placeholders.
type Keyed interface {
	Keys() []string
}

// Options tune a pipeline run.
type Options struct {
	Codec placeholder.Codec
	// MaxSteps caps processed placeholders; 0 means DefaultMaxSteps.
	MaxSteps int
	// Strict turns placeholders no handler claims into errors.
	Strict bool
	Logger Logger
	// Depth is the import nesting level of this run.
	Depth int
	// MaxDepth bounds Depth; 0 means unlimited.
	MaxDepth int
}

// Pipeline runs handlers over the placeholders of one tree.
type Pipeline struct {
	Tree     *tree.Tree
	Cap      tree.TextCapability
	Env      *Env
	Handlers []Handler

	detector *placeholder.Detector
	opts     Options
	log      Logger

	// Per run state handlers add to through Context.
	sealed []tree.NodeID
	atEnd  []func() error
}

// NewPipeline creates a pipeline with no handlers.
func NewPipeline(t *tree.Tree, c tree.TextCapability, env *Env, opts Options) *Pipeline {
	if env == nil {
		env = NewEnv(nil)
	}
	if env.Policy == nil {
		env.Policy = DefaultPolicy()
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	log := opts.Logger
	if log == nil {
		log = NopLogger
	}
	return &Pipeline{
		Tree:     t,
		Cap:      c,
		Env:      env,
		detector: placeholder.NewDetector(c, opts.Codec),
		opts:     opts,
		log:      log,
	}
}

// Register appends handlers. Earlier handlers win.
func (p *Pipeline) Register(hs ...Handler) *Pipeline {
	p.Handlers = append(p.Handlers, hs...)
	return p
}

// Options returns the options the pipeline was created with.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Codec returns the placeholder codec in use.
func (p *Pipeline) Codec() placeholder.Codec {
	return p.opts.Codec
}

// Scan detects the placeholders currently in the tree.
func (p *Pipeline) Scan() []placeholder.Placeholder {
	return p.detector.Scan(p.Tree)
}

// Run processes placeholders in document order until none is left, an
// exit marker ends the scan, ctx is cancelled or a fatal error occurs.
// Actions deferred with Context.AtEnd run once the scan ends normally.
// Mutations made before a failure stay in the tree.
func (p *Pipeline) Run(ctx context.Context) error {
	p.sealed, p.atEnd = nil, nil
	if err := p.scan(ctx); err != nil {
		return err
	}
	for i, fn := range p.atEnd {
		if err := fn(); err != nil {
			return &RunError{Step: i, Cause: fmt.Errorf("end of document: %w", err)}
		}
	}
	return nil
}

func (p *Pipeline) scan(ctx context.Context) error {
	visited := map[tree.NodeID]bool{}
	cursor := tree.None
	var machine IgnoreMachine

	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			return &RunError{Step: step, Cause: err}
		}
		if step >= p.opts.MaxSteps {
			return &RunError{Step: step, Cause: fmt.Errorf("step limit %d exceeded", p.opts.MaxSteps)}
		}

		ps := p.Scan()
		idx := p.next(ps, visited, cursor)
		if idx < 0 {
			return nil
		}
		ph := ps[idx]
		visited[ph.Node] = true

		state := machine.Advance(ph.Key)
		if !state.Process() {
			p.log.Debug("ignoring %s", ph.Raw)
			cursor = ph.Node
			continue
		}
		if state.IgnoreRelated() {
			deletePlaceholder(p.Tree, p.Cap, ph.Node, DeleteIfBlankParagraph)
			if state.Exit() {
				p.log.Debug("exit marker reached")
				return nil
			}
			continue
		}

		res, err := p.dispatch(&Context{
			Ctx:          ctx,
			Pipeline:     p,
			Tree:         p.Tree,
			Cap:          p.Cap,
			Env:          p.Env,
			Placeholder:  ph,
			Placeholders: ps,
			Index:        idx,
			Log:          p.log,
		})
		if err != nil {
			return &RunError{Placeholder: ph.Raw, Step: step, Cause: err}
		}

		switch res.Kind {
		case ResultRescan:
			cursor = res.From
			delete(visited, res.From)
		default:
			if p.Tree.Attached(ph.Node) {
				cursor = ph.Node
			}
		}
	}
}

// next picks the first unvisited placeholder at or after cursor that is
// not inside a sealed subtree.
func (p *Pipeline) next(ps []placeholder.Placeholder, visited map[tree.NodeID]bool, cursor tree.NodeID) int {
	useCursor := cursor != tree.None && p.Tree.Attached(cursor)
	for i, ph := range ps {
		if visited[ph.Node] || p.isSealed(ph.Node) {
			continue
		}
		if useCursor && p.Tree.Compare(ph.Node, cursor) < 0 {
			continue
		}
		return i
	}
	return -1
}

func (p *Pipeline) isSealed(n tree.NodeID) bool {
	for _, s := range p.sealed {
		if p.Tree.Contains(s, n) {
			return true
		}
	}
	return false
}

func (p *Pipeline) dispatch(ctx *Context) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	if ctx.Placeholder.Err != nil {
		return Ignored, ctx.Placeholder.Err
	}
	skipped := false
	for _, h := range p.Handlers {
		res, err := h.TryHandle(ctx)
		if err != nil {
			return Ignored, err
		}
		switch res.Kind {
		case ResultIgnored:
		case ResultSkipped:
			skipped = true
		default:
			p.log.Debug("%s -> %s", ctx.Placeholder.Raw, res)
			return res, nil
		}
	}
	if skipped {
		// A handler owns the key but chose to leave it for now.
		p.log.Debug("%s -> %s", ctx.Placeholder.Raw, Skipped)
		return Skipped, nil
	}

	hint := p.Hint(ctx.Placeholder.Key)
	if p.opts.Strict {
		return Ignored, &UnclaimedError{Key: ctx.Placeholder.Key, Hint: hint}
	}
	if hint != "" {
		p.log.Warn("unknown placeholder %s (did you mean '%s'?)", ctx.Placeholder.Raw, hint)
	} else {
		p.log.Warn("unknown placeholder %s", ctx.Placeholder.Raw)
	}
	return Ignored, nil
}

// KnownKeys lists the keys of every Keyed handler plus the ignore markers.
func (p *Pipeline) KnownKeys() []string {
	keys := []string{KeyIgnore, KeyEndIgnore, KeyExit}
	for _, h := range p.Handlers {
		if k, ok := h.(Keyed); ok {
			keys = append(keys, k.Keys()...)
		}
	}
	return keys
}

// Hint suggests the known key closest to key, or "".
func (p *Pipeline) Hint(key string) string {
	if key == "" {
		return ""
	}
	known := p.KnownKeys()
	if ranks := fuzzy.RankFindFold(key, known); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	best, bestDist := "", 3
	for _, k := range known {
		if d := fuzzy.LevenshteinDistance(key, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}
