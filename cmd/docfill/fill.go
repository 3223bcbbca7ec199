package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/benjaminschreck/docfill/pkg/docfill"
	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
)

type fillOptions struct {
	model    string
	output   string
	format   string
	schema   string
	imports  []string
	replace  []string
	watch    bool
	debounce time.Duration
}

func newFillCmd() *cobra.Command {
	var opts fillOptions
	cmd := &cobra.Command{
		Use:   "fill <template>",
		Short: "Fill a template with a data model",
		Example: `  docfill fill invoice.docx -m invoice.json -o out.docx
  docfill fill letter.md -m data.yaml --import footer=footer.md
  docfill fill report.html -m data.json -o report-filled.html --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			config, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			// Watch mode reparses on every change.
			if opts.watch {
				config.CacheMaxSize = 0
			}
			eng := docfill.NewWithOptions(docfill.WithConfig(config), docfill.WithLogger(logger))
			defer eng.Close()

			f := &filler{eng: eng, log: logger, template: args[0], opts: opts, out: cmd.OutOrStdout()}
			if err := f.run(ctx); err != nil {
				if !opts.watch {
					return err
				}
				logger.Error("%v", err)
			}
			if !opts.watch {
				return nil
			}
			return f.watchLoop(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.model, "model", "m", "", "Model file (.json, .yaml, .yml or .cbor); - reads JSON from stdin")
	flags.StringVarP(&opts.output, "output", "o", "", "Output file (default stdout)")
	flags.StringVarP(&opts.format, "format", "f", "", "Template format when the extension does not tell")
	flags.StringVar(&opts.schema, "schema", "", "JSON Schema the model must satisfy")
	flags.StringArrayVar(&opts.imports, "import", nil, "Importable template as name=path (repeatable)")
	flags.StringArrayVar(&opts.replace, "replace", nil, "Fixed replacement as key=text (repeatable)")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "Fill again whenever an input file changes")
	flags.DurationVar(&opts.debounce, "watch-debounce", 300*time.Millisecond, "Quiet period before filling again in watch mode")
	return cmd
}

type filler struct {
	eng      *docfill.Engine
	log      *docfill.Logger
	template string
	opts     fillOptions
	out      io.Writer
}

func (f *filler) run(ctx context.Context) error {
	tmpl, err := f.loadTemplate()
	if err != nil {
		return err
	}
	for _, spec := range f.opts.imports {
		if err := registerImport(f.eng, spec); err != nil {
			return err
		}
	}
	for _, spec := range f.opts.replace {
		key, text, ok := strings.Cut(spec, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid --replace %q, want key=text", spec)
		}
		f.eng.RegisterReplacement(key, text)
	}

	model, err := f.loadModel()
	if err != nil {
		return err
	}

	// Fill into memory so a failed fill never truncates the output file.
	var buf bytes.Buffer
	if err := f.eng.Fill(ctx, tmpl, model, &buf); err != nil {
		return err
	}
	if f.opts.output == "" {
		_, err = f.out.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(f.opts.output, buf.Bytes(), 0o644); err != nil {
		return docfill.NewDocumentError("write", f.opts.output, err)
	}
	f.log.Info("wrote %s", f.opts.output)
	return nil
}

// registerImport parses spec as name=path and makes the template at path
// importable under name.
func registerImport(eng *docfill.Engine, spec string) error {
	name, path, ok := strings.Cut(spec, "=")
	if !ok || name == "" || path == "" {
		return fmt.Errorf("invalid --import %q, want name=path", spec)
	}
	frag, err := docfill.ParseTemplateFile(path)
	if err != nil {
		return err
	}
	return eng.RegisterTemplate(name, frag)
}

func (f *filler) loadTemplate() (*docfill.Template, error) {
	if f.opts.format == "" {
		return f.eng.PrepareFile(f.template)
	}
	format, err := docfill.ParseFormat(f.opts.format)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(f.template)
	if err != nil {
		return nil, docfill.NewDocumentError("read", f.template, err)
	}
	defer file.Close()
	return f.eng.Prepare(f.template, format, file)
}

func (f *filler) loadModel() (*datamodel.Node, error) {
	var (
		model *datamodel.Node
		err   error
	)
	switch f.opts.model {
	case "":
		model = datamodel.NewMap()
	case "-":
		model, err = datamodel.DecodeJSON(os.Stdin)
	default:
		model, err = datamodel.LoadFile(f.opts.model)
	}
	if err != nil {
		return nil, err
	}

	if f.opts.schema != "" {
		schema, err := os.ReadFile(f.opts.schema)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		if err := datamodel.ValidateSchema(schema, model); err != nil {
			return nil, fmt.Errorf("model does not match schema: %w", err)
		}
	}
	return model, nil
}

// inputs lists the files a fill reads.
func (f *filler) inputs() []string {
	files := []string{f.template}
	if f.opts.model != "" && f.opts.model != "-" {
		files = append(files, f.opts.model)
	}
	if f.opts.schema != "" {
		files = append(files, f.opts.schema)
	}
	for _, spec := range f.opts.imports {
		if _, path, ok := strings.Cut(spec, "="); ok {
			files = append(files, path)
		}
	}
	return files
}

// watchLoop fills again after input files change until ctx is cancelled.
// Directories are watched rather than files so editors that replace files
// on save keep triggering events.
func (f *filler) watchLoop(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{}
	dirs := map[string]bool{}
	for _, file := range f.inputs() {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	f.log.Info("watching %d file(s) for changes", len(watched))

	var (
		timer   *time.Timer
		trigger <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, watched) {
				continue
			}
			f.log.Debug("change detected: %s", event)
			if timer == nil {
				timer = time.NewTimer(f.opts.debounce)
			} else {
				timer.Reset(f.opts.debounce)
			}
			trigger = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("watch error: %v", err)
		case <-trigger:
			trigger = nil
			if err := f.run(ctx); err != nil {
				f.log.Error("%v", err)
			}
		}
	}
}

func relevant(event fsnotify.Event, watched map[string]bool) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	return err == nil && watched[abs]
}
