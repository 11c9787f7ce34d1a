package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/gemgutter/pkg/annotate"
	"github.com/matzehuels/gemgutter/pkg/errors"
	"github.com/matzehuels/gemgutter/pkg/session"
)

// stdinEditor is the editor ID of the unsaved buffer read from stdin.
const stdinEditor = "<stdin>"

type annotateOptions struct {
	table bool
	plain bool
	jobs  int
}

type annotateResult struct {
	id          string
	name        string
	text        string
	annotations []annotate.Annotation
	err         error
}

func (c *CLI) annotateCommand() *cobra.Command {
	opts := annotateOptions{jobs: runtime.NumCPU()}

	cmd := &cobra.Command{
		Use:   "annotate [file...]",
		Short: "Print Gemfiles with their locked versions in a gutter",
		Long: `Print each Gemfile with the version pinned in its lock file next to every
gem declaration. The lock file is the manifest path with ".lock" appended.
Gems missing from the lock file are shown as "(unknown)".

Without arguments the Gemfile in the current directory is annotated.
Passing "-" reads an unsaved buffer from stdin, which has no lock file.`,
		Example: `  gemgutter annotate
  gemgutter annotate Gemfile engines/api/Gemfile
  gemgutter annotate --table Gemfile.lock`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{defaultManifest}
			}
			return c.runAnnotate(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.table, "table", false, "list versions and links as a table")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "disable colors and rounded borders")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "files annotated concurrently")

	return cmd
}

func (c *CLI) runAnnotate(ctx context.Context, in io.Reader, out io.Writer, args []string, opts annotateOptions) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	var stdin string
	for _, arg := range args {
		if arg == stdinArg {
			data, err := io.ReadAll(in)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
			}
			stdin = string(data)
			break
		}
	}

	ws := c.newWorkspace(cfg, logger)
	defer ws.Close()

	prog := newProgress(logger)
	results := make([]annotateResult, len(args))

	g, gctx := errgroup.WithContext(ctx)
	if opts.jobs > 0 {
		g.SetLimit(opts.jobs)
	}
	for i, arg := range args {
		g.Go(func() error {
			results[i] = annotateFile(gctx, ws, arg, stdin)
			return nil
		})
	}
	err = g.Wait()

	// The same file may be named twice, so editors close once all are done.
	closed := make(map[string]bool, len(results))
	for _, r := range results {
		if r.id != "" && !closed[r.id] {
			closed[r.id] = true
			ws.closeEditor(r.id)
		}
	}
	if err != nil {
		return err
	}

	failed := 0
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if r.err != nil {
			failed++
			printError(out, "%s: %s", r.name, errors.UserMessage(r.err))
			continue
		}

		sum := summarize(r.annotations)
		if opts.plain {
			fmt.Fprintf(out, "%s (%s)\n", r.name, sum)
		} else {
			printInfo(out, "%s %s", StyleTitle.Render(r.name), StyleDim.Render(sum.String()))
		}
		if opts.table {
			fmt.Fprint(out, renderTable(r.annotations, opts.plain))
		} else {
			fmt.Fprint(out, renderGutter(r.text, r.annotations, cfg.GutterWidth, opts.plain))
		}
	}

	prog.done(fmt.Sprintf("Annotated %d of %d files", len(args)-failed, len(args)))
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be annotated", failed, len(args))
	}
	return nil
}

// annotateFile shows a session for one argument and captures what it drew.
func annotateFile(ctx context.Context, ws *workspace, arg, stdin string) annotateResult {
	r := annotateResult{name: arg}

	var id string
	if arg == stdinArg {
		r.name = stdinEditor
		id = ws.editors.OpenText(stdinEditor, stdin)
	} else {
		var err error
		if id, err = ws.editors.Open(ctx, arg); err != nil {
			r.err = err
			return r
		}
	}
	r.id = id

	s, err := ws.registry.GetOrCreate(id)
	if err != nil {
		r.err = err
		return r
	}
	if err := s.Show(ctx); err != nil {
		r.err = err
		return r
	}

	buf, err := ws.editors.Buffer(id)
	if err != nil {
		r.err = err
		return r
	}
	r.text = buf.Text()
	r.annotations = ws.editors.GutterOf(id, session.GutterName).Snapshot()
	return r
}
