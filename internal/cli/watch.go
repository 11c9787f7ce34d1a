package cli

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gemgutter/pkg/errors"
	"github.com/matzehuels/gemgutter/pkg/session"
)

type watchOptions struct {
	logFile string
	plain   bool
}

func (c *CLI) watchCommand() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Open a live view of a Gemfile and its locked versions",
		Long: `Open an interactive view of a Gemfile. Press "t" to toggle the version
gutter. Edits to the Gemfile update only the affected lines; changes to the
lock file reload every version.

Versions are shown on start when show_automatically is set and the file
name is one of the configured filenames.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultManifest
			if len(args) == 1 {
				path = args[0]
			}
			return c.runWatch(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), path, opts)
		},
	}

	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "write logs to this file while the view is open")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "disable colors in the gutter")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, in io.Reader, out io.Writer, path string, opts watchOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	// The view owns the terminal, so logs go to a file or nowhere.
	logger := loggerFromContext(ctx)
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "open log file")
		}
		defer f.Close()
		logger.SetOutput(f)
	} else {
		logger.SetOutput(io.Discard)
	}

	ws := c.newWorkspace(cfg, logger)
	defer ws.Close()

	// viewCtx ends with the view so its pending commands return.
	viewCtx, stop := context.WithCancel(ctx)
	defer stop()

	id, err := ws.editors.Open(ctx, path)
	if err != nil {
		return err
	}
	defer ws.closeEditor(id)
	s, err := ws.registry.GetOrCreate(id)
	if err != nil {
		return err
	}
	buf, err := ws.editors.Buffer(id)
	if err != nil {
		return err
	}

	m := NewWatchModel(viewCtx, path, s, buf, ws.editors.GutterOf(id, session.GutterName), cfg.GutterWidth, cfg.ShowAutomatically && cfg.Matches(id))
	m.plain = opts.plain

	p := tea.NewProgram(m,
		tea.WithContext(viewCtx),
		tea.WithAltScreen(),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	cancel := buf.OnDidStopChanging(func() { p.Send(bufferChangedMsg{}) })
	defer cancel()

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}
