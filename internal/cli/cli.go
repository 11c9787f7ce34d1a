// Package cli implements the gemgutter command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gemgutter/internal/host"
	"github.com/matzehuels/gemgutter/pkg/buildinfo"
	"github.com/matzehuels/gemgutter/pkg/config"
	"github.com/matzehuels/gemgutter/pkg/observability"
	"github.com/matzehuels/gemgutter/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "gemgutter"

	// defaultManifest is annotated when no file is given.
	defaultManifest = "Gemfile"

	// stdinArg selects standard input as an unsaved buffer.
	stdinArg = "-"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	build := buildinfo.Get()
	root := &cobra.Command{
		Use:   appName,
		Short: "Gemgutter shows locked gem versions next to your Gemfile",
		Long: `Gemgutter annotates every gem declared in a Gemfile with the version
pinned in the neighbouring Gemfile.lock, and keeps the annotations in sync
while either file changes.`,
		Version:      build.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			observability.SetSessionHooks(newLogHooks(c.Logger))
			observability.SetWatchHooks(newLogHooks(c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template(build))
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/gemgutter/config.toml)")

	root.AddCommand(c.annotateCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the config once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "path", cfg.Path, "filenames", cfg.Filenames)
	c.config = cfg
	return cfg, nil
}

// =============================================================================
// Host Factory
// =============================================================================

// workspace bundles the host and registry a command works against.
type workspace struct {
	files    *host.Files
	editors  *host.Editors
	registry *session.Registry
}

func (c *CLI) newWorkspace(cfg *config.Config, logger *log.Logger) *workspace {
	files := host.NewFiles(cfg.Debounce.Duration, logger)
	editors := host.NewEditors(files, logger)
	return &workspace{
		files:    files,
		editors:  editors,
		registry: session.NewRegistry(editors.Host(), session.WithLogger(logger)),
	}
}

// closeEditor disposes the session of id and then releases its buffer,
// gutters and file watches.
func (w *workspace) closeEditor(id string) {
	w.registry.Remove(id)
	w.editors.Close(id)
}

func (w *workspace) Close() {
	w.registry.Close()
	_ = w.files.Close()
}
