// Package cli is the nexus command tree. Without a subcommand it starts the
// TUI; the subcommands script the same board operations.
package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"nexus/internal/api"
	"nexus/internal/cache"
	"nexus/internal/config"
	"nexus/internal/kanban/dnd"
	"nexus/internal/kanban/operations"
	"nexus/internal/kanban/position"
	"nexus/internal/kanban/store"
	ksync "nexus/internal/kanban/sync"
	"nexus/internal/logs"
	"nexus/internal/tui"
	kanbanview "nexus/internal/tui/kanban"
)

// App carries the state shared by every command of one invocation.
type App struct {
	Flags config.CLIFlags

	cfg    *config.Config
	client *api.Client
	cache  *cache.Cache
	redis  *redis.Client
	// runTUI starts the interactive program; tests replace it.
	runTUI func(m tea.Model) error
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{runTUI: runProgram})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "nexus",
		Short:        "Terminal client for Nexus kanban boards",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  nexus
  nexus --board <board-id>

  # Scriptable commands
  nexus board show -b <board-id>
  nexus board export ./roadmap -b <board-id>
  nexus card move <card-id> --to <list-id> --index 0 -b <board-id>
  nexus list move <list-id> --index 2 -b <board-id>
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logs.Logger.Info("starting app in TUI mode")
			return app.runTUI(tui.NewAppModel(app.cfg, app.deps))
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd.Context())
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		app.teardown()
		return nil
	}

	app.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(newBoardCmd(app))
	cmd.AddCommand(newCardCmd(app))
	cmd.AddCommand(newListCmd(app))

	return cmd
}

// addFlags binds the global flags. Config-style names such as --api_url are
// accepted as well.
func (a *App) addFlags(flagSet *pflag.FlagSet) {
	flagSet.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	flagSet.StringVar(&a.Flags.ConfigPath, "config", "", "Config file (default ~/.config/nexus/config.yaml)")
	flagSet.StringVar(&a.Flags.APIURL, "api-url", "", "Board API root, e.g. http://localhost:8080/api/v1")
	flagSet.StringVar(&a.Flags.Token, "token", "", "Bearer token for the board API")
	flagSet.StringVarP(&a.Flags.Board, "board", "b", "", "Board id")
	flagSet.BoolVar(&a.Flags.Strict, "strict", false, "Reject out-of-range drop indexes instead of clamping them")
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func runProgram(m tea.Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

// setup loads config and builds the API client, logger and optional cache.
func (a *App) setup(ctx context.Context) error {
	cfg, err := config.Load(a.Flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	if a.Flags.ConfigPath == "" {
		if err := config.EnsureConfigFile(); err != nil {
			logs.Logger.WithError(err).Warn("could not create config file")
		}
	}
	if err := logs.SetLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if err := logs.Initialize(cfg.LogDir); err != nil {
		logs.Logger.WithError(err).Warn("could not initialize log file")
	}

	a.client, err = api.NewClient(api.ClientConfig{
		BaseURL: cfg.APIURL,
		Token:   cfg.Token,
		Timeout: cfg.RequestTimeout,
		Logger:  logs.Logger,
	})
	if err != nil {
		return err
	}

	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			// The cache only speeds up loads; run without it.
			logs.Logger.WithError(err).Warn("board cache disabled")
		} else {
			a.redis = rdb
			a.cache = cache.New(a.client, rdb, cfg.CacheTTL)
		}
	}
	return nil
}

func (a *App) teardown() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = logs.Close()
}

// deps builds a fresh store, engine and edit pipeline for one board.
func (a *App) deps() kanbanview.Deps {
	st := store.New()
	alloc := position.Allocator{Strict: a.cfg.StrictPositions, Epsilon: a.cfg.RebalanceEpsilon}

	var src operations.Source = a.client
	var opsCache operations.Invalidator
	var syncCache ksync.Invalidator
	if a.cache != nil {
		src, opsCache, syncCache = a.cache, a.cache, a.cache
	}

	syncer := ksync.New(a.client, syncCache)
	syncer.Timeout = a.cfg.RequestTimeout

	return kanbanview.Deps{
		Store:   st,
		Engine:  dnd.NewEngine(st, alloc),
		Syncer:  syncer,
		Ops:     operations.New(st, a.client, opsCache),
		Source:  src,
		Timeout: a.cfg.RequestTimeout,
	}
}

// boardID is the board a subcommand works on.
func (a *App) boardID() (string, error) {
	if a.cfg.DefaultBoard == "" {
		return "", fmt.Errorf("no board given: pass --board or set default_board")
	}
	return a.cfg.DefaultBoard, nil
}

// open loads the board a subcommand works on.
func (a *App) open(ctx context.Context) (kanbanview.Deps, error) {
	boardID, err := a.boardID()
	if err != nil {
		return kanbanview.Deps{}, err
	}
	d := a.deps()
	if err := operations.LoadBoard(ctx, d.Source, d.Store, boardID); err != nil {
		return kanbanview.Deps{}, err
	}
	return d, nil
}
