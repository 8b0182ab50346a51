package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapflow/internal/cli/config"
	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/internal/state"
	"github.com/leapstack-labs/leapflow/pkg/adapter"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/spf13/cobra"

	// Register the store adapters a target can name.
	_ "github.com/leapstack-labs/leapflow/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapflow/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapflow/pkg/adapters/sqlite"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Ledger   core.Store
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an open run ledger.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutLedger(cmd)

	ledger, err := openLedger(cmdCtx.Cfg.StatePath, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Ledger = ledger

	cleanup := func() {
		if err := ledger.Close(); err != nil {
			cmdCtx.Logger.Warn("failed to close run ledger", "error", err)
		}
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutLedger creates a CommandContext without a ledger.
// Useful for commands that don't need the state database.
func NewCommandContextWithoutLedger(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

func openLedger(path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open run ledger %s: %w", path, err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize run ledger: %w", err)
	}
	return store, nil
}

// OpenTarget connects to the store a pipeline reads from or writes to.
// The caller must close the returned adapter.
func OpenTarget(ctx context.Context, target config.TargetConfig, logger *slog.Logger) (core.Adapter, error) {
	cfg := target.AdapterConfig()
	a, err := adapter.NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s target: %w", cfg.Type, err)
	}
	logger.Debug("connected to target", "type", cfg.Type, "database", cfg.Database)
	return a, nil
}
