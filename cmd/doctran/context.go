// Package main implements the doctran CLI: a single binary exposing the
// translate pipeline (internal/pipeline) as a cobra command tree.
package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/inkwell-labs/doctran/internal/config"
	"github.com/inkwell-labs/doctran/internal/logging"
)

// CommandContext bundles the settings and logger every subcommand needs,
// stashed on the root command's context during PersistentPreRunE.
type CommandContext struct {
	Settings *config.Settings
	Logger   *logging.Logger
}

type contextKey string

const cmdContextKey contextKey = "doctranCmdContext"

// GetCommandContext retrieves the CommandContext set by the root command.
func GetCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cc, _ := ctx.Value(cmdContextKey).(*CommandContext)
	return cc
}

// SetCommandContext stores cc on cmd's context, creating a background
// context first if cmd has none yet.
func SetCommandContext(cmd *cobra.Command, cc *CommandContext) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cmdContextKey, cc))
}
