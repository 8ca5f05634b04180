package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/quotadesk/internal/remote"
)

var errNoRemote = errors.New("remote.postgres_url is not configured")

func newSyncCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy logs and plans to and from the shared PostgreSQL database",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "push",
			Short: "Upload every local log and plan",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.sync(cmd, "Pushed", (*remote.Syncer).Push)
			},
		},
		&cobra.Command{
			Use:   "pull",
			Short: "Download your remote logs and plans, overwriting local days",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.sync(cmd, "Pulled", (*remote.Syncer).Pull)
			},
		},
	)
	return cmd
}

func (e *env) sync(cmd *cobra.Command, verb string, run func(*remote.Syncer, context.Context) (remote.Result, error)) error {
	if e.cfg.Remote.PostgresURL == "" {
		return fmt.Errorf("sync: %w", errNoRemote)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.RemoteTimeout())
	defer cancel()

	repo, err := remote.Connect(ctx, e.cfg.Remote.PostgresURL)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	res, err := run(remote.NewSyncer(e.store, repo, e.logger), ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d logs and %d plans\n", verb, res.Logs, res.Plans)
	return nil
}
