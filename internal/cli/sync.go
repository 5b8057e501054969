package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geobrowser/geogenesis-sub006/internal/query"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	Pending bool
	Search  string
}

// NewSyncCommand fetches entities from the remote source and merges them
// into the local store.
func NewSyncCommand(root *RootOptions) *cobra.Command {
	opts := &SyncOptions{}

	cmd := &cobra.Command{
		Use:   "sync [entity-id...]",
		Short: "Fetch entities from the remote source and merge them locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.RemoteURL == "" {
				return &ExitError{Code: ExitCommandError, Message: "sync requires --remote"}
			}

			app, err := newApp(cmd.Context(), root)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "initialize", Err: err}
			}
			defer app.close()

			if opts.Search != "" {
				return runSearch(cmd, app, opts.Search, root)
			}

			ids := args
			if opts.Pending {
				ids = append(ids, app.entities.PendingEntityIDs()...)
			}
			if len(ids) == 0 {
				return &ExitError{Code: ExitCommandError, Message: "no entity ids given (pass ids or --pending)"}
			}

			if err := app.engine.SyncEntities(cmd.Context(), ids); err != nil {
				return &ExitError{Code: ExitFailure, Message: "sync", Err: err}
			}

			synced := app.engine.SyncedIDs()
			if root.Format == "json" {
				return printJSON(cmd.OutOrStdout(), synced)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d entities: %s\n", len(synced), strings.Join(synced, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Pending, "pending", false, "sync all entities with unpublished local edits")
	cmd.Flags().StringVar(&opts.Search, "search", "", "search the remote source with an inline filter document")

	return cmd
}

func runSearch(cmd *cobra.Command, a *app, filter string, root *RootOptions) error {
	cond, err := query.ParseCondition([]byte(filter))
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "parse filter", Err: err}
	}
	results, err := a.engine.Search(cmd.Context(), cond)
	if err != nil {
		return &ExitError{Code: ExitFailure, Message: "search", Err: err}
	}
	if root.Format == "json" {
		return printJSON(cmd.OutOrStdout(), results)
	}
	for _, res := range results {
		name := ""
		if res.Name != nil {
			name = *res.Name
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", res.ID, name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d results\n", len(results))
	return nil
}
