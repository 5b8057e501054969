package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geobrowser/geogenesis-sub006/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	IncludeDeleted bool
	SpaceID        string
	Pending        bool
}

// NewInspectCommand dumps resolved entities from the local store.
func NewInspectCommand(root *RootOptions) *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect [entity-id...]",
		Short: "Dump resolved entities from the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), root)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "initialize", Err: err}
			}
			defer app.close()

			if opts.Pending {
				ids := app.entities.PendingEntityIDs()
				if root.Format == "json" {
					return printJSON(cmd.OutOrStdout(), ids)
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}

			readOpts := store.Options{
				IncludeDeleted: opts.IncludeDeleted,
				SpaceID:        opts.SpaceID,
			}

			if len(args) == 0 {
				entities := app.entities.GetEntities(readOpts)
				if root.Format == "json" {
					return printJSON(cmd.OutOrStdout(), entities)
				}
				for _, ent := range entities {
					printEntityText(cmd.OutOrStdout(), ent)
				}
				return nil
			}

			for _, id := range args {
				ent, ok := app.entities.GetEntity(id, readOpts)
				if !ok {
					return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("entity %s not found", id)}
				}
				if root.Format == "json" {
					if err := printJSON(cmd.OutOrStdout(), ent); err != nil {
						return err
					}
					continue
				}
				printEntityText(cmd.OutOrStdout(), ent)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.IncludeDeleted, "include-deleted", false, "surface tombstoned values and relations")
	cmd.Flags().StringVar(&opts.SpaceID, "space", "", "restrict to one space")
	cmd.Flags().BoolVar(&opts.Pending, "pending", false, "list entity ids with unpublished local edits")

	return cmd
}
