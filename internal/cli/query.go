package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geobrowser/geogenesis-sub006/internal/query"
	"github.com/geobrowser/geogenesis-sub006/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	FilterPath string
	Filter     string
	SpaceID    string
	Limit      int
	Offset     int
	Sort       []string
	Count      bool
}

// NewQueryCommand evaluates a JSON filter condition against the local store.
func NewQueryCommand(root *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Evaluate a filter against the local entity store",
		Long: `Evaluate a JSON filter condition against the entities resolvable from the
local store. The condition document is validated against the condition
schema before it runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readFilter(opts)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "read filter", Err: err}
			}
			cond, err := query.ParseCondition(doc)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "parse filter", Err: err}
			}
			sortKeys, err := parseSortKeys(opts.Sort)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "parse sort", Err: err}
			}

			app, err := newApp(cmd.Context(), root)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "initialize", Err: err}
			}
			defer app.close()

			snapshot := app.entities.GetEntities(store.Options{SpaceID: opts.SpaceID})
			q := query.New(snapshot).Where(cond).
				SortBy(sortKeys...).
				Limit(opts.Limit).
				Offset(opts.Offset)

			if opts.Count {
				fmt.Fprintln(cmd.OutOrStdout(), q.Count())
				return nil
			}

			results := q.Execute()
			if root.Format == "json" {
				return printJSON(cmd.OutOrStdout(), results)
			}
			for _, ent := range results {
				printEntityText(cmd.OutOrStdout(), ent)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d entities\n", len(results))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.FilterPath, "filter-file", "f", "", "path to a JSON condition document")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "inline JSON condition document")
	cmd.Flags().StringVar(&opts.SpaceID, "space", "", "restrict to one space")
	cmd.Flags().IntVar(&opts.Limit, "limit", -1, "maximum results (-1 for all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "results to skip")
	cmd.Flags().StringSliceVar(&opts.Sort, "sort", nil, "sort keys, e.g. name or name:desc")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print only the match count")

	return cmd
}

// readFilter resolves the condition document from flags. No filter at all
// means match-everything.
func readFilter(opts *QueryOptions) ([]byte, error) {
	if opts.FilterPath != "" && opts.Filter != "" {
		return nil, fmt.Errorf("--filter and --filter-file are mutually exclusive")
	}
	if opts.FilterPath != "" {
		return os.ReadFile(opts.FilterPath)
	}
	if opts.Filter != "" {
		return []byte(opts.Filter), nil
	}
	return []byte("{}"), nil
}

// parseSortKeys turns "field" or "field:desc" specs into sort keys.
func parseSortKeys(specs []string) ([]query.SortKey, error) {
	keys := make([]query.SortKey, 0, len(specs))
	for _, spec := range specs {
		field, dir, _ := strings.Cut(spec, ":")
		key := query.SortKey{Field: query.SortField(field)}
		switch field {
		case string(query.SortByID), string(query.SortByName), string(query.SortByDescription):
		default:
			return nil, fmt.Errorf("unknown sort field %q", field)
		}
		switch dir {
		case "", "asc":
		case "desc":
			key.Desc = true
		default:
			return nil, fmt.Errorf("unknown sort direction %q", dir)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
