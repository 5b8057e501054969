// The geo command queries, inspects, and syncs a local-first entity graph
// against its remote source.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/geobrowser/geogenesis-sub006/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "geo: %v\n", err)
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(cli.ExitFailure)
	}
}
