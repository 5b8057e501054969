package cli

import (
	"context"
	"fmt"

	"github.com/geobrowser/geogenesis-sub006/internal/events"
	"github.com/geobrowser/geogenesis-sub006/internal/persist"
	"github.com/geobrowser/geogenesis-sub006/internal/remote"
	"github.com/geobrowser/geogenesis-sub006/internal/store"
	geosync "github.com/geobrowser/geogenesis-sub006/internal/sync"
)

// app wires the components a command needs for one invocation. Construct at
// command start, close when done.
type app struct {
	stream   *events.Stream
	entities *store.EntityStore
	db       *persist.Store
	bridge   *persist.Bridge
	engine   *geosync.Engine
}

// newApp builds the component graph from the global flags. With --db set,
// unpublished local edits from previous sessions are restored before the
// command runs. With --remote set, a sync engine is available for one-shot
// reconciliation.
func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	a := &app{stream: events.NewStream()}
	a.entities = store.NewEntityStore(a.stream)

	if opts.DBPath != "" {
		db, err := persist.Open(opts.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		a.db = db
		a.bridge = persist.NewBridge(a.entities, db)
		if err := a.bridge.Restore(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("restore local edits: %w", err)
		}
	}

	if opts.RemoteURL != "" {
		a.engine = geosync.NewEngine(a.entities, remote.NewClient(opts.RemoteURL))
	}

	return a, nil
}

// close tears the app down in reverse construction order.
func (a *app) close() {
	if a.engine != nil {
		a.engine.Stop()
	}
	if a.bridge != nil {
		a.bridge.Stop()
	}
	if a.db != nil {
		a.db.Close()
	}
	a.entities.Close()
}
