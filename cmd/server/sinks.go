package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gridmind.ai/internal/persistence/indexdb"
	persistlog "gridmind.ai/internal/persistence/log"
	"gridmind.ai/internal/sim/world"
)

// openRuntimeIndex opens the sqlite read model under worldDir/index. It returns nil when
// disabled by flag or GM_INDEX_BACKEND=none.
func openRuntimeIndex(worldDir string, disabled bool) (*indexdb.SQLiteIndex, error) {
	if disabled {
		return nil, nil
	}
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("GM_INDEX_BACKEND")))
	switch backend {
	case "", "sqlite":
		return indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
	case "none", "off":
		return nil, nil
	default:
		return nil, errors.New("unsupported GM_INDEX_BACKEND: " + backend)
	}
}

type multiTickLogger struct {
	a *persistlog.TickLogger
	b *indexdb.SQLiteIndex
}

type multiFaultLogger struct {
	a *persistlog.FaultLogger
	b *indexdb.SQLiteIndex
}

func (m multiTickLogger) WriteTick(e world.TickLogEntry) error {
	var errs []error
	if m.a != nil {
		errs = append(errs, m.a.WriteTick(e))
	}
	if m.b != nil {
		errs = append(errs, m.b.WriteTick(e))
	}
	return errors.Join(errs...)
}

func (m multiFaultLogger) WriteFault(e world.FaultEntry) error {
	var errs []error
	if m.a != nil {
		errs = append(errs, m.a.WriteFault(e))
	}
	if m.b != nil {
		errs = append(errs, m.b.WriteFault(e))
	}
	return errors.Join(errs...)
}
