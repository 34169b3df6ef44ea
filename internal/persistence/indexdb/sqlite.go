package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"gridmind.ai/internal/sim/catalogs"
	"gridmind.ai/internal/sim/tuning"
	"gridmind.ai/internal/sim/world"
)

const (
	defaultQueueSize = 65536
	commitEvery      = 2000
	commitMaxWait    = 2 * time.Second
)

// SQLiteIndex is a secondary, queryable index of the frame and fault logs. Writes are
// queued to a single writer goroutine and dropped when it falls behind.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropFrames atomic.Uint64
	dropFaults atomic.Uint64
	written    atomic.Uint64
}

type reqKind int

const (
	reqFrame reqKind = iota + 1
	reqFault
)

type req struct {
	kind reqKind

	frame world.TickLogEntry
	fault world.FaultEntry
}

type Stats struct {
	QueueDepth       int    `json:"queue_depth"`
	QueueCapacity    int    `json:"queue_capacity"`
	DropFrameTotal   uint64 `json:"drop_frame_total"`
	DropFaultTotal   uint64 `json:"drop_fault_total"`
	WrittenRowsTotal uint64 `json:"written_rows_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, defaultQueueSize),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS frames (
			frame INTEGER PRIMARY KEY,
			now_ms INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			updated INTEGER NOT NULL,
			spawned INTEGER NOT NULL,
			killed INTEGER NOT NULL,
			plans_served INTEGER NOT NULL,
			plans_failed INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS minds (
			frame INTEGER NOT NULL,
			creature TEXT NOT NULL,
			task TEXT,
			priority TEXT,
			act_path TEXT,
			last_failure TEXT,
			pending INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			PRIMARY KEY (frame, creature)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_minds_creature_frame ON minds(creature, frame);`,
		`CREATE TABLE IF NOT EXISTS faults (
			frame INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			now_ms INTEGER NOT NULL,
			creature TEXT NOT NULL,
			class TEXT NOT NULL,
			task TEXT,
			act TEXT,
			value TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (frame, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_faults_creature_frame ON faults(creature, frame);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqFrame, frame: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropFrames.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteFault(entry world.FaultEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqFault, fault: entry}:
	default:
		s.dropFaults.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:       len(s.ch),
		QueueCapacity:    cap(s.ch),
		DropFrameTotal:   s.dropFrames.Load(),
		DropFaultTotal:   s.dropFaults.Load(),
		WrittenRowsTotal: s.written.Load(),
	}
}

// UpsertCatalogs stores the catalogs and tuning the world runs with.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	read := func(name, file, digest string) {
		if configDir == "" {
			return
		}
		if b, err := os.ReadFile(filepath.Join(configDir, file)); err == nil {
			rows = append(rows, kv{name: name, digest: digest, json: b})
		}
	}
	read("blocks_defs", "blocks.json", cats.Blocks.DefsDigest)
	read("creatures", "creatures.json", cats.Creatures.Digest)
	if b, _ := json.Marshal(cats.Blocks.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_palette", digest: cats.Blocks.PaletteDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Creatures.Registry.Names()); len(b) > 0 {
		rows = append(rows, kv{name: "creature_classes", digest: cats.Creatures.Digest, json: b})
	}
	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertFrame, _ := s.db.Prepare(`INSERT OR REPLACE INTO frames(frame,now_ms,agents,updated,spawned,killed,plans_served,plans_failed) VALUES(?,?,?,?,?,?,?,?)`)
	insertMind, _ := s.db.Prepare(`INSERT OR REPLACE INTO minds(frame,creature,task,priority,act_path,last_failure,pending,failed) VALUES(?,?,?,?,?,?,?,?)`)
	insertFault, _ := s.db.Prepare(`INSERT OR REPLACE INTO faults(frame,seq,now_ms,creature,class,task,act,value,raw_json) VALUES(?,?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertFrame, insertMind, insertFault} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx         *sql.Tx
		opCount    int
		lastCommit = time.Now()

		lastFaultFrame uint64
		faultSeq       int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err == nil {
			s.written.Add(uint64(opCount))
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqFrame:
			f := r.frame
			if insertFrame != nil {
				if _, err := tx.Stmt(insertFrame).Exec(
					int64(f.Frame),
					f.NowMS,
					f.Agents,
					f.Updated,
					len(f.Spawned),
					len(f.Killed),
					int64(f.Plans.Served),
					int64(f.Plans.Failed),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for _, m := range f.Minds {
				if insertMind == nil {
					break
				}
				if _, err := tx.Stmt(insertMind).Exec(int64(f.Frame), m.Creature, m.Task, m.Priority, m.ActPath, m.LastFailure, m.Pending, m.Failed); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqFault:
			e := r.fault
			if e.Frame != lastFaultFrame {
				lastFaultFrame = e.Frame
				faultSeq = 0
			}
			seq := faultSeq
			faultSeq++
			raw, _ := json.Marshal(e)
			if insertFault != nil {
				if _, err := tx.Stmt(insertFault).Exec(
					int64(e.Frame),
					seq,
					e.NowMS,
					e.Creature,
					e.Class,
					e.Task,
					e.Act,
					e.Value,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
