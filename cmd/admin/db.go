package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

type queryOpts struct {
	Limit    int
	Creature string
	Frame    uint64
}

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	creatureID := fs.String("creature", "", "creature filter (minds, faults)")
	frame := fs.Uint64("frame", 0, "frame filter (minds)")
	_ = fs.Parse(args)

	q := "frames"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runQuery(db, q, queryOpts{Limit: *limit, Creature: *creatureID, Frame: *frame}, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
}

// runQuery prints one JSON object per row of the named query, newest first.
func runQuery(db *sql.DB, q string, opt queryOpts, out io.Writer) error {
	if opt.Limit <= 0 {
		opt.Limit = 20
	}
	var (
		stmt string
		args []any
	)
	switch q {
	case "frames":
		stmt = `SELECT frame,now_ms,agents,updated,spawned,killed,plans_served,plans_failed FROM frames ORDER BY frame DESC LIMIT ?`
		args = []any{opt.Limit}
	case "minds":
		stmt = `SELECT frame,creature,COALESCE(task,''),COALESCE(priority,''),COALESCE(act_path,''),COALESCE(last_failure,''),pending,failed FROM minds WHERE (?='' OR creature=?) AND (?=0 OR frame=?) ORDER BY frame DESC, creature LIMIT ?`
		args = []any{opt.Creature, opt.Creature, opt.Frame, opt.Frame, opt.Limit}
	case "faults":
		stmt = `SELECT frame,seq,now_ms,creature,class,COALESCE(task,''),COALESCE(act,''),value FROM faults WHERE (?='' OR creature=?) ORDER BY frame DESC, seq DESC LIMIT ?`
		args = []any{opt.Creature, opt.Creature, opt.Limit}
	case "catalogs":
		stmt = `SELECT name,digest FROM catalogs ORDER BY name LIMIT ?`
		args = []any{opt.Limit}
	default:
		return fmt.Errorf("unknown query: %s (want frames|minds|faults|catalogs)", q)
	}

	rows, err := db.Query(stmt, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		rec := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				rec[c] = string(b)
				continue
			}
			rec[c] = vals[i]
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}
