// Command framelog summarizes the frame and fault logs a server wrote under
// <data>/worlds/<id>/{frames,faults}.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "gridmind.ai/internal/persistence/log"
	"gridmind.ai/internal/sim/world"
)

func main() {
	var (
		worldDir  = flag.String("world_dir", "", "world data dir containing frames/ and faults/")
		fromFrame = flag.Uint64("from_frame", 0, "skip frames before this one (optional)")
		toFrame   = flag.Uint64("to_frame", 0, "stop after this frame (inclusive, optional)")
		top       = flag.Int("top", 10, "rows to print per table")
	)
	flag.Parse()

	if *worldDir == "" {
		fmt.Fprintln(os.Stderr, "missing -world_dir")
		os.Exit(2)
	}

	s := newSummary()
	files, err := listLogFiles(filepath.Join(*worldDir, "frames"), "frames-")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list frames:", err)
		os.Exit(1)
	}
	for _, path := range files {
		entries, err := persistlog.ReadJSONL[world.TickLogEntry](path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read frames:", err)
			os.Exit(1)
		}
		for _, e := range entries {
			if e.Frame < *fromFrame || (*toFrame != 0 && e.Frame > *toFrame) {
				continue
			}
			s.addFrame(e)
		}
	}

	faultFiles, err := listLogFiles(filepath.Join(*worldDir, "faults"), "faults-")
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "list faults:", err)
		os.Exit(1)
	}
	for _, path := range faultFiles {
		entries, err := persistlog.ReadJSONL[world.FaultEntry](path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read faults:", err)
			os.Exit(1)
		}
		for _, e := range entries {
			s.addFault(e)
		}
	}

	s.print(os.Stdout, *top)
}

func listLogFiles(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}
