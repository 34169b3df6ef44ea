package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(endpoint(*baseURL, "state"))
	finish(resp, err)
}

func taskCmd(args []string) {
	fs := flag.NewFlagSet("task", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	kind := fs.String("kind", "MOVE_TO", "MOVE_TO|MINE|PLACE|SLEEP|IDLE")
	at := fs.String("at", "", "target cell x,y,z")
	block := fs.String("block", "", "block id for PLACE")
	creatureID := fs.String("creature", "", "creature id (empty: primary faction pool)")
	_ = fs.Parse(args)

	body := map[string]any{"kind": *kind}
	if *at != "" {
		v, err := parseCell(*at)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -at:", err)
			os.Exit(2)
		}
		body["at"] = v
	}
	if *block != "" {
		body["block"] = *block
	}
	if *creatureID != "" {
		body["creature"] = *creatureID
	}
	postJSON(endpoint(*baseURL, "tasks"), body)
}

func spawnCmd(args []string) {
	fs := flag.NewFlagSet("spawn", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	class := fs.String("class", "", "creature class")
	at := fs.String("at", "", "cell x,y,z")
	_ = fs.Parse(args)

	v, err := parseCell(*at)
	if err != nil || *class == "" {
		fmt.Fprintln(os.Stderr, "need -class and -at x,y,z")
		os.Exit(2)
	}
	postJSON(endpoint(*baseURL, "spawn"), map[string]any{"class": *class, "at": v})
}

func killCmd(args []string) {
	fs := flag.NewFlagSet("kill", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	id := fs.String("id", "", "creature id")
	reassign := fs.Bool("reassign", true, "return the creature's task to the pool")
	_ = fs.Parse(args)

	if *id == "" {
		fmt.Fprintln(os.Stderr, "missing -id")
		os.Exit(2)
	}
	postJSON(endpoint(*baseURL, "kill"), map[string]any{"id": *id, "reassign": *reassign})
}

func endpoint(base, name string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + "/admin/v1/" + name
}

func postJSON(u string, body any) {
	b, _ := json.Marshal(body)
	cl := &http.Client{Timeout: 10 * time.Second}
	resp, err := cl.Post(u, "application/json", bytes.NewReader(b))
	finish(resp, err)
}

func finish(resp *http.Response, err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}

func parseCell(s string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("want x,y,z got %q", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, err
		}
		out[i] = n
	}
	return out, nil
}
