// possync-client exercises a running sync server the way the mobile
// companion does.
//
//	go run ./cmd/possync-client -server http://192.168.1.10:3001 pair
//	go run ./cmd/possync-client -server ... -key <apiKey> pull
//	go run ./cmd/possync-client -server ... -key <apiKey> push ops.json
//	go run ./cmd/possync-client -server ... -key <apiKey> history
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mmdatafocus/pos_sync/possync"
)

func main() {
	server := flag.String("server", "http://localhost:3001", "Sync server base url")
	apiKey := flag.String("key", os.Getenv("POS_SYNC_API_KEY"), "API key from the pairing config")
	limit := flag.Int("limit", possync.DefaultHistoryLimit, "Optional: number of history entries")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: possync-client [flags] pair|pull|push <file>|history")
		os.Exit(1)
	}

	client, err := possync.NewClient(*server, *apiKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var out any
	switch flag.Arg(0) {
	case "pair":
		out, err = client.Pair(ctx)
	case "pull":
		out, err = client.Pull(ctx)
	case "push":
		var ops []possync.Operation
		ops, err = readOperations(flag.Arg(1))
		if err == nil {
			out, err = client.Push(ctx, ops)
		}
	case "history":
		out, err = client.History(ctx, *limit)
	default:
		err = fmt.Errorf("unknown command %q", flag.Arg(0))
	}

	if out != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readOperations(path string) ([]possync.Operation, error) {
	if path == "" {
		return nil, fmt.Errorf("push needs a file with a JSON array of operations")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return possync.ParseOperations(data)
}
