// seed-admin creates the collection files and the first admin user of a
// fresh data directory so the desktop shell can log in.
//
// Usage (from the repository root):
//
//	POS_DATA_DIR=./data go run ./cmd/seed-admin -name "Shop Admin" -pin 1234
//
// Running it twice is safe: an existing user with the same id is left alone.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/pos_sync/config"
	"github.com/mmdatafocus/pos_sync/models"
	"github.com/mmdatafocus/pos_sync/possync"
)

const (
	defaultAdminID   = "admin"
	defaultAdminName = "Admin"
)

func main() {
	userID := flag.String("id", defaultAdminID, "Optional: user id")
	name := flag.String("name", defaultAdminName, "Optional: display name; the username is derived from it")
	pin := flag.String("pin", "", "Optional: login pin stored on the user record")
	flag.Parse()

	if strings.TrimSpace(*userID) == "" {
		fmt.Fprintln(os.Stderr, "--id must not be empty")
		os.Exit(1)
	}

	ctx := context.Background()
	settings := config.LoadSettings()
	store := models.NewStore(settings.DataDir, nil)
	if err := store.EnsureCollections(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare data dir %s: %v\n", settings.DataDir, err)
		os.Exit(1)
	}

	user := models.Record{
		"id":   strings.TrimSpace(*userID),
		"name": strings.TrimSpace(*name),
		"role": "admin",
	}
	if p := strings.TrimSpace(*pin); p != "" {
		user["pin"] = p
	}

	svc := possync.NewService(store)
	res, err := svc.Apply(ctx, possync.Operation{Type: possync.OpAddUser, Data: user})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed admin: %v\n", err)
		os.Exit(1)
	}

	switch res.Status {
	case possync.ResultApplied:
		fmt.Printf("admin user %q created in %s\n", *userID, store.Path(models.CollectionUsers))
	default:
		fmt.Printf("admin user %q not created (%s)\n", *userID, res.Reason)
	}
}
