// ABOUTME: Copies listing documents between the SQLite and Charm KV backends
// ABOUTME: Provides dry-run and backup options and keeps document timestamps

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harperreed/rentdesk/charm"
	"github.com/harperreed/rentdesk/db"
	"github.com/harperreed/rentdesk/docstore"
)

const (
	toCharm  = "to-charm"
	toSQLite = "to-sqlite"
)

type source interface {
	docstore.Exporter
}

type target interface {
	docstore.Importer
}

func main() {
	dbPath := flag.String("db", "", "Path to database file (required)")
	direction := flag.String("direction", toCharm, "Copy direction: to-charm or to-sqlite")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup of the database before writing to it")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Error: -db flag is required")
	}
	if *direction != toCharm && *direction != toSQLite {
		log.Fatalf("Error: unknown direction %q", *direction)
	}

	if err := migrate(context.Background(), *dbPath, *direction, *dryRun, *backup); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func migrate(ctx context.Context, dbPath, direction string, dryRun, createBackup bool) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	if createBackup && !dryRun && direction == toSQLite {
		if err := backupFile(dbPath); err != nil {
			return err
		}
	}

	database, err := db.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	client, err := charm.GetClient()
	if err != nil {
		return fmt.Errorf("failed to connect to charm: %w", err)
	}

	sqliteStore := db.NewDocumentStore(database)
	charmStore := charm.NewDocStore(client)

	var from source = sqliteStore
	var to target = charmStore
	if direction == toSQLite {
		from, to = charmStore, sqliteStore
	}

	count, err := copyDocuments(ctx, from, to, dryRun)
	if err != nil {
		return err
	}

	if dryRun {
		log.Printf("[DRY RUN] Would copy %d documents (%s)", count, direction)
		return nil
	}
	log.Printf("Copied %d documents (%s)", count, direction)

	if direction == toCharm {
		if err := client.Sync(); err != nil {
			return fmt.Errorf("failed to sync charm: %w", err)
		}
	}
	return nil
}

// copyDocuments imports every document from src into dst and returns how
// many it handled.
func copyDocuments(ctx context.Context, src source, dst target, dryRun bool) (int, error) {
	docs, err := src.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to export documents: %w", err)
	}

	for _, doc := range docs {
		if dryRun {
			log.Printf("[DRY RUN] - %s", doc.Path)
			continue
		}
		if err := dst.Import(ctx, doc); err != nil {
			return 0, err
		}
	}
	return len(docs), nil
}

func backupFile(path string) error {
	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	log.Printf("Creating backup: %s", backupPath)

	input, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}
	if err := os.WriteFile(backupPath, input, 0600); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	log.Printf("Backup created successfully")
	return nil
}
