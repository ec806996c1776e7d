package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/rl1809/things-api/internal/adapter/storage"
	"github.com/rl1809/things-api/internal/config"
	"github.com/rl1809/things-api/internal/core/domain"
	"github.com/rl1809/things-api/internal/core/service"
	"github.com/rl1809/things-api/internal/port"
)

// Sample catalog loaded through the full create pipeline, so seeded
// documents get the same consolidation, validation and 99-cent pricing as
// API writes.
var sampleThings = []string{
	`{
		"name": "A history of Carlo Rossi",
		"category": "books",
		"description": "A fantastic book about everyone's favourite wine",
		"available": "2024-08-16",
		"price": 10.25,
		"stock": [
			{"warehouse": "baltimore", "quantity": 11},
			{"warehouse": "baltimore", "quantity": 11}
		]
	}`,
	`{
		"name": "Carlo Rossi Sweet Red",
		"category": "wine",
		"description": "Jug wine classic, serve chilled",
		"available": "2024-09-01",
		"price": 12.50,
		"stock": [
			{"warehouse": "baltimore", "quantity": 40},
			{"warehouse": "portland", "quantity": 15}
		]
	}`,
	`{
		"name": "Corkscrew, waiter style",
		"category": "accessories",
		"available": "2024-07-01",
		"price": 6.20,
		"stock": [
			{"warehouse": "portland", "quantity": 120}
		]
	}`,
	`{
		"name": "Decanter, hand blown",
		"category": "accessories",
		"description": "Lead-free crystal decanter",
		"available": "2025-01-15",
		"price": 48.00,
		"stock": [
			{"warehouse": "baltimore", "quantity": 7},
			{"warehouse": "chicago", "quantity": 3}
		]
	}`,
}

func main() {
	ctx := context.Background()
	cfg := config.Load()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.Store, err)
	}
	defer store.Close()

	things := service.NewThingService(store)

	for _, doc := range sampleThings {
		var in domain.ThingInput
		if err := json.Unmarshal([]byte(doc), &in); err != nil {
			log.Fatalf("bad sample document: %v", err)
		}

		res := things.Create(ctx, in)
		if !res.OK() {
			log.Fatalf("seed %q failed: %s", *in.Name, res.Message)
		}
		created := res.Items[0]
		log.Printf("seeded %q as id %d (price %s)", created.Name, created.ID, created.Price)
	}

	log.Printf("seeded %d things into the %s store", len(sampleThings), cfg.Store)
}

func openStore(ctx context.Context, cfg config.Config) (port.DocumentStore, error) {
	if cfg.Store == "mysql" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		db.SetConnMaxLifetime(time.Minute)
		if err := db.PingContext(ctx); err != nil {
			return nil, err
		}
		return storage.NewMySQLStore(db), nil
	}
	return storage.NewBadgerStore(storage.BadgerOptions{Path: cfg.DataDir})
}
