package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pleb-devs/pleb-wallet-backend/cursor"
)

type config struct {
	CursorFilePath string `envconfig:"CURSOR_FILE_PATH" default:"data/cursor.db"`
}

// Operator tool to inspect the subscription resume point, or to advance it
// past an event that can never be applied. Watermarks only move forward; to
// force a full replay, stop the server and delete the cursor file instead.
func main() {
	addIndex := flag.Uint64("advance-add-index", 0, "advance the add_index watermark to this value")
	settleIndex := flag.Uint64("advance-settle-index", 0, "advance the settle_index watermark to this value")
	flag.Parse()

	c := &config{}
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	store, err := cursor.OpenBoltStore(c.CursorFilePath)
	if err != nil {
		log.Fatalf("Error opening cursor store at %s: %v", c.CursorFilePath, err)
	}
	defer store.Close()

	current, err := store.Load()
	if err != nil {
		log.Fatalf("Error loading cursor: %v", err)
	}
	fmt.Printf("cursor file:  %s\n", c.CursorFilePath)
	fmt.Printf("add_index:    %d\n", current.AddIndex)
	fmt.Printf("settle_index: %d\n", current.SettleIndex)

	if *addIndex == 0 && *settleIndex == 0 {
		return
	}
	err = store.Save(cursor.Cursor{AddIndex: *addIndex, SettleIndex: *settleIndex})
	if err != nil {
		log.Fatalf("Error saving cursor: %v", err)
	}
	updated, err := store.Load()
	if err != nil {
		log.Fatalf("Error loading cursor: %v", err)
	}
	fmt.Printf("advanced to add_index:%d settle_index:%d\n", updated.AddIndex, updated.SettleIndex)
}
