package main

import (
	"database/sql"
	"flag"
	"heritage-route-service/internal/adapters/repositories"
	"heritage-route-service/internal/config"
	"heritage-route-service/internal/platform/db"
	"log"
)

// dbtool initializes the node catalog schema and seeds it from JSON.
func main() {
	config.LoadDotEnv()

	databaseURL := flag.String("db", config.Get("DATABASE_URL", "data/app.db"), "database DSN (postgres URL or SQLite path)")
	seedPath := flag.String("seed", config.Get("SEED_PATH", "data/seeds/nodes.json"), "node seed file")
	flag.Parse()

	conn, err := db.Open(*databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := initAndSeed(conn, db.Driver(*databaseURL), *seedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(conn *sql.DB, driver, seedPath string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	log.Printf("Seeding database from %s...", seedPath)
	if err := repositories.SeedFromJSON(conn, driver, seedPath); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")

	return nil
}
