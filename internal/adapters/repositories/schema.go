package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/platform/db"
	"os"
	"strings"
)

// Initialize the node catalog schema. The DDL is portable across the
// SQLite and PostgreSQL drivers.
func InitSchema(conn *sql.DB) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createNodesQuery := `
	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL
	);
	`

	createTitleIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_nodes_title ON nodes(title);
	`

	statements := []string{
		createNodesQuery,
		createTitleIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type NodeSeed struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// Populate the catalog with node data from a JSON file. Existing rows with
// the same id are replaced.
func SeedFromJSON(conn *sql.DB, driver, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed nodes: read %q: %w", jsonPath, err)
	}

	var data []NodeSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed nodes: parse json: %w", err)
	}

	rows := make([]NodeSeed, 0, len(data))
	for i, item := range data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return fmt.Errorf("seed nodes: item at index %d: id cannot be empty", i+1)
		}

		loc := domain.Coordinates{Lat: item.Lat, Lon: item.Lon}
		if !loc.Valid() {
			return fmt.Errorf("seed nodes: item %q: coordinates out of range", id)
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = id
		}
		rows = append(rows, NodeSeed{ID: id, Title: title, Lat: item.Lat, Lon: item.Lon})
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("seed nodes: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := rebind(driver, `
	INSERT INTO nodes (id, title, lat, lon)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`)
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed nodes: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range rows {
		if _, err := stmt.Exec(n.ID, n.Title, n.Lat, n.Lon); err != nil {
			return fmt.Errorf("seed nodes: insert id=%q: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed nodes: commit tx: %w", err)
	}

	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func rebind(driver, query string) string {
	if driver != db.DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
