package context

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Cache is the incremental-compile cache: it mirrors the TypeRegistry
// and JsonAotRegistry keyed by a content hash of each module, so a
// repeated CLI invocation over an unchanged module tree can skip
// re-resolution (spec_full §3). It never changes emitted output, only
// whether resolution work is repeated.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if necessary) the on-disk cache database
// at path, using the pure-Go modernc.org/sqlite driver the way the
// teacher pulls it in for internal/ext's local-package introspection
// cache.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening compile cache %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS modules (
	path TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	resolved_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS json_aot_types (
	module_path TEXT NOT NULL,
	type_name TEXT NOT NULL,
	PRIMARY KEY (module_path, type_name)
);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing compile cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Fresh reports whether modulePath's cached content hash matches
// contentHash — if so, resolution for that module can be skipped.
func (c *Cache) Fresh(modulePath, contentHash string) (bool, error) {
	var stored string
	err := c.db.QueryRow(`SELECT content_hash FROM modules WHERE path = ?`, modulePath).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying compile cache for %s: %w", modulePath, err)
	}
	return stored == contentHash, nil
}

// Record stores a module's content hash and the JSON-AOT type set
// resolved against it, as of resolvedAtUnix (a Unix timestamp supplied
// by the caller rather than read internally, keeping this package free
// of wall-clock calls).
func (c *Cache) Record(modulePath, contentHash string, resolvedAtUnix int64, jsonAotTypes []string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning compile cache transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO modules (path, content_hash, resolved_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET content_hash = excluded.content_hash, resolved_at = excluded.resolved_at`,
		modulePath, contentHash, resolvedAtUnix,
	); err != nil {
		return fmt.Errorf("recording module %s in compile cache: %w", modulePath, err)
	}

	if _, err := tx.Exec(`DELETE FROM json_aot_types WHERE module_path = ?`, modulePath); err != nil {
		return fmt.Errorf("clearing json-aot types for %s: %w", modulePath, err)
	}
	for _, t := range jsonAotTypes {
		if _, err := tx.Exec(`INSERT INTO json_aot_types (module_path, type_name) VALUES (?, ?)`, modulePath, t); err != nil {
			return fmt.Errorf("recording json-aot type %s for %s: %w", t, modulePath, err)
		}
	}
	return tx.Commit()
}

// JsonAotTypes returns the cached JSON-AOT type set for modulePath.
func (c *Cache) JsonAotTypes(modulePath string) ([]string, error) {
	rows, err := c.db.Query(`SELECT type_name FROM json_aot_types WHERE module_path = ?`, modulePath)
	if err != nil {
		return nil, fmt.Errorf("querying json-aot types for %s: %w", modulePath, err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}
