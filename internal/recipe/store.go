package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store defines the interface for curated recipe catalog operations.
type Store interface {
	All(ctx context.Context) ([]CatalogEntry, error)
	Save(ctx context.Context, entry *CatalogEntry) error
}

// PostgresStore implements the Store interface for PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(dataSourceName string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS catalog_recipes (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		cuisine TEXT NOT NULL DEFAULT '',
		ingredients JSONB NOT NULL DEFAULT '[]',
		steps JSONB NOT NULL DEFAULT '[]',
		cooking_time INTEGER NOT NULL DEFAULT 0,
		difficulty TEXT NOT NULL DEFAULT '',
		nutrition JSONB NOT NULL DEFAULT '{}',
		servings INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create catalog_recipes table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close releases the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type catalogRow struct {
	ID          int64  `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Cuisine     string `db:"cuisine"`
	Ingredients []byte `db:"ingredients"`
	Steps       []byte `db:"steps"`
	CookingTime int    `db:"cooking_time"`
	Difficulty  string `db:"difficulty"`
	Nutrition   []byte `db:"nutrition"`
	Servings    int    `db:"servings"`
}

// All retrieves every curated recipe, ordered by id.
func (s *PostgresStore) All(ctx context.Context) ([]CatalogEntry, error) {
	var rows []catalogRow
	err := s.db.SelectContext(ctx, &rows, "SELECT id, title, description, cuisine, ingredients, steps, cooking_time, difficulty, nutrition, servings FROM catalog_recipes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog recipes: %w", err)
	}

	entries := make([]CatalogEntry, 0, len(rows))
	for _, r := range rows {
		e := CatalogEntry{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Cuisine:     r.Cuisine,
			CookingTime: r.CookingTime,
			Difficulty:  r.Difficulty,
			Servings:    r.Servings,
		}
		if err := json.Unmarshal(r.Ingredients, &e.Ingredients); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ingredients of %q: %w", r.Title, err)
		}
		if err := json.Unmarshal(r.Steps, &e.Steps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal steps of %q: %w", r.Title, err)
		}
		if err := json.Unmarshal(r.Nutrition, &e.Nutrition); err != nil {
			return nil, fmt.Errorf("failed to unmarshal nutrition of %q: %w", r.Title, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Save inserts the entry, or updates the existing entry with the same title.
func (s *PostgresStore) Save(ctx context.Context, entry *CatalogEntry) error {
	ingredientsJSON, err := json.Marshal(entry.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredients: %w", err)
	}
	stepsJSON, err := json.Marshal(entry.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}
	nutritionJSON, err := json.Marshal(entry.Nutrition)
	if err != nil {
		return fmt.Errorf("failed to marshal nutrition: %w", err)
	}

	err = s.db.QueryRowxContext(ctx,
		"INSERT INTO catalog_recipes (title, description, cuisine, ingredients, steps, cooking_time, difficulty, nutrition, servings) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (title) DO UPDATE SET description = $2, cuisine = $3, ingredients = $4, steps = $5, cooking_time = $6, difficulty = $7, nutrition = $8, servings = $9 RETURNING id",
		entry.Title,
		entry.Description,
		entry.Cuisine,
		ingredientsJSON,
		stepsJSON,
		entry.CookingTime,
		entry.Difficulty,
		nutritionJSON,
		entry.Servings,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to save catalog recipe: %w", err)
	}
	return nil
}

// FileStore is a read-mostly catalog loaded from a JSON file.
type FileStore struct {
	mu      sync.RWMutex
	entries []CatalogEntry
}

// ErrCatalogNotFound is returned by LoadFileStore when the file is missing.
var ErrCatalogNotFound = errors.New("recipe catalog file not found")

// LoadFileStore reads the catalog from path. The returned store is always
// usable: on error it is empty.
func LoadFileStore(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &FileStore{}, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return &FileStore{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var entries []CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return &FileStore{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &FileStore{entries: entries}, nil
}

// All returns a copy of the loaded entries.
func (s *FileStore) All(_ context.Context) ([]CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CatalogEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Save appends the entry, replacing one with the same title. It does not
// write back to disk.
func (s *FileStore) Save(_ context.Context, entry *CatalogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].Title == entry.Title {
			entry.ID = s.entries[i].ID
			s.entries[i] = *entry
			return nil
		}
	}
	entry.ID = int64(len(s.entries) + 1)
	s.entries = append(s.entries, *entry)
	return nil
}

// Seed copies every entry of src into dst when dst is empty. It returns the
// number of entries written.
func Seed(ctx context.Context, dst, src Store) (int, error) {
	existing, err := dst.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	entries, err := src.All(ctx)
	if err != nil {
		return 0, err
	}
	for i := range entries {
		entries[i].ID = 0
		if err := dst.Save(ctx, &entries[i]); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}
