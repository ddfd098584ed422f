// Package history persists extraction results for auditing.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/daysupplynational/daysupply/schemas"
)

// Entry represents a single recorded extraction.
type Entry struct {
	ID                     string         `db:"id"`
	DrugName               string         `db:"drug_name"`
	MatchedName            sql.NullString `db:"matched_name"`
	Category               string         `db:"category"`
	Quantity               float64        `db:"quantity"`
	CorrectedQuantity      float64        `db:"corrected_quantity"`
	DaySupply              int            `db:"day_supply"`
	Directions             string         `db:"directions"`
	StandardizedDirections string         `db:"standardized_directions"`
	Confidence             float64        `db:"confidence"`
	Warnings               WarningList    `db:"warnings"`
	CreatedAt              time.Time      `db:"created_at"`
}

// WarningList stores warnings as a JSON array column.
type WarningList []string

func (w WarningList) Value() (driver.Value, error) {
	if w == nil {
		w = WarningList{}
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal(warnings) > %w", err)
	}
	return data, nil
}

func (w *WarningList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case []byte:
		return json.Unmarshal(v, w)
	case string:
		return json.Unmarshal([]byte(v), w)
	default:
		return fmt.Errorf("unsupported warnings column type %T", src)
	}
}

// Repository defines operations for recorded extractions.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	FindByDrugName(ctx context.Context, drugName string) ([]Entry, error)
}

// DBRepository implements Repository using MySQL.
type DBRepository struct {
	db *sqlx.DB
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

// Save inserts a new extraction record, assigning an ID when missing.
func (r *DBRepository) Save(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extractions (id, drug_name, matched_name, category, quantity, corrected_quantity,
			day_supply, directions, standardized_directions, confidence, warnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.DrugName, entry.MatchedName, entry.Category, entry.Quantity, entry.CorrectedQuantity,
		entry.DaySupply, entry.Directions, entry.StandardizedDirections, entry.Confidence, entry.Warnings,
		entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("db.ExecContext(insert extraction) > %w", err)
	}
	return nil
}

// ListRecent returns the most recent extraction records, newest first.
func (r *DBRepository) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries,
		"SELECT * FROM extractions ORDER BY created_at DESC LIMIT ?", limit); err != nil {
		return nil, fmt.Errorf("db.SelectContext(recent extractions) > %w", err)
	}
	return entries, nil
}

// FindByDrugName returns all records for a submitted drug name, newest first.
func (r *DBRepository) FindByDrugName(ctx context.Context, drugName string) ([]Entry, error) {
	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries,
		"SELECT * FROM extractions WHERE drug_name = ? ORDER BY created_at DESC",
		drugName); err != nil {
		return nil, fmt.Errorf("db.SelectContext(extractions by drug) > %w", err)
	}
	return entries, nil
}

// Migrate applies all embedded schema migrations in file name order.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	files, err := fs.ReadDir(schemas.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("fs.ReadDir(migrations) > %w", err)
	}
	for _, file := range files {
		statements, err := fs.ReadFile(schemas.Migrations, "migrations/"+file.Name())
		if err != nil {
			return fmt.Errorf("fs.ReadFile(%s) > %w", file.Name(), err)
		}
		if _, err := db.ExecContext(ctx, string(statements)); err != nil {
			return fmt.Errorf("db.ExecContext(%s) > %w", file.Name(), err)
		}
	}
	return nil
}
