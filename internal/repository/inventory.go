package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/cerevyn/internal/apperr"
	"github.com/atinyakov/cerevyn/internal/models"
)

const itemColumns = `id, owner_id, name, category, quantity, unit, planted_date, harvest_date, status, created_at, updated_at`

// PostgresInventoryRepository implements owner-scoped inventory storage against PostgreSQL.
// Every statement carries the owner predicate; callers never fetch by id alone.
type PostgresInventoryRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresInventoryRepository creates a new PostgresInventoryRepository using the provided *sql.DB.
func NewPostgresInventoryRepository(db *sql.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{DB: db}
}

// CreateItem inserts item as given; OwnerID must already be stamped.
func (r *PostgresInventoryRepository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO inventory_items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		item.ID, item.OwnerID, item.Name, string(item.Category), item.Quantity, string(item.Unit),
		item.PlantedDate.Time, nullableDate(item.HarvestDate), string(item.Status),
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateItem: %w", err)
	}
	return nil
}

// ListItems returns every item owned by ownerID, newest first.
func (r *PostgresInventoryRepository) ListItems(ctx context.Context, ownerID string) ([]models.InventoryItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListItems: %w", err)
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListItems: %w", err)
	}
	return items, nil
}

// SummarizeItems counts ownerID's items and sums their quantities normalized to kilograms.
func (r *PostgresInventoryRepository) SummarizeItems(ctx context.Context, ownerID string) (models.Summary, error) {
	var s models.Summary
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(quantity * CASE unit
		           WHEN 'quintals' THEN 100
		           WHEN 'tons' THEN 1000
		           ELSE 1 END), 0)
		FROM inventory_items WHERE owner_id = $1
	`, ownerID).Scan(&s.TotalCrops, &s.TotalQuantity)
	if err != nil {
		return models.Summary{}, fmt.Errorf("SummarizeItems: %w", err)
	}
	return s, nil
}

// UpdateItem applies patch to the item matching both itemID and ownerID and
// returns the stored result. A miss on either predicate yields apperr.ErrNotFound.
func (r *PostgresInventoryRepository) UpdateItem(
	ctx context.Context,
	ownerID, itemID string,
	patch models.ItemPatch,
	updatedAt time.Time,
) (*models.InventoryItem, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE inventory_items SET
			name         = COALESCE($3, name),
			category     = COALESCE($4, category),
			quantity     = COALESCE($5, quantity),
			unit         = COALESCE($6, unit),
			planted_date = COALESCE($7, planted_date),
			harvest_date = CASE WHEN $11 THEN NULL ELSE COALESCE($8, harvest_date) END,
			status       = COALESCE($9, status),
			updated_at   = $10
		WHERE id = $1 AND owner_id = $2
		RETURNING `+itemColumns,
		itemID, ownerID,
		nullableString(patch.Name), nullableString(patch.Category), nullableFloat(patch.Quantity),
		nullableString(patch.Unit), nullableDate(patch.PlantedDate), nullableDate(patch.HarvestDate),
		nullableString(patch.Status), updatedAt, patch.ClearHarvestDate,
	)
	item, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("UpdateItem: %w", err)
	}
	return item, nil
}

// DeleteItem removes the item matching both itemID and ownerID.
func (r *PostgresInventoryRepository) DeleteItem(ctx context.Context, ownerID, itemID string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM inventory_items WHERE id = $1 AND owner_id = $2`,
		itemID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("DeleteItem: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteItem: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func scanItem(row rowScanner) (*models.InventoryItem, error) {
	var (
		item    models.InventoryItem
		harvest sql.NullTime
	)
	err := row.Scan(
		&item.ID, &item.OwnerID, &item.Name, &item.Category, &item.Quantity, &item.Unit,
		&item.PlantedDate.Time, &harvest, &item.Status, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if harvest.Valid {
		item.HarvestDate = &models.Date{Time: harvest.Time}
	}
	return &item, nil
}

func nullableString[T ~string](p *T) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func nullableFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableDate(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}
