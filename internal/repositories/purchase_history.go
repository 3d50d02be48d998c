package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kasseapparat/internal/models"
)

// PurchaseHistoryRepository caches recent purchases in the local sqlite
// database so the till can show history across restarts and while offline.
// The server remains the source of truth; the cache is overwritten whenever
// a fresh server list arrives. Decimal amounts are stored as text so no
// precision is lost on the round trip.
type PurchaseHistoryRepository struct {
	db *sql.DB
}

// NewPurchaseHistoryRepository creates a new purchase history cache.
func NewPurchaseHistoryRepository(db *sql.DB) *PurchaseHistoryRepository {
	return &PurchaseHistoryRepository{db: db}
}

// Save writes or overwrites one cached purchase.
func (r *PurchaseHistoryRepository) Save(purchase *models.Purchase) error {
	lines, err := json.Marshal(purchase.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal purchase lines: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO purchases
			(id, created_at, payment_method, status, total_net_price, total_gross_price, total_vat_amount, lines)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		purchase.ID,
		purchase.CreatedAt,
		string(purchase.PaymentMethod),
		string(purchase.Status),
		purchase.TotalNetPrice.String(),
		purchase.TotalGrossPrice.String(),
		purchase.TotalVATAmount.String(),
		string(lines),
	)
	if err != nil {
		return fmt.Errorf("failed to cache purchase %d: %w", purchase.ID, err)
	}
	return nil
}

// ReplaceAll rewrites the cache with the given purchases in one
// transaction.
func (r *PurchaseHistoryRepository) ReplaceAll(purchases []*models.Purchase) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM purchases"); err != nil {
		return fmt.Errorf("failed to clear purchase cache: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO purchases
			(id, created_at, payment_method, status, total_net_price, total_gross_price, total_vat_amount, lines)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, purchase := range purchases {
		lines, err := json.Marshal(purchase.Lines)
		if err != nil {
			return fmt.Errorf("failed to marshal purchase lines: %w", err)
		}
		if _, err := stmt.Exec(
			purchase.ID,
			purchase.CreatedAt,
			string(purchase.PaymentMethod),
			string(purchase.Status),
			purchase.TotalNetPrice.String(),
			purchase.TotalGrossPrice.String(),
			purchase.TotalVATAmount.String(),
			string(lines),
		); err != nil {
			return fmt.Errorf("failed to cache purchase %d: %w", purchase.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit purchase cache: %w", err)
	}
	return nil
}

// List returns cached purchases, newest first.
func (r *PurchaseHistoryRepository) List(limit int) ([]*models.Purchase, error) {
	rows, err := r.db.Query(`
		SELECT id, created_at, payment_method, status, total_net_price, total_gross_price, total_vat_amount, lines
		FROM purchases
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase cache: %w", err)
	}
	defer rows.Close()

	var purchases []*models.Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
	}

	return purchases, rows.Err()
}

func scanPurchase(rows *sql.Rows) (*models.Purchase, error) {
	var (
		purchase  models.Purchase
		createdAt time.Time
		method    string
		status    string
		net       string
		gross     string
		vat       string
		lines     string
	)

	if err := rows.Scan(&purchase.ID, &createdAt, &method, &status, &net, &gross, &vat, &lines); err != nil {
		return nil, fmt.Errorf("failed to scan purchase: %w", err)
	}

	purchase.CreatedAt = createdAt
	purchase.PaymentMethod = models.PaymentMethod(method)
	purchase.Status = models.PurchaseStatus(status)

	var err error
	if purchase.TotalNetPrice, err = decimal.NewFromString(net); err != nil {
		return nil, fmt.Errorf("bad net price in cache: %w", err)
	}
	if purchase.TotalGrossPrice, err = decimal.NewFromString(gross); err != nil {
		return nil, fmt.Errorf("bad gross price in cache: %w", err)
	}
	if purchase.TotalVATAmount, err = decimal.NewFromString(vat); err != nil {
		return nil, fmt.Errorf("bad vat amount in cache: %w", err)
	}
	if err := json.Unmarshal([]byte(lines), &purchase.Lines); err != nil {
		return nil, fmt.Errorf("bad lines in cache: %w", err)
	}

	return &purchase, nil
}
