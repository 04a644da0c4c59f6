package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/indikaara/storefront/pkg/database"
	apperrors "github.com/indikaara/storefront/pkg/errors"

	"github.com/indikaara/storefront/internal/domain"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order and its product lines atomically within a
// transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	shippingJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	orderQuery := `
		INSERT INTO orders (id, txnid, user_id, total_price, currency, shipping_address, paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.TxnID,
		o.UserID,
		o.TotalPrice,
		o.Currency,
		shippingJSON,
		o.Paid,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	lineQuery := `
		INSERT INTO order_lines (order_id, product_id, title, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)`

	for _, line := range o.Lines {
		_, err = tx.Exec(ctx, lineQuery,
			o.ID,
			line.ProductID,
			line.Title,
			line.UnitPrice,
			line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByTxnID retrieves an order by its transaction identifier, eagerly
// loading its product lines in a single query via LEFT JOIN + JSONB_AGG.
func (r *OrderRepository) GetByTxnID(ctx context.Context, txnid string) (*domain.Order, error) {
	query := `
		SELECT
			o.id, o.txnid, o.user_id, o.total_price, o.currency,
			o.shipping_address, o.paid, o.created_at, o.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'product_id', ol.product_id,
						'title', ol.title,
						'unit_price', ol.unit_price,
						'quantity', ol.quantity
					) ORDER BY ol.id
				) FILTER (WHERE ol.id IS NOT NULL),
				'[]'::jsonb
			) AS lines
		FROM orders o
		LEFT JOIN order_lines ol ON o.id = ol.order_id
		WHERE o.txnid = $1
		GROUP BY o.id, o.txnid, o.user_id, o.total_price, o.currency,
			o.shipping_address, o.paid, o.created_at, o.updated_at`

	var (
		o            domain.Order
		shippingJSON []byte
		linesJSON    []byte
	)

	err := r.pool.QueryRow(ctx, query, txnid).Scan(
		&o.ID,
		&o.TxnID,
		&o.UserID,
		&o.TotalPrice,
		&o.Currency,
		&shippingJSON,
		&o.Paid,
		&o.CreatedAt,
		&o.UpdatedAt,
		&linesJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", txnid)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if len(shippingJSON) > 0 && string(shippingJSON) != "null" {
		if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
	}

	if len(linesJSON) > 0 && string(linesJSON) != "null" && string(linesJSON) != "[]" {
		if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal order lines: %w", err)
		}
	} else {
		o.Lines = []domain.ProductLine{}
	}

	return &o, nil
}

// MarkPaid flips paid to true for the given txnid. The UPDATE is guarded by
// NOT paid, so replayed gateway returns touch no rows; the follow-up read
// distinguishes "already paid" from "unknown txnid".
func (r *OrderRepository) MarkPaid(ctx context.Context, txnid string) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET paid = TRUE, updated_at = $1 WHERE txnid = $2 AND NOT paid`,
		time.Now().UTC(), txnid,
	)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}

	if ct.RowsAffected() > 0 {
		return false, nil
	}

	var paid bool
	err = r.pool.QueryRow(ctx, `SELECT paid FROM orders WHERE txnid = $1`, txnid).Scan(&paid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperrors.NotFound("order", txnid)
		}
		return false, fmt.Errorf("check order paid: %w", err)
	}
	if !paid {
		// NOT paid guard matched nothing yet the row is unpaid; a
		// concurrent writer must have raced us. Report not-already-paid
		// so the caller retries.
		return false, fmt.Errorf("mark order paid: update matched no rows for unpaid order %s", txnid)
	}

	return true, nil
}

// ListByUser returns the user's orders sorted descending by creation time,
// with the total count fetched in the same query via count(*) OVER().
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT id, txnid, user_id, total_price, currency, shipping_address, paid, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var (
			o            domain.Order
			shippingJSON []byte
		)

		if err := rows.Scan(
			&o.ID,
			&o.TxnID,
			&o.UserID,
			&o.TotalPrice,
			&o.Currency,
			&shippingJSON,
			&o.Paid,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}

		if len(shippingJSON) > 0 && string(shippingJSON) != "null" {
			if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
				return nil, 0, fmt.Errorf("unmarshal shipping address: %w", err)
			}
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	// Batch-load lines for all orders in a single query to avoid N+1.
	if len(orders) > 0 {
		orderIDs := make([]string, len(orders))
		for i := range orders {
			orderIDs[i] = orders[i].ID
		}

		linesQuery := `
			SELECT order_id, product_id, title, unit_price, quantity
			FROM order_lines
			WHERE order_id = ANY($1)
			ORDER BY id`

		lineRows, err := r.pool.Query(ctx, linesQuery, orderIDs)
		if err != nil {
			return nil, 0, fmt.Errorf("batch load order lines: %w", err)
		}
		defer lineRows.Close()

		linesByOrderID := make(map[string][]domain.ProductLine, len(orders))
		for lineRows.Next() {
			var (
				orderID string
				line    domain.ProductLine
			)
			if err := lineRows.Scan(
				&orderID,
				&line.ProductID,
				&line.Title,
				&line.UnitPrice,
				&line.Quantity,
			); err != nil {
				return nil, 0, fmt.Errorf("scan order line: %w", err)
			}
			linesByOrderID[orderID] = append(linesByOrderID[orderID], line)
		}
		if err := lineRows.Err(); err != nil {
			return nil, 0, fmt.Errorf("iterate batch order line rows: %w", err)
		}

		for i := range orders {
			if lines, ok := linesByOrderID[orders[i].ID]; ok {
				orders[i].Lines = lines
			} else {
				orders[i].Lines = []domain.ProductLine{}
			}
		}
	}

	return orders, totalCount, nil
}
