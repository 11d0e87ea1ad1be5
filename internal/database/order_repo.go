package database

import (
	"context"
	"errors"

	"book-warehouse-api-server/internal/models"
	"book-warehouse-api-server/internal/workflow"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepo struct {
	DB *pgxpool.Pool
}

// CreateExportOrder persists the order header, its line items and their bin
// allocations in one transaction. The allocations have already passed the
// validator; the authoritative re-check happens at New -> Pending.
func (r *OrderRepo) CreateExportOrder(ctx context.Context, order *models.ExportOrder) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO export_orders(id, status, created_by, created_date, export_date,
			recipient_name, recipient_phone, shipping_address, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		order.ID, order.Status, order.CreatedBy, order.CreatedDate, order.ExportDate,
		order.RecipientName, order.RecipientPhone, order.ShippingAddress, order.Note)
	if err != nil {
		return err
	}
	if err := insertItems(ctx, tx, order.ID, models.OrderTypeExport, order.Items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReplaceExportOrder rewrites header fields, items and allocations of an order
// that is still in its initial state. The caller enforces status and ownership.
func (r *OrderRepo) ReplaceExportOrder(ctx context.Context, order *models.ExportOrder) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE export_orders SET export_date=$2, recipient_name=$3, recipient_phone=$4,
			shipping_address=$5, note=$6
		WHERE id=$1`,
		order.ID, order.ExportDate, order.RecipientName, order.RecipientPhone,
		order.ShippingAddress, order.Note)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return workflow.ErrOrderNotFound
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM bin_allocations WHERE order_item_id IN
			(SELECT id FROM order_items WHERE order_id=$1 AND order_type=$2)`,
		order.ID, models.OrderTypeExport); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM order_items WHERE order_id=$1 AND order_type=$2`,
		order.ID, models.OrderTypeExport); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, order.ID, models.OrderTypeExport, order.Items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *OrderRepo) GetExportOrder(ctx context.Context, id string) (*models.ExportOrder, error) {
	var o models.ExportOrder
	err := r.DB.QueryRow(ctx, `
		SELECT id, status, created_by, created_date, COALESCE(export_date, created_date),
			recipient_name, recipient_phone, shipping_address, note
		FROM export_orders WHERE id=$1`, id).
		Scan(&o.ID, &o.Status, &o.CreatedBy, &o.CreatedDate, &o.ExportDate,
			&o.RecipientName, &o.RecipientPhone, &o.ShippingAddress, &o.Note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflow.ErrOrderNotFound
		}
		return nil, err
	}
	items, err := loadOrderItems(ctx, r.DB, o.ID, models.OrderTypeExport)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *OrderRepo) ListExportOrders(ctx context.Context, status string) ([]models.ExportOrder, error) {
	query := `
		SELECT id, status, created_by, created_date, COALESCE(export_date, created_date),
			recipient_name, recipient_phone, shipping_address, note
		FROM export_orders`
	args := []any{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY created_date DESC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.ExportOrder{}
	for rows.Next() {
		var o models.ExportOrder
		if err := rows.Scan(&o.ID, &o.Status, &o.CreatedBy, &o.CreatedDate, &o.ExportDate,
			&o.RecipientName, &o.RecipientPhone, &o.ShippingAddress, &o.Note); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepo) CreateImportOrder(ctx context.Context, order *models.ImportOrder) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO import_orders(id, status, created_by, created_date, import_date, supplier_name, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		order.ID, order.Status, order.CreatedBy, order.CreatedDate, order.ImportDate,
		order.SupplierName, order.Note)
	if err != nil {
		return err
	}
	if err := insertItems(ctx, tx, order.ID, models.OrderTypeImport, order.Items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *OrderRepo) GetImportOrder(ctx context.Context, id string) (*models.ImportOrder, error) {
	var o models.ImportOrder
	err := r.DB.QueryRow(ctx, `
		SELECT id, status, created_by, created_date, COALESCE(import_date, created_date), supplier_name, note
		FROM import_orders WHERE id=$1`, id).
		Scan(&o.ID, &o.Status, &o.CreatedBy, &o.CreatedDate, &o.ImportDate, &o.SupplierName, &o.Note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflow.ErrOrderNotFound
		}
		return nil, err
	}
	items, err := loadOrderItems(ctx, r.DB, o.ID, models.OrderTypeImport)
	if err != nil {
		return nil, err
	}
	o.Items = items
	faults, err := loadFaults(ctx, r.DB, o.ID)
	if err != nil {
		return nil, err
	}
	o.Faults = faults
	return &o, nil
}

func (r *OrderRepo) ListImportOrders(ctx context.Context, status string) ([]models.ImportOrder, error) {
	query := `
		SELECT id, status, created_by, created_date, COALESCE(import_date, created_date), supplier_name, note
		FROM import_orders`
	args := []any{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY created_date DESC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.ImportOrder{}
	for rows.Next() {
		var o models.ImportOrder
		if err := rows.Scan(&o.ID, &o.Status, &o.CreatedBy, &o.CreatedDate, &o.ImportDate,
			&o.SupplierName, &o.Note); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// SetFaultPhoto attaches an uploaded evidence photo URL to a fault row.
func (r *OrderRepo) SetFaultPhoto(ctx context.Context, faultID, url string) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE fault_books SET photo_url=$2 WHERE id=$1`, faultID, url)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID string, t models.OrderType, items []models.OrderItem) error {
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, order_type, book_id, quantity, unit_price, note)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			item.ID, orderID, t, item.BookID, item.Quantity, item.UnitPrice, item.Note); err != nil {
			return err
		}
		for j := range item.Allocations {
			a := &item.Allocations[j]
			if a.ID == "" {
				a.ID = uuid.NewString()
			}
			a.OrderItemID = item.ID
			if _, err := tx.Exec(ctx, `
				INSERT INTO bin_allocations(id, order_item_id, bin_id, quantity)
				VALUES ($1,$2,$3,$4)`,
				a.ID, item.ID, a.BinID, a.Quantity); err != nil {
				return err
			}
		}
	}
	return nil
}
