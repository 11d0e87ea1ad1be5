package database

import (
	"context"
	"errors"
	"time"

	"book-warehouse-api-server/internal/models"
	"book-warehouse-api-server/internal/workflow"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements workflow.TxRunner on top of a pgx pool. Each transition
// runs in one transaction; the order row and every touched bin row are locked
// with SELECT ... FOR UPDATE so concurrent transitions serialize.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) InTransaction(ctx context.Context, fn func(workflow.Store) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// txStore is the workflow.Store bound to one open transaction.
type txStore struct {
	tx pgx.Tx
}

func orderTable(t models.OrderType) string {
	if t == models.OrderTypeImport {
		return "import_orders"
	}
	return "export_orders"
}

func (s *txStore) GetOrderForUpdate(ctx context.Context, t models.OrderType, orderID string) (*workflow.OrderState, error) {
	state := &workflow.OrderState{ID: orderID, Type: t}
	err := s.tx.QueryRow(ctx,
		`SELECT status, created_by FROM `+orderTable(t)+` WHERE id=$1 FOR UPDATE`,
		orderID).Scan(&state.Status, &state.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflow.ErrOrderNotFound
		}
		return nil, err
	}

	items, err := loadOrderItems(ctx, s.tx, orderID, t)
	if err != nil {
		return nil, err
	}
	state.Items = items

	if t == models.OrderTypeImport {
		faults, err := loadFaults(ctx, s.tx, orderID)
		if err != nil {
			return nil, err
		}
		state.Faults = faults
	}
	return state, nil
}

func (s *txStore) GetBinsForUpdate(ctx context.Context, binIDs []string) (map[string]models.Bin, error) {
	bins := make(map[string]models.Bin, len(binIDs))
	if len(binIDs) == 0 {
		return bins, nil
	}
	rows, err := s.tx.Query(ctx, `
		SELECT id, shelf_id, name, description, quantity_current, quantity_max_limit
		FROM bins WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, binIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var b models.Bin
		if err := rows.Scan(&b.ID, &b.ShelfID, &b.Name, &b.Description, &b.QuantityCurrent, &b.QuantityMaxLimit); err != nil {
			return nil, err
		}
		bins[b.ID] = b
	}
	return bins, rows.Err()
}

func (s *txStore) GetBinContents(ctx context.Context, binIDs []string) (map[string]map[string]int, error) {
	return loadBinContents(ctx, s.tx, binIDs)
}

func (s *txStore) ApplyBinDelta(ctx context.Context, binID, bookID string, delta int) error {
	ct, err := s.tx.Exec(ctx,
		`UPDATE bins SET quantity_current = quantity_current + $2 WHERE id=$1`,
		binID, delta)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return errors.New("bin not found: " + binID)
	}
	if _, err := s.tx.Exec(ctx, `
		INSERT INTO bin_contents(bin_id, book_id, quantity)
		VALUES ($1,$2,$3)
		ON CONFLICT (bin_id, book_id)
		DO UPDATE SET quantity = bin_contents.quantity + $3`,
		binID, bookID, delta); err != nil {
		return err
	}
	_, err = s.tx.Exec(ctx, `
		INSERT INTO stocks(book_id, quantity, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (book_id)
		DO UPDATE SET quantity = stocks.quantity + $2, updated_at = now()`,
		bookID, delta)
	return err
}

func (s *txStore) SetStatus(ctx context.Context, t models.OrderType, orderID string, status models.Status) error {
	ct, err := s.tx.Exec(ctx,
		`UPDATE `+orderTable(t)+` SET status=$2 WHERE id=$1`, orderID, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return workflow.ErrOrderNotFound
	}
	return nil
}

func (s *txStore) AppendStatusLog(ctx context.Context, t models.OrderType, orderID string, status models.Status, actorID, note string) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO status_logs(id, order_id, order_type, status, actor_id, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		uuid.NewString(), orderID, t, status, actorID, note, time.Now().UTC())
	return err
}

func (s *txStore) SaveFaults(ctx context.Context, orderID string, faults []models.FaultBook) error {
	for _, f := range faults {
		if _, err := s.tx.Exec(ctx, `
			INSERT INTO fault_books(id, order_id, book_id, quantity, note, photo_url)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			uuid.NewString(), orderID, f.BookID, f.Quantity, f.Note, f.PhotoURL); err != nil {
			return err
		}
	}
	return nil
}

func (s *txStore) SaveItemAllocations(ctx context.Context, itemID string, allocs []models.BinAllocation) error {
	for _, a := range allocs {
		if _, err := s.tx.Exec(ctx, `
			INSERT INTO bin_allocations(id, order_item_id, bin_id, quantity)
			VALUES ($1,$2,$3,$4)`,
			uuid.NewString(), itemID, a.BinID, a.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// loadOrderItems works for both pool queries and transactions.
func loadOrderItems(ctx context.Context, q querier, orderID string, t models.OrderType) ([]models.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, book_id, quantity, unit_price, note
		FROM order_items WHERE order_id=$1 AND order_type=$2
		ORDER BY id`, orderID, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	index := make(map[string]int)
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.BookID, &it.Quantity, &it.UnitPrice, &it.Note); err != nil {
			return nil, err
		}
		it.OrderID = orderID
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	allocRows, err := q.Query(ctx, `
		SELECT a.id, a.order_item_id, a.bin_id, a.quantity
		FROM bin_allocations a
		JOIN order_items i ON a.order_item_id = i.id
		WHERE i.order_id=$1 AND i.order_type=$2
		ORDER BY a.id`, orderID, t)
	if err != nil {
		return nil, err
	}
	defer allocRows.Close()
	for allocRows.Next() {
		var a models.BinAllocation
		if err := allocRows.Scan(&a.ID, &a.OrderItemID, &a.BinID, &a.Quantity); err != nil {
			return nil, err
		}
		if i, ok := index[a.OrderItemID]; ok {
			items[i].Allocations = append(items[i].Allocations, a)
		}
	}
	return items, allocRows.Err()
}

func loadFaults(ctx context.Context, q querier, orderID string) ([]models.FaultBook, error) {
	rows, err := q.Query(ctx, `
		SELECT id, book_id, quantity, note, photo_url
		FROM fault_books WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var faults []models.FaultBook
	for rows.Next() {
		var f models.FaultBook
		if err := rows.Scan(&f.ID, &f.BookID, &f.Quantity, &f.Note, &f.PhotoURL); err != nil {
			return nil, err
		}
		f.OrderID = orderID
		faults = append(faults, f)
	}
	return faults, rows.Err()
}

func loadBinContents(ctx context.Context, q querier, binIDs []string) (map[string]map[string]int, error) {
	contents := make(map[string]map[string]int, len(binIDs))
	if len(binIDs) == 0 {
		return contents, nil
	}
	rows, err := q.Query(ctx, `
		SELECT bin_id, book_id, quantity FROM bin_contents WHERE bin_id = ANY($1)`, binIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var binID, bookID string
		var qty int
		if err := rows.Scan(&binID, &bookID, &qty); err != nil {
			return nil, err
		}
		if contents[binID] == nil {
			contents[binID] = make(map[string]int)
		}
		contents[binID][bookID] = qty
	}
	return contents, rows.Err()
}

// querier is the subset of pgx shared by pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
