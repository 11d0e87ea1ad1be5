package database

import (
	"context"
	"errors"

	"book-warehouse-api-server/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// CatalogRepo covers the read-mostly catalog: categories, books and their
// aggregate stock, shelves and bins. The workflow core consumes this data but
// never writes it outside a transition.
type CatalogRepo struct {
	DB *pgxpool.Pool
}

// --- Categories ---

func (r *CatalogRepo) CreateCategory(ctx context.Context, c models.Category) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO categories(id, name, description) VALUES ($1,$2,$3)`,
		c.ID, c.Name, c.Description)
	return err
}

func (r *CatalogRepo) UpdateCategory(ctx context.Context, c models.Category) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE categories SET name=$2, description=$3 WHERE id=$1`,
		c.ID, c.Name, c.Description)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepo) DeleteCategory(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// --- Books ---

func (r *CatalogRepo) CreateBook(ctx context.Context, b models.Book) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO books(id, sku, title, author, category_id, publisher, price, created_at, updated_at)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7,$8,$9)`,
		b.ID, b.SKU, b.Title, b.Author, b.CategoryID, b.Publisher, b.Price, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return err
	}
	// Every book gets an aggregate stock row immediately.
	_, err = r.DB.Exec(ctx, `
		INSERT INTO stocks(book_id, quantity, updated_at) VALUES ($1, 0, now())
		ON CONFLICT (book_id) DO NOTHING`, b.ID)
	return err
}

func (r *CatalogRepo) UpdateBook(ctx context.Context, b models.Book) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE books SET sku=$2, title=$3, author=$4, category_id=NULLIF($5,''),
			publisher=$6, price=$7, updated_at=now()
		WHERE id=$1`,
		b.ID, b.SKU, b.Title, b.Author, b.CategoryID, b.Publisher, b.Price)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepo) DeleteBook(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM books WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepo) GetBook(ctx context.Context, id string) (*models.Book, error) {
	var b models.Book
	var categoryID *string
	err := r.DB.QueryRow(ctx, `
		SELECT id, sku, title, author, category_id, publisher, price, created_at, updated_at
		FROM books WHERE id=$1`, id).
		Scan(&b.ID, &b.SKU, &b.Title, &b.Author, &categoryID, &b.Publisher, &b.Price, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if categoryID != nil {
		b.CategoryID = *categoryID
	}
	return &b, nil
}

func (r *CatalogRepo) ListBooks(ctx context.Context) ([]models.Book, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, sku, title, author, COALESCE(category_id, ''), publisher, price, created_at, updated_at
		FROM books ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.SKU, &b.Title, &b.Author, &b.CategoryID, &b.Publisher, &b.Price, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *CatalogRepo) GetStock(ctx context.Context, bookID string) (*models.Stock, error) {
	var s models.Stock
	err := r.DB.QueryRow(ctx,
		`SELECT book_id, quantity, updated_at FROM stocks WHERE book_id=$1`, bookID).
		Scan(&s.BookID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// --- Shelves and bins ---

func (r *CatalogRepo) CreateShelf(ctx context.Context, s models.Shelf) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO shelves(id, name, description) VALUES ($1,$2,$3)`,
		s.ID, s.Name, s.Description)
	return err
}

func (r *CatalogRepo) ListShelves(ctx context.Context) ([]models.Shelf, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, description FROM shelves ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shelves := []models.Shelf{}
	for rows.Next() {
		var s models.Shelf
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, err
		}
		shelves = append(shelves, s)
	}
	return shelves, rows.Err()
}

func (r *CatalogRepo) CreateBin(ctx context.Context, b models.Bin) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO bins(id, shelf_id, name, description, quantity_current, quantity_max_limit)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.ShelfID, b.Name, b.Description, b.QuantityCurrent, b.QuantityMaxLimit)
	return err
}

func (r *CatalogRepo) UpdateBin(ctx context.Context, b models.Bin) error {
	// Only metadata and the capacity limit; quantities are owned by the
	// stock mutation path.
	ct, err := r.DB.Exec(ctx, `
		UPDATE bins SET name=$2, description=$3, quantity_max_limit=$4 WHERE id=$1`,
		b.ID, b.Name, b.Description, b.QuantityMaxLimit)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepo) GetBin(ctx context.Context, id string) (*models.Bin, error) {
	var b models.Bin
	err := r.DB.QueryRow(ctx, `
		SELECT id, shelf_id, name, description, quantity_current, quantity_max_limit
		FROM bins WHERE id=$1`, id).
		Scan(&b.ID, &b.ShelfID, &b.Name, &b.Description, &b.QuantityCurrent, &b.QuantityMaxLimit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *CatalogRepo) ListBins(ctx context.Context, shelfID string) ([]models.Bin, error) {
	query := `SELECT id, shelf_id, name, description, quantity_current, quantity_max_limit FROM bins`
	args := []any{}
	if shelfID != "" {
		query += ` WHERE shelf_id=$1`
		args = append(args, shelfID)
	}
	query += ` ORDER BY name`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bins := []models.Bin{}
	for rows.Next() {
		var b models.Bin
		if err := rows.Scan(&b.ID, &b.ShelfID, &b.Name, &b.Description, &b.QuantityCurrent, &b.QuantityMaxLimit); err != nil {
			return nil, err
		}
		bins = append(bins, b)
	}
	return bins, rows.Err()
}

// BinsForBook returns every bin together with how many units of the book it
// holds and its remaining free space. The UI uses this to build allocation
// proposals; the authoritative check happens later inside the transition.
func (r *CatalogRepo) BinsForBook(ctx context.Context, bookID string) ([]models.BinCapacity, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT b.id, b.shelf_id, b.name, b.description, b.quantity_current, b.quantity_max_limit,
		       COALESCE(c.quantity, 0)
		FROM bins b
		LEFT JOIN bin_contents c ON c.bin_id = b.id AND c.book_id = $1
		ORDER BY b.name`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.BinCapacity{}
	for rows.Next() {
		var bc models.BinCapacity
		if err := rows.Scan(&bc.ID, &bc.ShelfID, &bc.Name, &bc.Description,
			&bc.QuantityCurrent, &bc.QuantityMaxLimit, &bc.BookQuantity); err != nil {
			return nil, err
		}
		bc.Available = bc.QuantityMaxLimit - bc.QuantityCurrent
		out = append(out, bc)
	}
	return out, rows.Err()
}

// BinsByID is the non-locking read used for pre-validation at order creation.
func (r *CatalogRepo) BinsByID(ctx context.Context, binIDs []string) (map[string]models.Bin, error) {
	bins := make(map[string]models.Bin, len(binIDs))
	if len(binIDs) == 0 {
		return bins, nil
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, shelf_id, name, description, quantity_current, quantity_max_limit
		FROM bins WHERE id = ANY($1)`, binIDs)
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

// BinContentsByID pairs with BinsByID for pre-validation: per bin, the
// quantity of each book it holds.
func (r *CatalogRepo) BinContentsByID(ctx context.Context, binIDs []string) (map[string]map[string]int, error) {
	return loadBinContents(ctx, r.DB, binIDs)
}
