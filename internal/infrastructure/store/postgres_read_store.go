package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/example/phone-store/internal/readmodel"
)

// PostgresReadStore implements ReadStoreInterface on the read_* tables.
// The order_codes collection is derived from read_orders.order_code.
type PostgresReadStore struct {
	db *sql.DB
	mu sync.Mutex // serializes Update's read-modify-write
}

func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

var errUnknownCollection = errors.New("unknown read model collection")

func (rs *PostgresReadStore) Set(collection, id string, data any) error {
	switch collection {
	case readmodel.CollectionProducts:
		return rs.setProduct(data.(*readmodel.ProductReadModel))
	case readmodel.CollectionInventory:
		return rs.setInventory(data.(*readmodel.InventoryReadModel))
	case readmodel.CollectionOrders:
		return rs.setOrder(data.(*readmodel.OrderReadModel))
	case readmodel.CollectionOrderCodes:
		// written together with the order row
		return nil
	case readmodel.CollectionUsers:
		return rs.setUser(data.(*readmodel.UserReadModel))
	case readmodel.CollectionCategories:
		return rs.setCategory(data.(*readmodel.CategoryReadModel))
	}
	return fmt.Errorf("%w: %s", errUnknownCollection, collection)
}

func (rs *PostgresReadStore) Get(collection, id string) (any, bool, error) {
	var (
		v   any
		err error
	)
	switch collection {
	case readmodel.CollectionProducts:
		v, err = scanOne(rs.db.QueryRow(`SELECT `+productColumns+` FROM read_products WHERE id = $1`, id), scanProduct)
	case readmodel.CollectionInventory:
		v, err = scanOne(rs.db.QueryRow(`SELECT product_id, stock, updated_at FROM read_inventory WHERE product_id = $1`, id), scanInventory)
	case readmodel.CollectionOrders:
		v, err = scanOne(rs.db.QueryRow(`SELECT `+orderColumns+` FROM read_orders WHERE id = $1`, id), scanOrder)
	case readmodel.CollectionOrderCodes:
		var orderID string
		err = rs.db.QueryRow(`SELECT id FROM read_orders WHERE order_code = $1`, id).Scan(&orderID)
		v = orderID
	case readmodel.CollectionUsers:
		v, err = scanOne(rs.db.QueryRow(`SELECT `+userColumns+` FROM read_users WHERE id = $1`, id), scanUser)
	case readmodel.CollectionCategories:
		v, err = scanOne(rs.db.QueryRow(`SELECT `+categoryColumns+` FROM read_categories WHERE id = $1`, id), scanCategory)
	default:
		return nil, false, fmt.Errorf("%w: %s", errUnknownCollection, collection)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return v, true, nil
}

func (rs *PostgresReadStore) GetAll(collection string) ([]any, error) {
	switch collection {
	case readmodel.CollectionProducts:
		return scanAll(rs.db, `SELECT `+productColumns+` FROM read_products ORDER BY created_at DESC`, scanProduct)
	case readmodel.CollectionInventory:
		return scanAll(rs.db, `SELECT product_id, stock, updated_at FROM read_inventory`, scanInventory)
	case readmodel.CollectionOrders:
		return scanAll(rs.db, `SELECT `+orderColumns+` FROM read_orders ORDER BY created_at DESC`, scanOrder)
	case readmodel.CollectionUsers:
		return scanAll(rs.db, `SELECT `+userColumns+` FROM read_users ORDER BY created_at DESC`, scanUser)
	case readmodel.CollectionCategories:
		return scanAll(rs.db, `SELECT `+categoryColumns+` FROM read_categories ORDER BY name`, scanCategory)
	}
	return nil, fmt.Errorf("%w: %s", errUnknownCollection, collection)
}

func (rs *PostgresReadStore) Delete(collection, id string) error {
	var q string
	switch collection {
	case readmodel.CollectionProducts:
		q = `DELETE FROM read_products WHERE id = $1`
	case readmodel.CollectionInventory:
		q = `DELETE FROM read_inventory WHERE product_id = $1`
	case readmodel.CollectionOrders:
		q = `DELETE FROM read_orders WHERE id = $1`
	case readmodel.CollectionOrderCodes:
		return nil
	case readmodel.CollectionUsers:
		q = `DELETE FROM read_users WHERE id = $1`
	case readmodel.CollectionCategories:
		q = `DELETE FROM read_categories WHERE id = $1`
	default:
		return fmt.Errorf("%w: %s", errUnknownCollection, collection)
	}

	if _, err := rs.db.Exec(q, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (rs *PostgresReadStore) Update(collection, id string, updateFn func(current any) any) (bool, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	current, found, err := rs.Get(collection, id)
	if err != nil || !found {
		return false, err
	}
	if err := rs.Set(collection, id, updateFn(current)); err != nil {
		return false, err
	}
	return true, nil
}

// GetUserByEmail is used by login and registration
func (rs *PostgresReadStore) GetUserByEmail(email string) (*readmodel.UserReadModel, bool, error) {
	u, err := scanUser(rs.db.QueryRow(`SELECT `+userColumns+` FROM read_users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get user by email: %w", err)
	}
	return u, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne[T any](row rowScanner, scan func(rowScanner) (*T, error)) (any, error) {
	v, err := scan(row)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func scanAll[T any](db *sql.DB, q string, scan func(rowScanner) (*T, error)) ([]any, error) {
	rows, err := db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("query read models: %w", err)
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan read model: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Products

const productColumns = `id, name, description, brand, category_id, price, stock, status, image_url, created_at, updated_at`

func (rs *PostgresReadStore) setProduct(p *readmodel.ProductReadModel) error {
	_, err := rs.db.Exec(`
		INSERT INTO read_products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			brand = EXCLUDED.brand,
			category_id = EXCLUDED.category_id,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			status = EXCLUDED.status,
			image_url = EXCLUDED.image_url,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.Name, p.Description, p.Brand, p.CategoryID, p.Price, p.Stock, p.Status, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("set product: %w", err)
	}
	return nil
}

func scanProduct(row rowScanner) (*readmodel.ProductReadModel, error) {
	var p readmodel.ProductReadModel
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Brand, &p.CategoryID, &p.Price, &p.Stock, &p.Status, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

// Inventory

func (rs *PostgresReadStore) setInventory(inv *readmodel.InventoryReadModel) error {
	_, err := rs.db.Exec(`
		INSERT INTO read_inventory (product_id, stock, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id) DO UPDATE SET
			stock = EXCLUDED.stock,
			updated_at = EXCLUDED.updated_at
	`, inv.ProductID, inv.Stock, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("set inventory: %w", err)
	}
	return nil
}

func scanInventory(row rowScanner) (*readmodel.InventoryReadModel, error) {
	var inv readmodel.InventoryReadModel
	err := row.Scan(&inv.ProductID, &inv.Stock, &inv.UpdatedAt)
	return &inv, err
}

// Orders

const orderColumns = `id, order_code, user_id, recipient_name, phone, shipping_address, note,
	payment_method, payment_status, status, total_price, items, trackings,
	provider_order_id, provider_transaction_id, paid_at, created_at, updated_at`

func (rs *PostgresReadStore) setOrder(o *readmodel.OrderReadModel) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	trackingsJSON, err := json.Marshal(o.Trackings)
	if err != nil {
		return err
	}

	_, err = rs.db.Exec(`
		INSERT INTO read_orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			payment_status = EXCLUDED.payment_status,
			status = EXCLUDED.status,
			trackings = EXCLUDED.trackings,
			provider_order_id = EXCLUDED.provider_order_id,
			provider_transaction_id = EXCLUDED.provider_transaction_id,
			paid_at = EXCLUDED.paid_at,
			updated_at = EXCLUDED.updated_at
	`, o.ID, o.OrderCode, o.UserID, o.RecipientName, o.Phone, o.ShippingAddress, o.Note,
		o.PaymentMethod, o.PaymentStatus, o.Status, o.TotalPrice, itemsJSON, trackingsJSON,
		o.ProviderOrderID, o.ProviderTransactionID, o.PaidAt, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("set order: %w", err)
	}
	return nil
}

func scanOrder(row rowScanner) (*readmodel.OrderReadModel, error) {
	var o readmodel.OrderReadModel
	var itemsJSON, trackingsJSON []byte
	var paidAt sql.NullTime
	err := row.Scan(&o.ID, &o.OrderCode, &o.UserID, &o.RecipientName, &o.Phone, &o.ShippingAddress, &o.Note,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status, &o.TotalPrice, &itemsJSON, &trackingsJSON,
		&o.ProviderOrderID, &o.ProviderTransactionID, &paidAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(trackingsJSON, &o.Trackings); err != nil {
		return nil, err
	}
	return &o, nil
}

// Users

const userColumns = `id, email, password_hash, name, phone, role, is_active, created_at, updated_at`

func (rs *PostgresReadStore) setUser(u *readmodel.UserReadModel) error {
	_, err := rs.db.Exec(`
		INSERT INTO read_users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			role = EXCLUDED.role,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Phone, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("set user: %w", err)
	}
	return nil
}

func scanUser(row rowScanner) (*readmodel.UserReadModel, error) {
	var u readmodel.UserReadModel
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

// Categories

const categoryColumns = `id, name, slug, description, image_url, created_at, updated_at`

func (rs *PostgresReadStore) setCategory(c *readmodel.CategoryReadModel) error {
	_, err := rs.db.Exec(`
		INSERT INTO read_categories (`+categoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			updated_at = EXCLUDED.updated_at
	`, c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("set category: %w", err)
	}
	return nil
}

func scanCategory(row rowScanner) (*readmodel.CategoryReadModel, error) {
	var c readmodel.CategoryReadModel
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}
