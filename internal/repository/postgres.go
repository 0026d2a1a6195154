package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/macaicedo13/Ecommerce-api-test/internal/domain"
)

// PostgresStore implements Store on postgres.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(cred *Credentials) (*PostgresStore, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		cErr := db.Close()
		if cErr != nil {
			log.Printf("failed to close database: %v", cErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	log.Println("Connected to postgres!")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT id, name, description, price, stock, created_at, updated_at
	          FROM products WHERE id = $1`

	product, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return product, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, params ProductListParams) ([]*domain.Product, int, error) {
	where := ""
	args := []interface{}{}
	if params.Search != "" {
		where = "WHERE name ILIKE $1 OR description ILIKE $1"
		args = append(args, "%"+params.Search+"%")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT id, name, description, price, stock, created_at, updated_at
		 FROM products %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		where, sortColumn(params.SortField), sortDirection(params.SortDir),
		len(args)+1, len(args)+2)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, scanErr := scanProduct(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", scanErr)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return products, total, nil
}

// sortColumn maps a requested sort field onto a real column, falling back
// to id. Only whitelisted names ever reach the query text.
func sortColumn(field string) string {
	switch field {
	case "name", "price", "stock", "created_at":
		return field
	default:
		return "id"
	}
}

func sortDirection(dir string) string {
	if dir == "desc" || dir == "DESC" {
		return "DESC"
	}
	return "ASC"
}

func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) error {
	query := `INSERT INTO products (name, description, price, stock, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, NOW(), NOW())
	          RETURNING id, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, product *domain.Product) error {
	query := `UPDATE products SET name = $2, description = $3, price = $4, stock = $5, updated_at = NOW()
	          WHERE id = $1
	          RETURNING updated_at`

	err := s.db.QueryRowContext(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
	).Scan(&product.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.ProductNotFoundError{ProductID: product.ID}
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// CreateOrder persists the order, its items and the stock decrements in a
// single transaction. Each decrement is a conditional update that only
// applies when enough stock remains, so concurrent orders for the same
// product cannot drive stock negative; any failing line rolls the whole
// transaction back.
func (s *PostgresStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, item := range order.Items {
		if err := decrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	orderQuery := `INSERT INTO orders (id, customer_id, status, subtotal, tax, total, created_at, updated_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = tx.ExecContext(ctx, orderQuery,
		order.ID,
		order.CustomerID,
		order.Status,
		order.Subtotal,
		order.Tax,
		order.Total,
		order.CreatedAt,
		order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, subtotal)
	              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.UnitPrice,
			item.Subtotal)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order transaction: %w", err)
	}
	return nil
}

func decrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW()
		 WHERE id = $1 AND stock >= $2`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Zero rows affected: either the product does not exist or the
	// remaining stock cannot cover the request.
	var name string
	var stock int
	err = tx.QueryRowContext(ctx,
		`SELECT name, stock FROM products WHERE id = $1`, productID).Scan(&name, &stock)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return fmt.Errorf("query product stock: %w", err)
	}
	return &domain.InsufficientStockError{
		ProductID:   productID,
		ProductName: name,
		Available:   stock,
		Requested:   quantity,
	}
}

// GetOrder loads the order with its line items and payment.
func (s *PostgresStore) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, customer_id, status, subtotal, tax, total, created_at, updated_at
	          FROM orders WHERE id = $1`

	var order domain.Order
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.CustomerID,
		&order.Status,
		&order.Subtotal,
		&order.Tax,
		&order.Total,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if err := s.loadOrderItems(ctx, &order); err != nil {
		return nil, err
	}
	if err := s.loadPayment(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *PostgresStore) loadOrderItems(ctx context.Context, order *domain.Order) error {
	query := `SELECT id, order_id, product_id, product_name, quantity, unit_price, subtotal
	          FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.Subtotal,
		); err != nil {
			return fmt.Errorf("scan order item row: %w", err)
		}
		order.Items = append(order.Items, &item)
	}
	return rows.Err()
}

func (s *PostgresStore) loadPayment(ctx context.Context, order *domain.Order) error {
	query := `SELECT id, order_id, status, method, amount, processed_at
	          FROM payments WHERE order_id = $1`

	var payment domain.Payment
	var processedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, order.ID).Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.Status,
		&payment.Method,
		&payment.Amount,
		&processedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query payment: %w", err)
	}
	if processedAt.Valid {
		payment.ProcessedAt = &processedAt.Time
	}
	order.Payment = &payment
	return nil
}

// ListAllOrders returns every order newest first, without line items or
// payments (summary view).
func (s *PostgresStore) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT id, customer_id, status, subtotal, tax, total, created_at, updated_at
	          FROM orders ORDER BY created_at DESC`
	return s.queryOrders(ctx, query)
}

// ListOrdersByCustomer returns the customer's orders newest first (summary view).
func (s *PostgresStore) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	query := `SELECT id, customer_id, status, subtotal, tax, total, created_at, updated_at
	          FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`
	return s.queryOrders(ctx, query, customerID)
}

func (s *PostgresStore) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.CustomerID,
			&order.Status,
			&order.Subtotal,
			&order.Tax,
			&order.Total,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

// CompleteCheckout commits the checkout as one transaction: the status
// change is guarded on the order still being pending, the payment insert
// relies on the unique order_id index, and the outbox event rides along.
func (s *PostgresStore) CompleteCheckout(ctx context.Context, order *domain.Order, event *OutboxEvent) error {
	if order.Payment == nil {
		return fmt.Errorf("order %s has no payment attached", order.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'pending'`,
		order.ID, order.Status, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
			return fmt.Errorf("query order existence: %w", err)
		}
		if !exists {
			return ErrOrderNotFound
		}
		return domain.ErrNotEligible
	}

	payment := order.Payment
	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (id, order_id, status, method, amount, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		payment.ID,
		payment.OrderID,
		payment.Status,
		payment.Method,
		payment.Amount,
		payment.ProcessedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("insert payment: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID,
		event.AggregateID,
		event.EventType,
		event.Payload,
		event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkout transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM outbox_events WHERE processed_at IS NULL ORDER BY created_at LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var event OutboxEvent
		if err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.EventType,
			&event.Payload,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event row: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// scanProduct reads one product row from either *sql.Row or *sql.Rows.
func scanProduct(row interface{ Scan(...interface{}) error }) (*domain.Product, error) {
	var product domain.Product
	var description sql.NullString
	err := row.Scan(
		&product.ID,
		&product.Name,
		&description,
		&product.Price,
		&product.Stock,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	product.Description = description.String
	return &product, nil
}
