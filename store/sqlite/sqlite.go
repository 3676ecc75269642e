/*
Package sqlite provides a SQLite-backed implementation of booking.TxStore.

PURPOSE:
  Persists rooms, clients, products, reservations and consumptions. In
  production the same patterns apply to PostgreSQL with minor SQL dialect
  differences.

KEY TABLES:
  rooms:         Physical inventory, unique number, manual status
  clients:       Guests, unique document id
  products:      Catalog of chargeable extras, unique name
  reservations:  One row per booking; dates stored as YYYY-MM-DD text
  consumptions:  Extras charged to a reservation, price captured at insert

INDEXES:
  - idx_reservations_room_dates: Overlap check (hot path)
  - idx_reservations_status_checkout: Expiry sweep
  - idx_reservations_checkin: Arrivals and listings

CONCURRENCY:
  Every write transaction starts with BEGIN IMMEDIATE (_txlock=immediate), so
  it holds the database write lock from its first statement. Two bookings
  racing for the same room therefore run their overlap check one after the
  other. The pool is capped at one connection so ":memory:" databases are
  shared, and a process-level RWMutex keeps readers off the connection while
  a transaction owns it.

DATES AND MONEY:
  Dates are TEXT "YYYY-MM-DD" so lexical comparison is chronological.
  Money is TEXT holding decimal.Decimal.String().

USAGE:
  store, err := sqlite.New("./data/hotel.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := booking.NewService(store, booking.SystemClock{}, nil)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - booking/store.go: Interface definitions
  - booking/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/hotel-engine/booking"
)

// Store implements booking.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		base_rate TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'AVAILABLE'
	);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		email TEXT,
		phone TEXT
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		price TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		check_in TEXT NOT NULL,
		check_out TEXT NOT NULL,
		total TEXT NOT NULL,
		status TEXT NOT NULL,
		checked_in_at TEXT,
		checked_out_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (check_out > check_in)
	);

	CREATE INDEX IF NOT EXISTS idx_reservations_room_dates
		ON reservations(room_id, check_in, check_out);
	CREATE INDEX IF NOT EXISTS idx_reservations_status_checkout
		ON reservations(status, check_out);
	CREATE INDEX IF NOT EXISTS idx_reservations_checkin
		ON reservations(check_in);
	CREATE INDEX IF NOT EXISTS idx_reservations_client
		ON reservations(client_id);

	-- product_id has no foreign key: deleting a product keeps its charges
	CREATE TABLE IF NOT EXISTS consumptions (
		id TEXT PRIMARY KEY,
		reservation_id TEXT NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price TEXT NOT NULL,
		date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_consumptions_reservation
		ON consumptions(reservation_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// QUERIER - Shared by the plain store and the transactional view
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs every statement against q: the pool outside a transaction,
// the *sql.Tx inside one.
type conn struct {
	q querier
}

// =============================================================================
// ROOMS
// =============================================================================

func (c conn) GetRoom(ctx context.Context, id booking.RoomID) (*booking.Room, error) {
	var (
		r    booking.Room
		rate string
	)
	err := c.q.QueryRowContext(ctx,
		"SELECT id, number, category, base_rate, status FROM rooms WHERE id = ?",
		id,
	).Scan(&r.ID, &r.Number, &r.Category, &rate, &r.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if r.BaseRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("room %s has corrupt base rate %q: %w", r.ID, rate, err)
	}
	return &r, nil
}

func (c conn) ListRooms(ctx context.Context) ([]booking.Room, error) {
	rows, err := c.q.QueryContext(ctx,
		"SELECT id, number, category, base_rate, status FROM rooms ORDER BY number")
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	rooms := []booking.Room{}
	for rows.Next() {
		var (
			r    booking.Room
			rate string
		)
		if err := rows.Scan(&r.ID, &r.Number, &r.Category, &rate, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		if r.BaseRate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("room %s has corrupt base rate %q: %w", r.ID, rate, err)
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (c conn) SaveRoom(ctx context.Context, r booking.Room) error {
	query := `
		INSERT INTO rooms (id, number, category, base_rate, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			category = excluded.category,
			base_rate = excluded.base_rate,
			status = excluded.status
	`
	_, err := c.q.ExecContext(ctx, query, r.ID, r.Number, r.Category, r.BaseRate.String(), r.Status)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: room number %s already exists", booking.ErrConflict, r.Number)
	}
	return err
}

func (c conn) DeleteRoom(ctx context.Context, id booking.RoomID) error {
	_, err := c.q.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	return err
}

// =============================================================================
// CLIENTS
// =============================================================================

func (c conn) GetClient(ctx context.Context, id booking.ClientID) (*booking.Client, error) {
	var (
		cl           booking.Client
		email, phone sql.NullString
	)
	err := c.q.QueryRowContext(ctx,
		"SELECT id, document_id, full_name, email, phone FROM clients WHERE id = ?",
		id,
	).Scan(&cl.ID, &cl.DocumentID, &cl.FullName, &email, &phone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cl.Email = email.String
	cl.Phone = phone.String
	return &cl, nil
}

func (c conn) ListClients(ctx context.Context) ([]booking.Client, error) {
	rows, err := c.q.QueryContext(ctx,
		"SELECT id, document_id, full_name, email, phone FROM clients ORDER BY full_name")
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	clients := []booking.Client{}
	for rows.Next() {
		var (
			cl           booking.Client
			email, phone sql.NullString
		)
		if err := rows.Scan(&cl.ID, &cl.DocumentID, &cl.FullName, &email, &phone); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		cl.Email = email.String
		cl.Phone = phone.String
		clients = append(clients, cl)
	}
	return clients, rows.Err()
}

func (c conn) SaveClient(ctx context.Context, cl booking.Client) error {
	query := `
		INSERT INTO clients (id, document_id, full_name, email, phone)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			full_name = excluded.full_name,
			email = excluded.email,
			phone = excluded.phone
	`
	_, err := c.q.ExecContext(ctx, query,
		cl.ID, cl.DocumentID, cl.FullName, nullString(cl.Email), nullString(cl.Phone))
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: client document %s already exists", booking.ErrConflict, cl.DocumentID)
	}
	return err
}

func (c conn) DeleteClient(ctx context.Context, id booking.ClientID) error {
	_, err := c.q.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	return err
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (c conn) GetProduct(ctx context.Context, id booking.ProductID) (*booking.Product, error) {
	var (
		p     booking.Product
		price string
	)
	err := c.q.QueryRowContext(ctx,
		"SELECT id, name, price, active FROM products WHERE id = ?",
		id,
	).Scan(&p.ID, &p.Name, &price, &p.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("product %s has corrupt price %q: %w", p.ID, price, err)
	}
	return &p, nil
}

func (c conn) ListProducts(ctx context.Context, activeOnly bool) ([]booking.Product, error) {
	query := "SELECT id, name, price, active FROM products"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY name"

	rows, err := c.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []booking.Product{}
	for rows.Next() {
		var (
			p     booking.Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("product %s has corrupt price %q: %w", p.ID, price, err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (c conn) SaveProduct(ctx context.Context, p booking.Product) error {
	query := `
		INSERT INTO products (id, name, price, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			active = excluded.active
	`
	_, err := c.q.ExecContext(ctx, query, p.ID, p.Name, p.Price.String(), p.Active)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: product %s already exists", booking.ErrConflict, p.Name)
	}
	return err
}

func (c conn) DeleteProduct(ctx context.Context, id booking.ProductID) error {
	_, err := c.q.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	return err
}

// =============================================================================
// RESERVATIONS
// =============================================================================

const reservationColumns = `id, room_id, client_id, check_in, check_out, total, status,
	checked_in_at, checked_out_at, created_at, updated_at`

func (c conn) GetReservation(ctx context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	rows, err := c.q.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservation: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanReservation(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReservations translates the filter field by field into SQL.
func (c conn) ListReservations(ctx context.Context, f booking.ReservationFilter) ([]booking.Reservation, error) {
	var (
		where []string
		args  []any
	)
	if f.RoomID != "" {
		where = append(where, "room_id = ?")
		args = append(args, f.RoomID)
	}
	if f.ClientID != "" {
		where = append(where, "client_id = ?")
		args = append(args, f.ClientID)
	}
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, st)
		}
		where = append(where, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if !f.From.IsZero() {
		where = append(where, "check_in >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "check_out <= ?")
		args = append(args, f.To.String())
	}
	if !f.CheckInOn.IsZero() {
		where = append(where, "check_in = ?")
		args = append(args, f.CheckInOn.String())
	}
	if !f.EndsBy.IsZero() {
		where = append(where, "check_out < ?")
		args = append(args, f.EndsBy.String())
	}
	if f.Overlap != nil {
		where = append(where, "check_in < ? AND check_out > ?")
		args = append(args, f.Overlap.End.String(), f.Overlap.Start.String())
	}

	query := "SELECT " + reservationColumns + " FROM reservations"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY check_in, created_at, rowid"

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	list := []booking.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

func (c conn) SaveReservation(ctx context.Context, r booking.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			room_id = excluded.room_id,
			client_id = excluded.client_id,
			check_in = excluded.check_in,
			check_out = excluded.check_out,
			total = excluded.total,
			status = excluded.status,
			checked_in_at = excluded.checked_in_at,
			checked_out_at = excluded.checked_out_at,
			updated_at = excluded.updated_at
	`
	_, err := c.q.ExecContext(ctx, query,
		r.ID, r.RoomID, r.ClientID,
		r.CheckIn.String(), r.CheckOut.String(),
		r.Total.String(), r.Status,
		nullTime(r.CheckedInAt), nullTime(r.CheckedOutAt),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

// DeleteReservation removes the row; consumptions go with it (ON DELETE CASCADE).
func (c conn) DeleteReservation(ctx context.Context, id booking.ReservationID) error {
	_, err := c.q.ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id)
	return err
}

func scanReservation(rows *sql.Rows) (booking.Reservation, error) {
	var (
		r                     booking.Reservation
		checkIn, checkOut     string
		total                 string
		checkedIn, checkedOut sql.NullString
		createdAt, updatedAt  string
	)
	err := rows.Scan(&r.ID, &r.RoomID, &r.ClientID, &checkIn, &checkOut, &total, &r.Status,
		&checkedIn, &checkedOut, &createdAt, &updatedAt)
	if err != nil {
		return r, fmt.Errorf("failed to scan reservation: %w", err)
	}

	if r.CheckIn, err = booking.ParseDate(checkIn); err != nil {
		return r, err
	}
	if r.CheckOut, err = booking.ParseDate(checkOut); err != nil {
		return r, err
	}
	if r.Total, err = decimal.NewFromString(total); err != nil {
		return r, fmt.Errorf("reservation %s has corrupt total %q: %w", r.ID, total, err)
	}
	if r.CheckedInAt, err = parseNullTime(checkedIn); err != nil {
		return r, fmt.Errorf("reservation %s has corrupt checked_in_at: %w", r.ID, err)
	}
	if r.CheckedOutAt, err = parseNullTime(checkedOut); err != nil {
		return r, fmt.Errorf("reservation %s has corrupt checked_out_at: %w", r.ID, err)
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return r, fmt.Errorf("reservation %s has corrupt created_at %q: %w", r.ID, createdAt, err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return r, fmt.Errorf("reservation %s has corrupt updated_at %q: %w", r.ID, updatedAt, err)
	}
	return r, nil
}

// =============================================================================
// CONSUMPTIONS
// =============================================================================

func (c conn) GetConsumption(ctx context.Context, id booking.ConsumptionID) (*booking.Consumption, error) {
	rows, err := c.q.QueryContext(ctx,
		"SELECT id, reservation_id, product_id, quantity, unit_price, date FROM consumptions WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query consumption: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	cs, err := scanConsumption(rows)
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

func (c conn) ListConsumptions(ctx context.Context, id booking.ReservationID) ([]booking.Consumption, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT id, reservation_id, product_id, quantity, unit_price, date
		FROM consumptions
		WHERE reservation_id = ?
		ORDER BY date, rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query consumptions: %w", err)
	}
	defer rows.Close()

	list := []booking.Consumption{}
	for rows.Next() {
		cs, err := scanConsumption(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, cs)
	}
	return list, rows.Err()
}

func (c conn) SaveConsumption(ctx context.Context, cs booking.Consumption) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO consumptions (id, reservation_id, product_id, quantity, unit_price, date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, cs.ID, cs.ReservationID, cs.ProductID, cs.Quantity, cs.UnitPrice.String(), cs.Date.String())
	if err != nil {
		return fmt.Errorf("failed to save consumption: %w", err)
	}
	return nil
}

func (c conn) DeleteConsumption(ctx context.Context, id booking.ConsumptionID) error {
	_, err := c.q.ExecContext(ctx, "DELETE FROM consumptions WHERE id = ?", id)
	return err
}

func scanConsumption(rows *sql.Rows) (booking.Consumption, error) {
	var (
		cs          booking.Consumption
		price, date string
	)
	if err := rows.Scan(&cs.ID, &cs.ReservationID, &cs.ProductID, &cs.Quantity, &price, &date); err != nil {
		return cs, fmt.Errorf("failed to scan consumption: %w", err)
	}
	var err error
	if cs.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return cs, fmt.Errorf("consumption %s has corrupt price %q: %w", cs.ID, price, err)
	}
	if cs.Date, err = booking.ParseDate(date); err != nil {
		return cs, err
	}
	return cs, nil
}

// =============================================================================
// LOCKED ACCESS (booking.Store outside a transaction)
// =============================================================================

func (s *Store) pool() conn { return conn{q: s.db} }

func (s *Store) GetRoom(ctx context.Context, id booking.RoomID) (*booking.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool().GetRoom(ctx, id)
}

func (s *Store) ListRooms(ctx context.Context) ([]booking.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool().ListRooms(ctx)
}

func (s *Store) SaveRoom(ctx context.Context, r booking.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool().SaveRoom(ctx, r)
}

func (s *Store) DeleteRoom(ctx context.Context, id booking.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool().DeleteRoom(ctx, id)
}

func (s *Store) GetClient(ctx context.Context, id booking.ClientID) (*booking.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool().GetClient(ctx, id)
}

func (s *Store) ListClients(ctx context.Context) ([]booking.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool().ListClients(ctx)
}

func (s *Store) SaveClient(ctx context.Context, c booking.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool().SaveClient(ctx, c)
}

func (s *Store) DeleteClient(ctx context.Context, id booking.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool().DeleteClient(ctx, id)
}

func (s *Store) GetProduct(ctx context.Context, id booking.ProductID) (*booking.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool().GetProduct(ctx, id)
}

func (s *Store) ListProducts(ctx context.Context, activeOnly bool) ([]booking.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool().ListProducts(ctx, activeOnly)
}

func (s *Store) SaveProduct(ctx context.Context, p booking.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool().SaveProduct(ctx, p)
}

func (s *Store) DeleteProduct(ctx context.Context, id booking.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool().DeleteProduct(ctx, id)
}

func (s *Store) GetReservation(ctx context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool().GetReservation(ctx, id)
}

func (s *Store) ListReservations(ctx context.Context, f booking.ReservationFilter) ([]booking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool().ListReservations(ctx, f)
}

func (s *Store) SaveReservation(ctx context.Context, r booking.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool().SaveReservation(ctx, r)
}

func (s *Store) DeleteReservation(ctx context.Context, id booking.ReservationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool().DeleteReservation(ctx, id)
}

func (s *Store) GetConsumption(ctx context.Context, id booking.ConsumptionID) (*booking.Consumption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool().GetConsumption(ctx, id)
}

func (s *Store) ListConsumptions(ctx context.Context, id booking.ReservationID) ([]booking.Consumption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool().ListConsumptions(ctx, id)
}

func (s *Store) SaveConsumption(ctx context.Context, c booking.Consumption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool().SaveConsumption(ctx, c)
}

func (s *Store) DeleteConsumption(ctx context.Context, id booking.ConsumptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool().DeleteConsumption(ctx, id)
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"consumptions", "reservations", "products", "clients", "rooms"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (booking.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. Reads and
// writes made through the Store handed to fn all go through the same
// *sql.Tx, which holds the write lock from BEGIN.
func (s *Store) WithTx(ctx context.Context, fn func(store booking.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(conn{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

var (
	_ booking.Store   = conn{}
	_ booking.TxStore = (*Store)(nil)
)

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timeLayout keeps a fixed number of fraction digits so text order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
