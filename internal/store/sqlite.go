package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        user_id TEXT PRIMARY KEY,
        username TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS bookings (
        booking_id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        flight_number TEXT NOT NULL,
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        date TEXT NOT NULL, -- ISO-8601 string; lexicographic order is chronological
        status TEXT NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users (user_id)
    );

    CREATE TABLE IF NOT EXISTS flight_info (
        flight_number TEXT PRIMARY KEY,
        details_text TEXT NOT NULL
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods
func (s *SQLiteStore) GetUserByUsername(username string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT user_id, username, password_hash, created_at FROM users WHERE username = ?", username).
		Scan(&user.UserID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) GetUserByID(userID string) (*User, error) {
	if userID == "" {
		return nil, nil
	}
	var user User
	err := s.db.QueryRow("SELECT user_id, username, password_hash, created_at FROM users WHERE user_id = ?", userID).
		Scan(&user.UserID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by id: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(userID, username, passwordHash string) (*User, error) {
	now := time.Now()
	_, err := s.db.Exec("INSERT INTO users (user_id, username, password_hash, created_at) VALUES (?, ?, ?, ?)",
		userID, username, passwordHash, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &User{UserID: userID, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// Booking methods
func (s *SQLiteStore) CreateBooking(b *Booking) error {
	if b.BookingID == "" {
		b.BookingID = uuid.NewString()
	}
	stmt, err := s.db.Prepare("INSERT INTO bookings (booking_id, user_id, flight_number, origin, destination, date, status) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare booking insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(b.BookingID, b.UserID, b.FlightNumber, b.Origin, b.Destination, b.Date, b.Status)
	if err != nil {
		return fmt.Errorf("failed to execute booking insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBookingsByUserID(userID string, filter BookingFilter) ([]Booking, error) {
	query := "SELECT booking_id, user_id, flight_number, origin, destination, date, status FROM bookings WHERE user_id = ?"
	args := []any{userID}
	if filter.Origin != "" {
		query += " AND origin = ?"
		args = append(args, filter.Origin)
	}
	if filter.Destination != "" {
		query += " AND destination = ?"
		args = append(args, filter.Destination)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY date DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.BookingID, &b.UserID, &b.FlightNumber, &b.Origin, &b.Destination, &b.Date, &b.Status); err != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *SQLiteStore) GetLatestBooking(userID string) (*Booking, error) {
	if userID == "" {
		return nil, nil
	}
	var b Booking
	err := s.db.QueryRow(
		"SELECT booking_id, user_id, flight_number, origin, destination, date, status FROM bookings WHERE user_id = ? ORDER BY date DESC LIMIT 1",
		userID,
	).Scan(&b.BookingID, &b.UserID, &b.FlightNumber, &b.Origin, &b.Destination, &b.Date, &b.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No booking
		}
		return nil, fmt.Errorf("failed to query latest booking: %w", err)
	}
	return &b, nil
}

func (s *SQLiteStore) GetBookingByFlight(userID, flightNumber string) (*Booking, error) {
	var b Booking
	err := s.db.QueryRow(
		"SELECT booking_id, user_id, flight_number, origin, destination, date, status FROM bookings WHERE user_id = ? AND flight_number = ? LIMIT 1",
		userID, flightNumber,
	).Scan(&b.BookingID, &b.UserID, &b.FlightNumber, &b.Origin, &b.Destination, &b.Date, &b.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query booking by flight: %w", err)
	}
	return &b, nil
}

// FlightInfo methods
func (s *SQLiteStore) GetFlightInfo(flightNumber string) (*FlightInfo, error) {
	var info FlightInfo
	err := s.db.QueryRow("SELECT flight_number, details_text FROM flight_info WHERE flight_number = ?", flightNumber).
		Scan(&info.FlightNumber, &info.DetailsText)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query flight info: %w", err)
	}
	return &info, nil
}

func (s *SQLiteStore) UpsertFlightInfo(info *FlightInfo) error {
	_, err := s.db.Exec(
		"INSERT INTO flight_info (flight_number, details_text) VALUES (?, ?) ON CONFLICT(flight_number) DO UPDATE SET details_text = excluded.details_text",
		info.FlightNumber, info.DetailsText,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert flight info: %w", err)
	}
	return nil
}
