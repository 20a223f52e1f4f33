package store

import "time"

type User struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt    time.Time `json:"created_at"`
}

// Booking belongs to exactly one user. The date stays an ISO-8601 string the
// whole way through; ordering relies on ISO strings sorting chronologically.
type Booking struct {
	BookingID    string `json:"booking_id"`
	UserID       string `json:"user_id"`
	FlightNumber string `json:"flight_number"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Date         string `json:"date"`
	Status       string `json:"status"`
}

// FlightInfo is a free-text details blob keyed by flight number.
type FlightInfo struct {
	FlightNumber string `json:"flight_number"`
	DetailsText  string `json:"details_text"`
}

// BookingFilter narrows GetBookingsByUserID; zero values mean no filtering.
type BookingFilter struct {
	Origin      string
	Destination string
	Status      string
}
