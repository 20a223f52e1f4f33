package api

import (
	"fmt"

	"gateready.app/booking-assistant/internal/auth"
	"gateready.app/booking-assistant/internal/store"
)

const (
	demoUserID   = "user_123"
	demoUsername = "user_123"
	demoPassword = "demo-pass"
)

// EnsureDemoUser creates the demo account if it does not exist yet.
func EnsureDemoUser(db *store.SQLiteStore) error {
	existing, err := db.GetUserByUsername(demoUsername)
	if err != nil {
		return fmt.Errorf("failed to check demo user: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}
	_, err = db.CreateUser(demoUserID, demoUsername, hash)
	return err
}

// Seed initializes the demo user plus sample bookings and flight info for
// local testing.
func Seed(db *store.SQLiteStore) error {
	if err := EnsureDemoUser(db); err != nil {
		return err
	}

	existing, err := db.GetBookingByFlight(demoUserID, "AI-888")
	if err != nil {
		return err
	}
	if existing == nil {
		bookings := []store.Booking{
			{
				BookingID:    "booking_101",
				UserID:       demoUserID,
				FlightNumber: "AI-888",
				Origin:       "Pune",
				Destination:  "Delhi",
				Date:         "2026-03-10T14:00:00Z",
				Status:       "Confirmed",
			},
			{
				BookingID:    "booking_102",
				UserID:       demoUserID,
				FlightNumber: "AI-999",
				Origin:       "Delhi",
				Destination:  "Mumbai",
				Date:         "2026-04-01T09:30:00Z",
				Status:       "Confirmed",
			},
		}
		for i := range bookings {
			if err := db.CreateBooking(&bookings[i]); err != nil {
				return err
			}
		}
	}

	infos := []store.FlightInfo{
		{
			FlightNumber: "AI-888",
			DetailsText: "Flight AI-888 uses an Airbus A320. Complimentary snack and beverage are provided. " +
				"Baggage allowance is 15kg checked and 7kg cabin. Wi-Fi is not available. " +
				"Seat pitch is 30 in. USB charging is available on select rows.",
		},
		{
			FlightNumber: "AI-999",
			DetailsText: "Flight AI-999 uses a Boeing 737-8. Complimentary meal for flights over 2 hours. " +
				"Baggage allowance is 20kg checked and 7kg cabin. Wi-Fi is available (paid). " +
				"Seat pitch is 31 in. Exit rows offer extra legroom.",
		},
	}
	for i := range infos {
		if err := db.UpsertFlightInfo(&infos[i]); err != nil {
			return err
		}
	}
	return nil
}
