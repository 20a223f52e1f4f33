package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gateready.app/booking-assistant/internal/llm"
	"gateready.app/booking-assistant/internal/store"
)

// Composer renders user-facing text from retrieved records. It prefers the
// grounded LLM render and always has a deterministic template to fall back
// on, so a renderer outage never surfaces to the conversation.
type Composer struct {
	llm llm.Client
}

func NewComposer(llmClient llm.Client) *Composer {
	return &Composer{llm: llmClient}
}

// BookingSummary renders one booking as a single sentence. The fallback
// template interpolates exactly the payload fields and nothing else.
func (c *Composer) BookingSummary(ctx context.Context, booking *store.Booking) string {
	fields := llm.BookingFields{
		FlightNumber: booking.FlightNumber,
		Origin:       booking.Origin,
		Destination:  booking.Destination,
		Date:         FormatISODate(booking.Date),
		Status:       booking.Status,
	}

	text, err := c.llm.BookingSummary(ctx, fields)
	if err != nil || text == "" {
		if err != nil && err != llm.ErrUnavailable {
			log.Printf("Booking summary render failed, using template: %v", err)
		}
		return fmt.Sprintf("Your latest booking is %s from %s to %s on %s (status: %s).",
			fields.FlightNumber, fields.Origin, fields.Destination, fields.Date, fields.Status)
	}
	return text
}

// FlightInfoAnswer grounds a reply in the details blob and the user's literal
// question, with a generic line when the renderer is unavailable.
func (c *Composer) FlightInfoAnswer(ctx context.Context, flightNumber, detailsText, question string) string {
	text, err := c.llm.FlightInfoAnswer(ctx, detailsText, question)
	if err != nil || text == "" {
		if err != nil && err != llm.ErrUnavailable {
			log.Printf("Flight info render failed, using template: %v", err)
		}
		return fmt.Sprintf("Here are the details for flight %s.", flightNumber)
	}
	return text
}

// FlightLine is the deterministic render for a specific-flight lookup; this
// branch never consults the LLM.
func FlightLine(booking *store.Booking) string {
	return fmt.Sprintf("Flight %s is from %s to %s on %s (status: %s).",
		booking.FlightNumber, booking.Origin, booking.Destination, FormatISODate(booking.Date), booking.Status)
}

// BookingLine is one entry in a multi-booking listing.
func BookingLine(booking *store.Booking) string {
	return fmt.Sprintf("%s: %s → %s on %s (%s)",
		booking.FlightNumber, booking.Origin, booking.Destination, FormatISODate(booking.Date), booking.Status)
}

// FormatISODate renders an ISO-8601 timestamp in the local zone as
// "Mon DD, YYYY at HH:MM AM/PM TZ". Empty input reads as "an unknown time";
// anything unparseable passes through unchanged.
func FormatISODate(value string) string {
	if value == "" {
		return "an unknown time"
	}

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		// Accept a bare timestamp with no offset, read as UTC.
		parsed, err = time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(value, "Z"))
		if err != nil {
			return value
		}
		parsed = parsed.UTC()
	}
	return parsed.Local().Format("Jan 02, 2006 at 03:04 PM MST")
}
