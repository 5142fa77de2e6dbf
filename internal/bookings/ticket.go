package bookings

import (
	"bytes"
	"fmt"
	"time"

	"busline/internal/buses"

	"github.com/phpdave11/gofpdf"
)

// TicketOptions controls ticket rendering. FontFile is a UTF-8 TrueType font used for
// every style; without it the core Helvetica font is used and text is mapped to cp1252.
type TicketOptions struct {
	FontFile string
}

type ticketWriter struct {
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
}

func newTicketWriter(opts TicketOptions) (*ticketWriter, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	if opts.FontFile == "" {
		return &ticketWriter{pdf: pdf, family: "Helvetica", tr: pdf.UnicodeTranslatorFromDescriptor("")}, nil
	}

	for _, style := range []string{"", "B", "I"} {
		pdf.AddUTF8Font("ticket", style, opts.FontFile)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to load ticket font %s: %w", opts.FontFile, err)
	}
	return &ticketWriter{pdf: pdf, family: "ticket", tr: func(s string) string { return s }}, nil
}

// RenderTicket draws a one-page e-ticket for a confirmed booking
func RenderTicket(booking *Booking, bus *buses.BusResponse, opts TicketOptions) ([]byte, error) {
	w, err := newTicketWriter(opts)
	if err != nil {
		return nil, err
	}
	pdf, tr := w.pdf, w.tr
	pdf.SetTitle("E-Ticket "+booking.BookingRef, true)
	pdf.AddPage()

	pdf.SetFont(w.family, "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont(w.family, "", 12)
	lines := []string{
		"Booking ref : " + booking.BookingRef,
		"Status      : " + booking.Status.String(),
	}
	if bus != nil {
		lines = append(lines,
			"Bus         : "+bus.Name+" ("+bus.OperatorName+")",
			"Route       : "+bus.Origin+" - "+bus.Destination,
			"Departure   : "+bus.DepartureAt.Format("2006-01-02 15:04"),
		)
	}
	lines = append(lines,
		"Boarding    : "+booking.Boarding.Name+" "+booking.Boarding.Time,
		"Dropping    : "+booking.Dropping.Name+" "+booking.Dropping.Time,
		"Contact     : "+booking.Contact.Name+" / "+booking.Contact.Phone,
	)
	for _, line := range lines {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont(w.family, "B", 12)
	pdf.CellFormat(25, 8, "Seat", "1", 0, "", false, 0, "")
	pdf.CellFormat(85, 8, "Passenger", "1", 0, "", false, 0, "")
	pdf.CellFormat(20, 8, "Age", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 8, "Fare", "1", 1, "R", false, 0, "")

	pdf.SetFont(w.family, "", 12)
	for _, seat := range booking.Seats {
		pdf.CellFormat(25, 8, seat.SeatID, "1", 0, "", false, 0, "")
		pdf.CellFormat(85, 8, tr(seat.Passenger.Name), "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", seat.Passenger.Age), "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d", seat.Price), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont(w.family, "B", 12)
	pdf.CellFormat(130, 8, "Total", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", booking.TotalAmount), "1", 1, "R", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont(w.family, "I", 10)
	pdf.MultiCell(0, 6, "Issued "+time.Now().UTC().Format(time.RFC1123)+". Show this ticket at boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render ticket: %w", err)
	}
	return buf.Bytes(), nil
}
