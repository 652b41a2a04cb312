// package formatter renders events, swap requests and notifications as text tables, CSV, Markdown
// and iCalendar
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/shared"
)

// DateLayout is used for every human-readable date.
const DateLayout = "Mon Jan 2 2006 15:04"

// ProductID identifies exported calendars.
const ProductID = "-//desertthunder//shiftswap//EN"

// FormatDate renders t in local time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(DateLayout)
}

// SwappableLabel is the display form of the isSwappable flag.
func SwappableLabel(swappable bool) string {
	if swappable {
		return "Swappable"
	}
	return "Busy"
}

// EventsTable renders the current user's events.
func EventsTable(events []models.Event) string {
	if len(events) == 0 {
		return "No events yet.\n"
	}

	t := table.New().Headers("ID", "TITLE", "DATE", "STATUS")
	for _, e := range events {
		t.Row(e.ID, e.Title, FormatDate(e.Date), SwappableLabel(e.IsSwappable))
	}
	return t.String() + "\n"
}

// MarketTable renders other users' swappable events.
func MarketTable(events []models.Event) string {
	if len(events) == 0 {
		return "No swappable slots available.\n"
	}

	t := table.New().Headers("ID", "TITLE", "DATE", "POSTED BY")
	for _, e := range events {
		t.Row(e.ID, e.Title, FormatDate(e.Date), e.Owner.Label("Unknown"))
	}
	return t.String() + "\n"
}

// SwapSentence describes an incoming request the way the requests page does.
func SwapSentence(r models.SwapRequest) string {
	return fmt.Sprintf("%s wants to swap %s for your %s.",
		r.Requester.Label("Someone"), titleOrID(r.OfferedEvent), titleOrID(r.RequestedEvent))
}

// SwapsTable renders incoming and outgoing requests.
func SwapsTable(board models.SwapBoard) string {
	var b strings.Builder

	b.WriteString("Incoming Requests\n")
	if len(board.Incoming) == 0 {
		b.WriteString("No incoming requests\n")
	} else {
		t := table.New().Headers("ID", "FROM", "OFFERED", "FOR YOUR", "DATE", "STATUS")
		for _, r := range board.Incoming {
			t.Row(r.ID, r.Requester.Label("Someone"), titleOrID(r.OfferedEvent), titleOrID(r.RequestedEvent),
				FormatDate(r.RequestedEvent.Date), r.Status.Label())
		}
		b.WriteString(t.String() + "\n")
		for _, r := range board.Incoming {
			if r.Status == models.SwapPending {
				b.WriteString("  " + SwapSentence(r) + "\n")
			}
		}
	}

	b.WriteString("\nOutgoing Requests\n")
	if len(board.Outgoing) == 0 {
		b.WriteString("No outgoing requests\n")
	} else {
		t := table.New().Headers("ID", "OFFERED", "REQUESTED", "STATUS")
		for _, r := range board.Outgoing {
			t.Row(r.ID, titleOrID(r.OfferedEvent), titleOrID(r.RequestedEvent), r.Status.Label())
		}
		b.WriteString(t.String() + "\n")
	}

	return b.String()
}

// NotificationsTable renders recorded notification history.
func NotificationsTable(list []*models.Notification) string {
	if len(list) == 0 {
		return "No notifications.\n"
	}

	t := table.New().Headers("#", "KIND", "MESSAGE", "RECEIVED")
	for _, n := range list {
		t.Row(strconv.Itoa(n.Sequence()), n.Kind(), n.Message(), FormatDate(n.CreatedAt()))
	}
	return t.String() + "\n"
}

// EventsToCSV converts events to CSV with columns: ID, Title, Date, Owner, Swappable
func EventsToCSV(events []models.Event) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Title", "Date", "Owner", "Swappable"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range events {
		record := []string{
			e.ID,
			e.Title,
			e.Date.UTC().Format(time.RFC3339),
			e.Owner.Label(e.OwnerID()),
			strconv.FormatBool(e.IsSwappable),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// EventsToMarkdown renders events as a Markdown document titled heading.
func EventsToMarkdown(heading string, events []models.Event) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", heading)
	fmt.Fprintf(&buf, "**Events**: %d\n", len(events))
	fmt.Fprintf(&buf, "**Swappable**: %d\n\n", len(models.FilterSwappable(events)))

	if len(events) == 0 {
		buf.WriteString("_No events yet._\n")
		return buf.Bytes()
	}

	buf.WriteString("| Title | Date | Status |\n")
	buf.WriteString("| --- | --- | --- |\n")
	for _, e := range events {
		fmt.Fprintf(&buf, "| %s | %s | %s |\n", escapeCell(e.Title), FormatDate(e.Date), SwappableLabel(e.IsSwappable))
	}

	return buf.Bytes()
}

// EventsToICS exports events as an iCalendar document. Swappable events carry the SWAPPABLE category.
func EventsToICS(events []models.Event) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	stamp := time.Now().UTC()
	for _, e := range events {
		ve := cal.AddEvent(e.ID + "@shiftswap")
		ve.SetDtStampTime(stamp)
		ve.SetSummary(e.Title)
		ve.SetStartAt(e.Date.UTC())
		if e.IsSwappable {
			ve.AddProperty(ical.ComponentPropertyCategories, "SWAPPABLE")
		}
		if owner := e.Owner.Label(""); owner != "" {
			ve.SetDescription("Owner: " + owner)
		}
	}

	return []byte(cal.Serialize())
}

// ParseICS reads VEVENTs from an iCalendar document as event inputs.
// Events without a summary or start are skipped.
func ParseICS(r io.Reader) ([]models.EventInput, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("%w: calendar: %v", shared.ErrInvalidInput, err)
	}

	inputs := make([]models.EventInput, 0)
	for _, ve := range cal.Events() {
		summary := ""
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			summary = strings.TrimSpace(p.Value)
		}

		start, err := ve.GetStartAt()
		if err != nil {
			start, err = ve.GetAllDayStartAt()
		}
		if summary == "" || err != nil || start.IsZero() {
			continue
		}

		inputs = append(inputs, models.EventInput{Title: summary, Date: start})
	}

	return inputs, nil
}

func titleOrID(r models.EventRef) string {
	if r.Title != "" {
		return r.Title
	}
	if r.ID != "" {
		return r.ID
	}
	return "-"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
