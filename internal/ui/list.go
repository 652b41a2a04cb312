package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/shiftswap/internal/formatter"
	"github.com/desertthunder/shiftswap/internal/models"
)

var (
	_ list.Item = eventItem{}
	_ list.Item = marketItem{}
	_ list.Item = swapItem{}
)

// eventItem wraps one of the user's own [models.Event] to implement [list.Item].
type eventItem struct {
	event models.Event
}

func (i eventItem) FilterValue() string { return i.event.Title }
func (i eventItem) Title() string       { return i.event.Title }
func (i eventItem) Description() string {
	return fmt.Sprintf("%s • %s", formatter.FormatDate(i.event.Date), formatter.SwappableLabel(i.event.IsSwappable))
}

// marketItem wraps another user's swappable [models.Event].
type marketItem struct {
	event models.Event
}

func (i marketItem) FilterValue() string { return i.event.Title }
func (i marketItem) Title() string       { return i.event.Title }
func (i marketItem) Description() string {
	return fmt.Sprintf("%s • Posted by %s", formatter.FormatDate(i.event.Date), i.event.Owner.Label("Unknown"))
}

// swapItem wraps a [models.SwapRequest] from either side of the board.
type swapItem struct {
	swap     models.SwapRequest
	incoming bool
}

func (i swapItem) FilterValue() string { return i.Title() }
func (i swapItem) Title() string {
	if i.incoming {
		return formatter.SwapSentence(i.swap)
	}
	return fmt.Sprintf("You offered %s for %s", i.swap.OfferedEvent.Title, i.swap.RequestedEvent.Title)
}
func (i swapItem) Description() string {
	direction := "Outgoing"
	if i.incoming {
		direction = "Incoming"
	}
	return fmt.Sprintf("%s • %s", direction, i.swap.Status.Label())
}

func eventItems(events []models.Event) []list.Item {
	items := make([]list.Item, len(events))
	for i, e := range events {
		items[i] = eventItem{event: e}
	}
	return items
}

func marketItems(events []models.Event) []list.Item {
	items := make([]list.Item, len(events))
	for i, e := range events {
		items[i] = marketItem{event: e}
	}
	return items
}

func swapItems(board models.SwapBoard) []list.Item {
	items := make([]list.Item, 0, len(board.Incoming)+len(board.Outgoing))
	for _, r := range board.Incoming {
		items = append(items, swapItem{swap: r, incoming: true})
	}
	for _, r := range board.Outgoing {
		items = append(items, swapItem{swap: r})
	}
	return items
}
