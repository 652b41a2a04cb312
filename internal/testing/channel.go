package testing

import (
	"context"
	"slices"
	"sync"
)

// FakeChannel records connection lifecycle calls made against a realtime channel.
type FakeChannel struct {
	mu          sync.Mutex
	user        string
	connects    []string
	disconnects int
	live        int
}

// Connect tags the fake with userID, closing any connection for a different id first.
func (c *FakeChannel) Connect(ctx context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.live == 1 && c.user == userID {
		return
	}
	if c.live == 1 {
		c.live = 0
	}
	c.user = userID
	c.live = 1
	c.connects = append(c.connects, userID)
}

// Disconnect closes the connection if one is open.
func (c *FakeChannel) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	c.live = 0
	c.user = ""
}

// UserID returns the id of the open connection, or "".
func (c *FakeChannel) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Live returns the number of open connections (0 or 1).
func (c *FakeChannel) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Connects returns the user ids passed to every accepted Connect, in order.
func (c *FakeChannel) Connects() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.connects)
}

// Disconnects returns how many times Disconnect was called.
func (c *FakeChannel) Disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}
