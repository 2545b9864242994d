// Package message routes chat messages onto logical channels: the single
// global broadcast channel, or one direct channel per unordered pair of
// principals. The nullable recipient column is a storage detail; above the
// store boundary a channel is always this tagged value.
package message

import (
	"fmt"

	"campus-relay/internal/store"
)

type Channel struct {
	broadcast bool
	a, b      string // direct pair, sorted so Direct(x,y) == Direct(y,x)
}

func Broadcast() Channel {
	return Channel{broadcast: true}
}

func Direct(a, b string) Channel {
	if a > b {
		a, b = b, a
	}
	return Channel{a: a, b: b}
}

func (c Channel) IsBroadcast() bool {
	return c.broadcast
}

// Members returns the direct pair. Only meaningful when !IsBroadcast().
func (c Channel) Members() (string, string) {
	return c.a, c.b
}

// Contains reports whether m belongs to this channel. This is the same
// predicate the load path uses, applied to push events so a stray event
// for another channel is dropped.
func (c Channel) Contains(m store.Message) bool {
	if c.broadcast {
		return m.RecipientID == nil
	}
	if m.RecipientID == nil {
		return false
	}
	x, y := m.SenderID, *m.RecipientID
	if x > y {
		x, y = y, x
	}
	return x == c.a && y == c.b
}

// ChannelOf derives the channel a stored message belongs to.
func ChannelOf(m store.Message) Channel {
	if m.RecipientID == nil {
		return Broadcast()
	}
	return Direct(m.SenderID, *m.RecipientID)
}

func (c Channel) String() string {
	if c.broadcast {
		return "broadcast"
	}
	return fmt.Sprintf("direct(%s,%s)", c.a, c.b)
}
