package tui

import (
	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/store"
)

// ChannelNotifier adapts domain.Notifier to a channel for Bubble Tea.
type ChannelNotifier struct {
	ch chan domain.Notification
}

// NewChannelNotifier creates a notifier buffering up to size toasts
func NewChannelNotifier(size int) *ChannelNotifier {
	return &ChannelNotifier{ch: make(chan domain.Notification, size)}
}

// Notify sends the notification to the channel (non-blocking if full).
func (n *ChannelNotifier) Notify(msg domain.Notification) {
	select {
	case n.ch <- msg:
	default: // Drop rather than stall a persistence lane
	}
}

// C returns the receive side
func (n *ChannelNotifier) C() <-chan domain.Notification {
	return n.ch
}

// watchStore forwards ListStore changes as coalesced ticks. The send never
// blocks, so a slow UI cannot stall writers.
func watchStore(st *store.ListStore) <-chan struct{} {
	ch := make(chan struct{}, 1)
	st.Subscribe(func() {
		select {
		case ch <- struct{}{}:
		default: // A change is already queued
		}
	})
	return ch
}
