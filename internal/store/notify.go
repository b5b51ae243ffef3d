// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "sync"

// notifier calls a listener after each mutation. It is embedded by the
// stores; the listener runs outside the store lock.
type notifier struct {
	listenerMu sync.RWMutex
	listener   func()
}

// OnChange registers fn to run after every mutation, replacing any earlier
// listener. fn must not block; the TUI uses it to post a redraw message.
func (n *notifier) OnChange(fn func()) {
	n.listenerMu.Lock()
	n.listener = fn
	n.listenerMu.Unlock()
}

func (n *notifier) notify() {
	n.listenerMu.RLock()
	fn := n.listener
	n.listenerMu.RUnlock()
	if fn != nil {
		fn()
	}
}
