// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import "time"

// Kind is the severity of a notification.
type Kind int

const (
	KindSuccess Kind = iota
	KindError
	KindInfo
)

// Display durations for upload notifications.
const (
	SuccessDuration = 2 * time.Second
	ErrorDuration   = 4 * time.Second
)

// Notification is a transient, non-blocking message about one file.
type Notification struct {
	Kind        Kind
	Title       string
	Description string
	Duration    time.Duration
}

// Notifier receives upload notifications. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

func success(title, desc string) Notification {
	return Notification{Kind: KindSuccess, Title: title, Description: desc, Duration: SuccessDuration}
}

func failure(title, desc string) Notification {
	return Notification{Kind: KindError, Title: title, Description: desc, Duration: ErrorDuration}
}
