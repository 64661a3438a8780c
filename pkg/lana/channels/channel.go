// Package channels defines the interface and types for Lana's message
// transports. Each transport implements Channel so the assistant can route
// incoming messages through the same pipeline regardless of origin.
package channels

import (
	"context"
	"fmt"
	"time"
)

// Channel defines the interface a message transport must implement.
type Channel interface {
	// Name returns the channel identifier (e.g. "telegram").
	Name() string

	// Connect establishes the connection to the messaging platform.
	Connect(ctx context.Context) error

	// Disconnect gracefully closes the connection.
	Disconnect() error

	// Send sends a message to the specified chat.
	Send(ctx context.Context, to string, message *OutgoingMessage) error

	// Receive returns a Go channel emitting incoming messages.
	Receive() <-chan *IncomingMessage

	// SendTyping shows a "typing..." indicator while a message is processed.
	SendTyping(ctx context.Context, to string) error

	// IsConnected reports whether the channel is connected.
	IsConnected() bool
}

// IncomingMessage represents a message received from a channel.
type IncomingMessage struct {
	// ID is the platform message identifier.
	ID string

	// From is the sender identifier on the platform.
	From string

	// FromName is the sender display name (if available).
	FromName string

	// ChatID is the chat identifier; it doubles as the user identifier
	// for the assistant's store.
	ChatID string

	// Content is the message text.
	Content string

	// IsCommand reports whether the message is a structural command
	// ("/start" and friends) rather than free text.
	IsCommand bool

	// Timestamp is when the message was sent.
	Timestamp time.Time
}

// Button is an inline button attached to an outgoing message.
type Button struct {
	// Text is the button label.
	Text string

	// URL opens a regular link; WebAppURL opens the companion web app.
	// Exactly one should be set.
	URL       string
	WebAppURL string
}

// OutgoingMessage represents a reply to be sent through a channel.
type OutgoingMessage struct {
	// Content is the message text.
	Content string

	// Markdown requests rich formatting. Channels degrade to plain text
	// when the platform rejects the formatting.
	Markdown bool

	// Buttons are rendered as an inline keyboard where supported.
	Buttons []Button
}

// Errors.
var (
	ErrChannelDisconnected = fmt.Errorf("channel is not connected")
	ErrSendFailed          = fmt.Errorf("failed to send message")
)
