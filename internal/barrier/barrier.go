// Package barrier holds the single pending command for the entry gate.
//
// The gate controller polls for a command. An "open" command is delivered
// exactly once and the channel then falls back to "wait".
package barrier

import (
	"log/slog"
	"sync"
)

type Command string

const (
	CommandWait Command = "wait"
	CommandOpen Command = "open"
)

type Channel struct {
	mu      sync.Mutex
	command Command
	logger  *slog.Logger
}

func New() *Channel {
	return &Channel{
		command: CommandWait,
		logger:  slog.With("component", "barrier"),
	}
}

// SetOpen requests the gate to open. Repeated calls before a poll collapse
// into a single open.
func (c *Channel) SetOpen() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.command == CommandOpen {
		c.logger.Debug("Open command already pending")
	}
	c.command = CommandOpen
}

// PollAndConsume returns the pending command and resets the channel to wait.
func (c *Channel) PollAndConsume() Command {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmd := c.command
	c.command = CommandWait
	if cmd == CommandOpen {
		c.logger.Info("Open command delivered")
	}
	return cmd
}

// Peek returns the pending command without consuming it.
func (c *Channel) Peek() Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.command
}
