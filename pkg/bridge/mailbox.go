package bridge

import (
	"sync"

	"github.com/open-teleop/robotbridge/pkg/robot"
)

// Mailbox is the command channel: capacity one, latest command wins.
type Mailbox struct {
	ch         chan robot.ActuatorCommand
	mu         sync.Mutex
	superseded uint64
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{ch: make(chan robot.ActuatorCommand, 1)}
}

// Post never blocks. A pending command that has not been taken yet is
// replaced by cmd.
func (m *Mailbox) Post(cmd robot.ActuatorCommand) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.ch:
		m.superseded++
	default:
	}
	m.ch <- cmd
}

// C is read by the single consumer.
func (m *Mailbox) C() <-chan robot.ActuatorCommand {
	return m.ch
}

// Superseded returns how many commands were replaced before being applied.
func (m *Mailbox) Superseded() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.superseded
}
