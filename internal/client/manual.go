package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cheildo/game-of-three/internal/protocol"
)

var _ Listener = (*Manual)(nil)

// Manual sends the numbers typed on its input. The first move of a game
// sends a resulting number, every later one an added value.
type Manual struct {
	in   io.Reader
	out  io.Writer
	quit func()
	now  func() time.Time

	startOnce sync.Once

	mu     sync.Mutex
	sender Sender
	moves  uint
}

// NewManual returns a listener reading moves from in. quit is called once
// in is exhausted.
func NewManual(in io.Reader, out io.Writer, quit func()) *Manual {
	return &Manual{
		in:   in,
		out:  out,
		quit: quit,
		now:  time.Now,
	}
}

func (m *Manual) OnConnected(ctx context.Context, s Sender, identity string) error {
	fmt.Fprintf(m.out, "Connected to the game server. Your username: %s\n", identity)

	m.mu.Lock()
	m.sender = s
	m.moves = 0
	m.mu.Unlock()

	m.startOnce.Do(func() {
		fmt.Fprintln(m.out, "Enter your moves:")
		go m.readInput()
	})
	return nil
}

func (m *Manual) OnMove(ctx context.Context, s Sender, move protocol.AppliedMove) error {
	m.mu.Lock()
	if move.Added != nil || m.moves == 0 {
		m.moves++
	}
	m.mu.Unlock()

	PrintMove(m.out, move, m.now())
	return nil
}

func (m *Manual) OnNotification(ctx context.Context, s Sender, n protocol.Notification) error {
	printNotification(m.out, n)
	if n.Ends() {
		m.mu.Lock()
		m.moves = 0
		m.mu.Unlock()
	}
	return nil
}

func (m *Manual) OnError(ctx context.Context, s Sender, e protocol.ErrorEvent) error {
	printError(m.out, e)
	return nil
}

func (m *Manual) readInput() {
	scanner := bufio.NewScanner(m.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		value, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintf(m.out, "Invalid number %q\n", line)
			continue
		}
		if err := m.send(value); err != nil {
			fmt.Fprintf(m.out, "Could not send move: %s\n", err)
		}
	}
	if m.quit != nil {
		m.quit()
	}
}

func (m *Manual) send(value int) error {
	m.mu.Lock()
	s, moves := m.sender, m.moves
	m.mu.Unlock()

	if moves == 0 {
		return s.SendMove(protocol.Move{ResultingNumber: protocol.Int(value)})
	}
	return s.SendMove(protocol.Move{Added: protocol.Int(value)})
}
