// Package terminal reads operator commands from the server's stdin.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

const (
	// DefaultBuffer is the default channel buffer size for command lines.
	DefaultBuffer = 64

	// DefaultMaxLineSize is the default maximum size (in bytes) of a single command line.
	DefaultMaxLineSize = 64 * 1024
)

// Config holds tunable parameters for the terminal source.
type Config struct {
	BufferSize  int
	MaxLineSize int
}

// CommandHandler runs one command line and returns the reply to print.
type CommandHandler interface {
	HandleTerminalCommand(line string) (string, bool)
}

// Source reads command lines from a reader, stdin by default.
type Source struct {
	ch       chan string
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewSource creates a Source that reads from stdin in a background goroutine.
func NewSource(ctx context.Context, conf ...Config) *Source {
	return newSourceWithReader(ctx, os.Stdin, conf...)
}

func newSourceWithReader(ctx context.Context, r io.Reader, conf ...Config) *Source {
	bufferSize := DefaultBuffer
	maxLineSize := DefaultMaxLineSize
	if len(conf) > 0 {
		if conf[0].BufferSize > 0 {
			bufferSize = conf[0].BufferSize
		}
		if conf[0].MaxLineSize > 0 {
			maxLineSize = conf[0].MaxLineSize
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Source{
		ch:     make(chan string, bufferSize),
		cancel: cancel,
	}
	go s.read(ctx, r, maxLineSize)
	return s
}

func (s *Source) read(ctx context.Context, r io.Reader, maxLineSize int) {
	defer close(s.ch)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(4096, maxLineSize)), maxLineSize)

	// A single goroutine owns the blocking scan so cancellation does not
	// wait on the next line.
	results := make(chan string)
	go func() {
		defer close(results)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			select {
			case results <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				log.Printf("terminal: line exceeded max size (%d bytes), stopping terminal source", maxLineSize)
				return
			}
			log.Printf("terminal: scanner error: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-results:
			if !ok {
				return
			}
			select {
			case s.ch <- line:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Source) Lines() <-chan string { return s.ch }
func (s *Source) Stop()                { s.stopOnce.Do(s.cancel) }

// Serve hands each line to h and writes replies to w until the source is
// exhausted or ctx is done.
func Serve(ctx context.Context, src *Source, h CommandHandler, w io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-src.Lines():
			if !ok {
				return nil
			}
			reply, ok := h.HandleTerminalCommand(line)
			if !ok {
				continue
			}
			if _, err := fmt.Fprintln(w, reply); err != nil {
				return fmt.Errorf("terminal: write reply: %w", err)
			}
		}
	}
}
