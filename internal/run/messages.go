package run

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/rs/zerolog"
	"gopkg.in/cenkalti/backoff.v1"
)

const (
	MESSAGE_KIND_DIAGNOSTIC = "diagnostic"
	MESSAGE_KIND_FILE_DONE  = "done"

	MAX_MESSAGE_SIZE = 1 << 20

	WRITE_RETRY_INITIAL_INTERVAL = 5 * time.Millisecond
	WRITE_RETRY_MAX_ELAPSED_TIME = time.Second
)

var ErrMessageTooLarge = errors.New("message is too large")

// message is a line of the worker channel.
type message struct {
	Kind       string             `json:"kind"`
	Worker     int                `json:"worker"`
	File       string             `json:"file,omitempty"`
	Diagnostic *report.Diagnostic `json:"diagnostic,omitempty"`
	Checks     int64              `json:"checks,omitempty"`
}

// messageWriter writes newline-framed JSON messages, it is shared by the workers.
// Failed writes are retried with an exponential backoff until WRITE_RETRY_MAX_ELAPSED_TIME.
type messageWriter struct {
	lock   sync.Mutex
	w      io.Writer
	logger zerolog.Logger
}

func newMessageWriter(w io.Writer, logger zerolog.Logger) *messageWriter {
	return &messageWriter{w: w, logger: logger}
}

func (mw *messageWriter) send(msg message) error {
	line, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode a worker message: %w", err)
	}
	if len(line) >= MAX_MESSAGE_SIZE {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(line))
	}
	line = append(line, '\n')

	mw.lock.Lock()
	defer mw.lock.Unlock()

	written := 0
	var closedErr error

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = WRITE_RETRY_INITIAL_INTERVAL
	strategy.MaxElapsedTime = WRITE_RETRY_MAX_ELAPSED_TIME

	err = backoff.RetryNotify(func() error {
		n, err := mw.w.Write(line[written:])
		written += n
		if errors.Is(err, io.ErrClosedPipe) {
			//the reader is gone, retrying is pointless
			closedErr = err
			return nil
		}
		return err
	}, strategy, func(err error, wait time.Duration) {
		mw.logger.Warn().Err(err).Dur("wait", wait).Msg("failed to write a worker message, retrying")
	})

	if closedErr != nil {
		return closedErr
	}
	return err
}

// readMessages decodes the messages read from r until EOF and calls handle for each of them.
func readMessages(r io.Reader, handle func(msg message)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MAX_MESSAGE_SIZE+1)

	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			return fmt.Errorf("invalid worker message: %w", err)
		}
		handle(msg)
	}
	return scanner.Err()
}
