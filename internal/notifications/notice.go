package notifications

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a short, transient message for the user.
type Notice struct {
	Level   Level
	Message string
}

func Success(format string, args ...interface{}) Notice {
	return Notice{Level: LevelSuccess, Message: fmt.Sprintf(format, args...)}
}

func Failure(format string, args ...interface{}) Notice {
	return Notice{Level: LevelError, Message: fmt.Sprintf(format, args...)}
}

type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// LogNotifier writes notices to the global logger.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notice) {
	if n.Level == LevelError {
		log.Warn().Str("notice", n.Message).Msg("User notice")
		return
	}
	log.Info().Str("notice", n.Message).Msg("User notice")
}

// WriterNotifier prints notices, one per line.
type WriterNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriterNotifier(out io.Writer) *WriterNotifier {
	return &WriterNotifier{out: out}
}

func (w *WriterNotifier) Notify(ctx context.Context, n Notice) {
	w.mu.Lock()
	defer w.mu.Unlock()

	mark := "ok"
	if n.Level == LevelError {
		mark = "error"
	}
	fmt.Fprintf(w.out, "[%s] %s\n", mark, n.Message)
}

// Multi fans a notice out to every non-nil notifier.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}
