package console

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// AnonymousNick is used for lines that carry no "nick:" prefix.
const AnonymousNick = "anonymous"

// WriterSink writes each quiz line to w followed by a newline.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Send(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, text+"\n")
	return err
}

// Run reads "nick: message" lines from r and dispatches them in order until
// EOF or until ctx is done.
func Run(ctx context.Context, r io.Reader, d *Dispatcher) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		from, message := ParseLine(line)
		d.Dispatch(ctx, from, message)
	}
	return scanner.Err()
}

// ParseLine splits a console line into sender and message.
func ParseLine(line string) (from, message string) {
	nick, msg, ok := strings.Cut(line, ":")
	nick = strings.TrimSpace(nick)
	if !ok || nick == "" || strings.ContainsAny(nick, " \t") {
		return AnonymousNick, strings.TrimSpace(line)
	}
	return nick, strings.TrimSpace(msg)
}
