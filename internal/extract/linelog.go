package extract

import (
	"bytes"
	"log/slog"
	"strings"
)

// lineLogger is an io.Writer that emits one log record per output line.
type lineLogger struct {
	log    *slog.Logger
	stream string
	buf    bytes.Buffer
}

func newLineLogger(log *slog.Logger, stream string) *lineLogger {
	return &lineLogger{log: log, stream: stream}
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.buf.Write(p)
	for {
		i := bytes.IndexByte(l.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(l.buf.Next(i + 1))
		l.emit(line)
	}
	return len(p), nil
}

// Flush emits a trailing partial line.
func (l *lineLogger) Flush() {
	if l.buf.Len() > 0 {
		l.emit(l.buf.String())
		l.buf.Reset()
	}
}

func (l *lineLogger) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return
	}
	l.log.Info(line, "stream", l.stream)
}
