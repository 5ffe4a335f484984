// Package logger writes one JSON object per line to stderr. Fields are
// key/value pairs; phone numbers in values are masked unless redaction is
// turned off.
package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents the severity of a log entry.
type Level int32

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
// Anything else is INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger writes structured entries to out.
type Logger struct {
	level     atomic.Int32
	redactPII atomic.Bool

	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

var defaultLogger = newLogger(os.Stderr)

func newLogger(out io.Writer) *Logger {
	l := &Logger{out: out, now: time.Now}
	l.level.Store(int32(INFO))
	l.redactPII.Store(true)
	return l
}

// SetLevel sets the minimum level written.
func SetLevel(l Level) { defaultLogger.level.Store(int32(l)) }

// SetRedactPII turns phone masking on or off.
func SetRedactPII(r bool) { defaultLogger.redactPII.Store(r) }

// SetOutput redirects the default logger. Used by tests.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defaultLogger.out = w
	defaultLogger.mu.Unlock()
}

// Debug logs at DEBUG level.
func Debug(msg string, fields ...interface{}) { defaultLogger.log(DEBUG, msg, fields...) }

// Info logs at INFO level.
func Info(msg string, fields ...interface{}) { defaultLogger.log(INFO, msg, fields...) }

// Warn logs at WARN level.
func Warn(msg string, fields ...interface{}) { defaultLogger.log(WARN, msg, fields...) }

// Error logs at ERROR level.
func Error(msg string, fields ...interface{}) { defaultLogger.log(ERROR, msg, fields...) }

// log writes time, level and msg first, then the fields in call order.
// A trailing key without a value is logged under "!extra".
func (l *Logger) log(level Level, msg string, fields ...interface{}) {
	if int32(level) < l.level.Load() {
		return
	}
	redact := l.redactPII.Load()

	var b bytes.Buffer
	b.WriteByte('{')
	writeField(&b, "time", l.now().UTC().Format(time.RFC3339))
	b.WriteByte(',')
	writeField(&b, "level", level.String())
	b.WriteByte(',')
	writeField(&b, "msg", msg)

	for i := 0; i < len(fields); i += 2 {
		if i+1 == len(fields) {
			b.WriteByte(',')
			writeField(&b, "!extra", fmt.Sprint(fields[i]))
			break
		}
		key := fmt.Sprint(fields[i])
		b.WriteByte(',')
		writeField(&b, key, fieldValue(key, fields[i+1], redact))
	}
	b.WriteString("}\n")

	l.mu.Lock()
	_, _ = l.out.Write(b.Bytes())
	l.mu.Unlock()
}

// fieldValue keeps numbers and booleans as JSON scalars. Everything else is
// logged as its string form, masked when redact is set.
func fieldValue(key string, v interface{}, redact bool) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case bool, int, int32, int64, uint, uint32, uint64, float64:
		if redact && isPhoneKey(key) {
			return RedactPhone(fmt.Sprint(val))
		}
		return val
	case time.Duration:
		return val.String()
	case error:
		return redactValue(key, val.Error(), redact)
	default:
		return redactValue(key, fmt.Sprint(val), redact)
	}
}

func redactValue(key, s string, redact bool) string {
	if !redact {
		return s
	}
	return redactPIIValue(key, s)
}

func writeField(b *bytes.Buffer, key string, v interface{}) {
	k, _ := json.Marshal(key)
	b.Write(k)
	b.WriteByte(':')
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprint(v))
	}
	b.Write(data)
}
