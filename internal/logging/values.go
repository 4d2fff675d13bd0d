package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const redacted = "<redacted>"

// secretKeys never reach a sink in clear text, whatever the handler.
var secretKeys = map[string]struct{}{
	"api_key":       {},
	"password":      {},
	"token":         {},
	"authorization": {},
}

func isSecret(key string) bool {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	_, ok := secretKeys[strings.ToLower(key)]
	return ok
}

// plainValue renders v without quoting, for header slots.
func plainValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindDuration:
		return roundDuration(v.Duration()).String()
	case slog.KindTime:
		return consoleTime(v.Time())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// consoleValue renders the value of key for a field line. Strings that would
// be ambiguous in key: value form are quoted.
func consoleValue(key string, v slog.Value) string {
	if isSecret(key) {
		return redacted
	}
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool, slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindDuration, slog.KindTime:
		return plainValue(v)
	}
	s := plainValue(v)
	if s == "" || strings.ContainsAny(s, "\"=\n\t") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		return strconv.Quote(s)
	}
	return s
}

// roundDuration trims sub-millisecond noise from timings.
func roundDuration(d time.Duration) time.Duration {
	if d >= time.Millisecond {
		return d.Round(time.Millisecond)
	}
	return d
}

func consoleTime(ts time.Time) string {
	return ts.Local().Format("2006-01-02 15:04:05")
}
