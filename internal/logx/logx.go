// Package logx provides the categorized loggers used throughout the
// protocol core. Dire Wolf tags every log line with one of a handful of
// colors (info, error, received, decoded, transmitted, debug); this
// package keeps that taxonomy as structured fields on top of
// charmbracelet/log rather than terminal color codes.
package logx

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// Category is the structured equivalent of Dire Wolf's dw_color_e.
type Category string

const (
	Info    Category = "info"
	Err     Category = "error"
	Recv    Category = "recv"
	Decoded Category = "decoded"
	Xmit    Category = "xmit"
	Debug   Category = "debug"
)

var base = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      time.StampMilli,
})

// SetOutput redirects all categorized loggers, e.g. to a rotating file.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// SetLevel adjusts verbosity for every category.
func SetLevel(l log.Level) {
	base.SetLevel(l)
}

// For returns a logger pre-tagged with cat and, when chan_ >= 0, a
// channel field, matching Dire Wolf's per-channel log lines.
func For(cat Category, chan_ int) *log.Logger {
	l := base.With("cat", string(cat))
	if chan_ >= 0 {
		l = l.With("chan", chan_)
	}
	return l
}

// RotatingFileName expands a strftime pattern for log-file rotation,
// e.g. "fskcore-%Y%m%d.log".
func RotatingFileName(pattern string, at time.Time) (string, error) {
	f, err := strftime.New(pattern)
	if err != nil {
		return "", err
	}
	return f.FormatString(at), nil
}
