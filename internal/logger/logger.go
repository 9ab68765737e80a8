package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color" // Colored level output
	"github.com/sirupsen/logrus"
)

// base carries debug, info and warn lines; errBase carries errors so they
// reach stderr. Callers keep the "[LEVEL] message\n" convention; the
// formatter only adds color.
var (
	base    = newBase(os.Stdout)
	errBase = newBase(os.Stderr)
)

// Info logs informational messages in green color.
var Info = printfFunc(logrus.InfoLevel)

// Warn logs warning messages in bright magenta color.
var Warn = printfFunc(logrus.WarnLevel)

// Error logs error messages in red color.
var Error = printfFunc(logrus.ErrorLevel)

// Debug logs debug messages in cyan color if enabled, otherwise is a no-op.
// It is assigned during Init based on the --debug flag.
var Debug = func(format string, a ...any) {}

// Init enables or disables debug logging.
func Init(enableDebug bool) {
	if enableDebug {
		base.SetLevel(logrus.DebugLevel)
		Debug = printfFunc(logrus.DebugLevel)
	} else {
		base.SetLevel(logrus.InfoLevel)
		Debug = func(format string, a ...any) {}
	}
}

// SetOutput redirects log output, e.g. to buffers in tests. Error lines go
// to errOut, everything else to out.
func SetOutput(out, errOut io.Writer) {
	base.SetOutput(out)
	errBase.SetOutput(errOut)
}

func newBase(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&colorFormatter{})
	return l
}

// printfFunc returns a fmt.Printf-like function bound to a logrus level.
func printfFunc(level logrus.Level) func(format string, a ...any) {
	l := base
	if level <= logrus.ErrorLevel {
		l = errBase
	}
	return func(format string, a ...any) {
		l.Log(level, strings.TrimSuffix(fmt.Sprintf(format, a...), "\n"))
	}
}

// colorFormatter renders the bare message in the color of its level.
type colorFormatter struct{}

var levelColors = map[logrus.Level]*color.Color{
	logrus.DebugLevel: color.New(color.FgCyan),
	logrus.InfoLevel:  color.New(color.FgGreen),
	logrus.WarnLevel:  color.New(color.FgHiMagenta),
	logrus.ErrorLevel: color.New(color.FgRed),
}

func (f *colorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	msg := entry.Message
	if c, ok := levelColors[entry.Level]; ok {
		msg = c.Sprint(msg)
	}
	return []byte(msg + "\n"), nil
}
