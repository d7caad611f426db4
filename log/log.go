// Package log supplies leveled logging for allocator components.
// Applications can integrate with their own logging by supplying an
// object implementing the Logger interface to SetLogger, otherwise log
// lines are written to os.Stdout at info level.
package log

import "io"
import "os"
import "fmt"
import "sync"
import "time"
import "strings"

func init() {
	setts := map[string]interface{}{
		"log.level": "info",
		"log.file":  "",
	}
	SetLogger(nil, setts)
}

// Logger interface for allocator logging.
type Logger interface {
	SetLogLevel(string)
	Fatalf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Verbosef(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Tracef(format string, v ...interface{})
	Printlf(loglevel LogLevel, format string, v ...interface{})
}

// LogLevel defines log level.
type LogLevel int

const (
	logLevelIgnore LogLevel = iota + 1
	logLevelFatal
	logLevelError
	logLevelWarn
	logLevelInfo
	logLevelVerbose
	logLevelDebug
	logLevelTrace
)

var levelnames = map[LogLevel][2]string{
	logLevelIgnore:  {"ignore", "Ignor"},
	logLevelFatal:   {"fatal", "Fatal"},
	logLevelError:   {"error", "Error"},
	logLevelWarn:    {"warn", "Warng"},
	logLevelInfo:    {"info", "Infom"},
	logLevelVerbose: {"verbose", "Verbs"},
	logLevelDebug:   {"debug", "Debug"},
	logLevelTrace:   {"trace", "Trace"},
}

var loggermu sync.RWMutex
var log Logger

// SetLogger to integrate allocator logging with application logging.
// If `logger` is nil a default logger is created from settings,
// "log.level" and "log.file".
func SetLogger(logger Logger, setts map[string]interface{}) Logger {
	loggermu.Lock()
	defer loggermu.Unlock()

	if logger != nil {
		log = logger
		return log
	}

	var err error
	level := string2logLevel(setts["log.level"].(string))
	var output io.Writer = os.Stdout
	if logfile := setts["log.file"].(string); logfile != "" {
		flags := os.O_RDWR | os.O_APPEND | os.O_CREATE
		if output, err = os.OpenFile(logfile, flags, 0660); err != nil {
			panic(err)
		}
	}
	log = &defaultLogger{level: level, output: output}
	return log
}

func getlogger() Logger {
	loggermu.RLock()
	defer loggermu.RUnlock()
	return log
}

// defaultLogger with default log-file as os.Stdout and,
// default log-level as logLevelInfo.
type defaultLogger struct {
	mu     sync.Mutex
	level  LogLevel
	output io.Writer
}

func (l *defaultLogger) SetLogLevel(level string) {
	l.mu.Lock()
	l.level = string2logLevel(level)
	l.mu.Unlock()
}

func (l *defaultLogger) Fatalf(format string, v ...interface{}) {
	l.Printlf(logLevelFatal, format, v...)
}

func (l *defaultLogger) Errorf(format string, v ...interface{}) {
	l.Printlf(logLevelError, format, v...)
}

func (l *defaultLogger) Warnf(format string, v ...interface{}) {
	l.Printlf(logLevelWarn, format, v...)
}

func (l *defaultLogger) Infof(format string, v ...interface{}) {
	l.Printlf(logLevelInfo, format, v...)
}

func (l *defaultLogger) Verbosef(format string, v ...interface{}) {
	l.Printlf(logLevelVerbose, format, v...)
}

func (l *defaultLogger) Debugf(format string, v ...interface{}) {
	l.Printlf(logLevelDebug, format, v...)
}

func (l *defaultLogger) Tracef(format string, v ...interface{}) {
	l.Printlf(logLevelTrace, format, v...)
}

func (l *defaultLogger) Printlf(level LogLevel, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level <= l.level {
		ts := time.Now().Format("2006-01-02T15:04:05.999Z-07:00")
		fmt.Fprintf(l.output, ts+" ["+level.String()+"] "+format, v...)
	}
}

func (l LogLevel) String() string {
	if names, ok := levelnames[l]; ok {
		return names[1]
	}
	panic("unexpected log level") // should never reach here
}

func string2logLevel(s string) LogLevel {
	s = strings.ToLower(s)
	for level, names := range levelnames {
		if names[0] == s {
			return level
		}
	}
	panic(fmt.Errorf("unexpected log level %q", s))
}

// Fatalf log at fatal level, the process is not terminated.
func Fatalf(format string, v ...interface{}) {
	getlogger().Printlf(logLevelFatal, format, v...)
}

// Errorf log at error level.
func Errorf(format string, v ...interface{}) {
	getlogger().Printlf(logLevelError, format, v...)
}

// Warnf log at warning level.
func Warnf(format string, v ...interface{}) {
	getlogger().Printlf(logLevelWarn, format, v...)
}

// Infof log at info level.
func Infof(format string, v ...interface{}) {
	getlogger().Printlf(logLevelInfo, format, v...)
}

// Verbosef log at verbose level.
func Verbosef(format string, v ...interface{}) {
	getlogger().Printlf(logLevelVerbose, format, v...)
}

// Debugf log at debug level.
func Debugf(format string, v ...interface{}) {
	getlogger().Printlf(logLevelDebug, format, v...)
}

// Tracef log at trace level.
func Tracef(format string, v ...interface{}) {
	getlogger().Printlf(logLevelTrace, format, v...)
}
