package log

import "os"
import "bytes"
import "testing"
import "strings"
import "path/filepath"

import "github.com/stretchr/testify/require"

func TestSetLogger(t *testing.T) {
	logfile := filepath.Join(t.TempDir(), "setlogger_test.log.file")
	logline := "hello world\n"

	ref := &defaultLogger{level: logLevelIgnore, output: nil}
	log := SetLogger(ref, nil).(*defaultLogger)
	if log.level != logLevelIgnore || log.output != nil {
		t.Errorf("expected %v, got %v", ref, log)
	}

	setts := map[string]interface{}{
		"log.level": "info",
		"log.file":  logfile,
	}
	clog := SetLogger(nil, setts)
	clog.Infof(logline)
	clog.Verbosef(logline)
	clog.Debugf(logline)
	clog.Tracef(logline)
	data, err := os.ReadFile(logfile)
	require.NoError(t, err)
	if s := string(data); !strings.Contains(s, "[Infom] hello world") {
		t.Errorf("expected %v, got %v", logline, s)
	} else if n := strings.Count(s, "\n"); n != 1 {
		t.Errorf("expected %v, got %v", 1, n)
	}

	// restore default.
	SetLogger(nil, map[string]interface{}{"log.level": "info", "log.file": ""})
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := &defaultLogger{level: logLevelWarn, output: &buf}
	SetLogger(logger, nil)
	defer SetLogger(nil, map[string]interface{}{"log.level": "info", "log.file": ""})

	Fatalf("fatal\n")
	Errorf("error\n")
	Warnf("warn\n")
	Infof("info\n")
	Debugf("debug\n")
	out := buf.String()
	for _, s := range []string{"[Fatal] fatal", "[Error] error", "[Warng] warn"} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in %q", s, out)
		}
	}
	if strings.Contains(out, "info") || strings.Contains(out, "debug") {
		t.Errorf("unexpected %q", out)
	}

	logger.SetLogLevel("trace")
	Tracef("trace\n")
	if !strings.Contains(buf.String(), "[Trace] trace") {
		t.Errorf("unexpected %q", buf.String())
	}
}

func TestLogPrefix(t *testing.T) {
	if ref, s := "Ignor", logLevelIgnore.String(); ref != s {
		t.Errorf("expected %v, got %v", ref, s)
	} else if ref, s = "Fatal", logLevelFatal.String(); ref != s {
		t.Errorf("expected %v, got %v", ref, s)
	} else if ref, s = "Error", logLevelError.String(); ref != s {
		t.Errorf("expected %v, got %v", ref, s)
	} else if ref, s = "Warng", logLevelWarn.String(); ref != s {
		t.Errorf("expected %v, got %v", ref, s)
	} else if ref, s = "Infom", logLevelInfo.String(); ref != s {
		t.Errorf("expected %v, got %v", ref, s)
	} else if ref, s = "Verbs", logLevelVerbose.String(); ref != s {
		t.Errorf("expected %v, got %v", ref, s)
	} else if ref, s = "Debug", logLevelDebug.String(); ref != s {
		t.Errorf("expected %v, got %v", ref, s)
	} else if ref, s = "Trace", logLevelTrace.String(); ref != s {
		t.Errorf("expected %v, got %v", ref, s)
	}
}

func TestLogLevelSettings(t *testing.T) {
	if r, l := logLevelIgnore, string2logLevel("ignore"); r != l {
		t.Errorf("expected %v, got %v", r, l)
	} else if r, l = logLevelFatal, string2logLevel("Fatal"); r != l {
		t.Errorf("expected %v, got %v", r, l)
	} else if r, l = logLevelError, string2logLevel("error"); r != l {
		t.Errorf("expected %v, got %v", r, l)
	} else if r, l = logLevelWarn, string2logLevel("warn"); r != l {
		t.Errorf("expected %v, got %v", r, l)
	} else if r, l = logLevelInfo, string2logLevel("INFO"); r != l {
		t.Errorf("expected %v, got %v", r, l)
	} else if r, l = logLevelVerbose, string2logLevel("verbose"); r != l {
		t.Errorf("expected %v, got %v", r, l)
	} else if r, l = logLevelDebug, string2logLevel("debug"); r != l {
		t.Errorf("expected %v, got %v", r, l)
	} else if r, l = logLevelTrace, string2logLevel("trace"); r != l {
		t.Errorf("expected %v, got %v", r, l)
	}

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		string2logLevel("loud")
	}()
}
