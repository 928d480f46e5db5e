package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

type entry struct {
	Level   string         `json:"level"`
	Time    string         `json:"time"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

var (
	out      io.Writer = os.Stdout
	minLevel           = rank(os.Getenv("CHIRPD_LOG_LEVEL"))
)

// SetOutput redirects log lines, mainly for tests.
func SetOutput(w io.Writer) { out = w }

func rank(level string) int {
	switch level {
	case "debug":
		return 0
	case "error":
		return 2
	}
	return 1
}

func Log(level, msg string, fields map[string]any) {
	if rank(level) < minLevel {
		return
	}
	e := entry{Level: level, Time: time.Now().UTC().Format(time.RFC3339Nano), Message: msg, Fields: fields}
	b, _ := json.Marshal(e)
	fmt.Fprintln(out, string(b))
}

func Debug(msg string, fields map[string]any) { Log("debug", msg, fields) }
func Info(msg string, fields map[string]any)  { Log("info", msg, fields) }
func Error(msg string, fields map[string]any) { Log("error", msg, fields) }
