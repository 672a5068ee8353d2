package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"glidecomp/pkg/logging"
)

// key=value or key="value with spaces"
var logRegex = regexp.MustCompile(`([a-zA-Z0-9_\-.]+)=(?:"([^"]*)"|([^ ]+))`)

// maxParamLen drops long attributes such as flight ids from the status line.
const maxParamLen = 20

// handleLatestLog returns the last captured server log line, condensed.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	writeLine(w, "log", formatLogLine(logging.GlobalLogCapture.GetLastLine()))
}

// EventsResponse lists recent flight events (takeoff, leg start, restore, landing).
type EventsResponse struct {
	Event  string   `json:"event"`
	Recent []string `json:"recent"`
}

func handleLatestEvent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, EventsResponse{
		Event:  logging.GlobalEventCapture.GetLastLine(),
		Recent: logging.GlobalEventCapture.Lines(),
	})
}

func writeLine(w http.ResponseWriter, key, line string) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{key: line}); err != nil {
		slog.Error("Failed to write log response", "error", err)
	}
}

// formatLogLine turns a slog text line into "HH:MM:SS msg (k=v, ...)".
// Level is dropped and attributes are sorted.
func formatLogLine(raw string) string {
	matches := logRegex.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return raw
	}

	var msg, clock string
	var params []string

	for _, m := range matches {
		key, val := m[1], m[2]
		if val == "" {
			val = m[3]
		}
		val = strings.TrimSpace(val)

		switch key {
		case "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				clock = t.Format("15:04:05")
			}
		case "level":
		case "msg":
			msg = val
		default:
			if len(val) <= maxParamLen {
				params = append(params, fmt.Sprintf("%s=%s", key, val))
			}
		}
	}

	if msg == "" {
		return raw
	}

	sort.Strings(params)

	out := msg
	if clock != "" {
		out = clock + " " + msg
	}
	if len(params) > 0 {
		out = fmt.Sprintf("%s (%s)", out, strings.Join(params, ", "))
	}
	return out
}
