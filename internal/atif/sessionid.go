package atif

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"
)

// sessionIDLayout matches "session-YYYY-MM-DDTHH-MM-SS-<rand>".
const sessionIDLayout = "2006-01-02T15-04-05"

// NewSessionID generates a session ID of the form
// "session-YYYY-MM-DDTHH-MM-SS-<rand>" with a random suffix of at least 6
// characters.
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("session-%s-%s", now.UTC().Format(sessionIDLayout), randomSuffix(8))
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)
	return strings.ToLower(enc)[:n]
}

// DateFolder returns the "<YYYYMMDD>" directory name a session's trajectory
// files live under: the first ten characters after "session-" with dashes
// removed, when the session ID parses as one of ours, else today's date.
func DateFolder(sessionID string, now time.Time) string {
	const prefix = "session-"
	if strings.HasPrefix(sessionID, prefix) {
		rest := sessionID[len(prefix):]
		if len(rest) >= 10 {
			datePart := rest[:10] // "YYYY-MM-DD"
			if _, err := time.Parse("2006-01-02", datePart); err == nil {
				return strings.ReplaceAll(datePart, "-", "")
			}
		}
	}
	return now.UTC().Format("20060102")
}
