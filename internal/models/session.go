package models

import (
	"fmt"
	"time"
)

// Session is one Claude CLI conversation, read from its transcript file
// under ~/.claude/projects. The ID is the opaque token the CLI accepts for
// resumption.
type Session struct {
	ID               string
	ProjectPath      string
	FilePath         string
	FirstUserMessage string
	MessageCount     int
	LastActivity     time.Time
}

// FilterValue returns the value used for filtering in lists.
func (s Session) FilterValue() string {
	return cleanString(s.FirstUserMessage)
}

// Title satisfies the list.Item interface.
func (s Session) Title() string {
	msg := cleanString(s.FirstUserMessage)
	if msg == "" {
		return s.ID
	}
	if len(msg) > 72 {
		msg = msg[:69] + "..."
	}
	return msg
}

// Description satisfies the list.Item interface.
func (s Session) Description() string {
	return cleanString(fmt.Sprintf("%d messages • %s", s.MessageCount,
		s.LastActivity.Format("2006-01-02 15:04")))
}

// Project aggregates the sessions recorded for one working directory.
type Project struct {
	Name         string
	Path         string
	SessionCount int
	LastActivity time.Time
	Sessions     []Session // loaded lazily
}

// FilterValue returns the value used for filtering in lists.
func (p Project) FilterValue() string {
	return cleanString(p.Name)
}

// Title satisfies the list.Item interface.
func (p Project) Title() string {
	return cleanString(p.Name)
}

// Description satisfies the list.Item interface.
func (p Project) Description() string {
	desc := fmt.Sprintf("%d sessions", p.SessionCount)
	if !p.LastActivity.IsZero() {
		desc += " • last active " + p.LastActivity.Format("2006-01-02 15:04")
	}
	return cleanString(desc)
}
