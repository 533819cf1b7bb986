package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Step is the onboarding position of a user's session.
type Step string

const (
	StepNone             Step = ""
	StepAwaitingChannel  Step = "awaiting_channel"
	StepAwaitingPlaylist Step = "awaiting_playlist"
)

// ChannelRef identifies an upload destination either by numeric chat ID or
// by public @handle. Exactly one of the fields is set.
type ChannelRef struct {
	ID       int64
	Username string
}

// IsZero reports whether no channel is referenced.
func (c ChannelRef) IsZero() bool {
	return c.ID == 0 && c.Username == ""
}

func (c ChannelRef) String() string {
	if c.Username != "" {
		return c.Username
	}
	return strconv.FormatInt(c.ID, 10)
}

// Session is the per-user conversational state.
type Session struct {
	Step    Step
	Channel ChannelRef
	// Busy is set while a playlist job for this user is running.
	Busy bool
}

var (
	handlePattern    = regexp.MustCompile(`^@[A-Za-z0-9_]+$`)
	broadcastPattern = regexp.MustCompile(`^-100[0-9]+$`)
)

// ParseChannelRef validates channel text typed by a user. Accepted forms are
// "@handle" and "-100<digits>".
func ParseChannelRef(text string) (ChannelRef, error) {
	text = strings.TrimSpace(text)
	switch {
	case handlePattern.MatchString(text):
		return ChannelRef{Username: text}, nil
	case broadcastPattern.MatchString(text):
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return ChannelRef{}, ErrInvalidChannel
		}
		return ChannelRef{ID: id}, nil
	}
	return ChannelRef{}, ErrInvalidChannel
}
