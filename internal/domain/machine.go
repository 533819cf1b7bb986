package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Inbound is a message received from a user.
type Inbound struct {
	UserID int64
	ChatID int64
	// Command is the bot command without the slash, empty for plain text.
	Command string
	Text    string
	// Forwarded is set when the message was forwarded from a channel.
	Forwarded *ChannelRef
}

// Action is the outcome of handling one inbound message.
type Action struct {
	Reply    string
	Markdown bool
	// Job is set when a playlist was accepted and must be run.
	Job *JobRequest
}

// Machine is the per-user session state machine.
type Machine struct {
	store SessionStore
	urls  ExtractorRegistry
	newID func() string
}

// NewMachine creates a state machine over the given store.
func NewMachine(store SessionStore, urls ExtractorRegistry) *Machine {
	return &Machine{store: store, urls: urls, newID: uuid.NewString}
}

// Handle interprets a message against the sender's session.
func (m *Machine) Handle(in Inbound) Action {
	switch in.Command {
	case "start":
		m.reset(in.UserID)
		return Action{Reply: msgWelcome}
	case "help":
		return Action{Reply: msgHelp, Markdown: true}
	case "":
	default:
		return Action{}
	}

	sess, ok := m.store.Get(in.UserID)
	if !ok {
		return Action{Reply: msgStartFirst}
	}

	switch sess.Step {
	case StepAwaitingChannel:
		return m.registerChannel(in)
	case StepAwaitingPlaylist:
		return m.submitPlaylist(in)
	default:
		return Action{Reply: msgIdle}
	}
}

// Release clears the busy flag once a user's job has finished.
func (m *Machine) Release(userID int64) {
	m.store.Update(userID, func(s *Session, exists bool) error {
		if !exists {
			return ErrNoSession
		}
		s.Busy = false
		return nil
	})
}

// reset discards channel and step but keeps the busy flag of a running job,
// whose scratch directory is still in use.
func (m *Machine) reset(userID int64) {
	m.store.Update(userID, func(s *Session, _ bool) error {
		*s = Session{Step: StepAwaitingChannel, Busy: s.Busy}
		return nil
	})
}

func (m *Machine) registerChannel(in Inbound) Action {
	var ref ChannelRef
	if in.Forwarded != nil && !in.Forwarded.IsZero() {
		ref = *in.Forwarded
	} else {
		parsed, err := ParseChannelRef(in.Text)
		if err != nil {
			return Action{Reply: msgInvalidFormat}
		}
		ref = parsed
	}

	err := m.store.Update(in.UserID, func(s *Session, exists bool) error {
		if !exists {
			return ErrNoSession
		}
		s.Channel = ref
		s.Step = StepAwaitingPlaylist
		return nil
	})
	if err != nil {
		return Action{Reply: msgStartFirst}
	}
	return Action{Reply: fmt.Sprintf(msgChannelSet, ref)}
}

func (m *Machine) submitPlaylist(in Inbound) Action {
	url := strings.TrimSpace(in.Text)

	var req *JobRequest
	err := m.store.Update(in.UserID, func(s *Session, exists bool) error {
		switch {
		case !exists:
			return ErrNoSession
		case s.Channel.IsZero():
			return ErrChannelNotSet
		case m.urls.Match(url) == nil:
			return ErrInvalidURL
		case s.Busy:
			return ErrJobRunning
		}
		s.Busy = true
		req = &JobRequest{
			ID:      m.newID(),
			UserID:  in.UserID,
			ChatID:  in.ChatID,
			Channel: s.Channel,
			URL:     url,
		}
		return nil
	})

	switch {
	case err == nil:
		return Action{Job: req}
	case errors.Is(err, ErrChannelNotSet):
		return Action{Reply: msgChannelFirst}
	case errors.Is(err, ErrInvalidURL):
		return Action{Reply: msgInvalidURL}
	case errors.Is(err, ErrJobRunning):
		return Action{Reply: msgJobRunning}
	default:
		return Action{Reply: msgStartFirst}
	}
}
