package telegram

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cwygoda/playlistbot/internal/domain"
)

// pollTimeout is the long-polling timeout in seconds.
const pollTimeout = 60

// UpdateSource delivers inbound updates. *tgbotapi.BotAPI implements it.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler decides what to do with an inbound message.
type Handler interface {
	Handle(in domain.Inbound) domain.Action
}

// JobSubmitter runs accepted playlist jobs in the background.
type JobSubmitter interface {
	Submit(ctx context.Context, req domain.JobRequest)
}

// Replier sends replies to users.
type Replier interface {
	Notify(ctx context.Context, chatID int64, text string) error
	NotifyMarkdown(ctx context.Context, chatID int64, text string) error
}

// Poller reads updates and dispatches them to the state machine. Handling
// is quick; long-running jobs are handed to the JobSubmitter.
type Poller struct {
	source  UpdateSource
	handler Handler
	jobs    JobSubmitter
	replies Replier
	logger  *log.Logger
}

// NewPoller creates a poller.
func NewPoller(source UpdateSource, handler Handler, jobs JobSubmitter, replies Replier, logger *log.Logger) *Poller {
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{
		source:  source,
		handler: handler,
		jobs:    jobs,
		replies: replies,
		logger:  logger,
	}
}

// Run polls until ctx is cancelled or the update channel closes.
func (p *Poller) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	u.AllowedUpdates = []string{"message"}

	updates := p.source.GetUpdatesChan(u)
	p.logger.Info("polling for updates")

	for {
		select {
		case <-ctx.Done():
			p.source.StopReceivingUpdates()
			p.logger.Info("poller shutting down")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			p.dispatch(ctx, update)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic while handling update", "update", update.UpdateID, "panic", fmt.Sprint(r))
		}
	}()

	in, ok := ToInbound(update)
	if !ok {
		p.logger.Debug("ignoring update", "update", update.UpdateID)
		return
	}

	act := p.handler.Handle(in)
	if act.Reply != "" {
		var err error
		if act.Markdown {
			err = p.replies.NotifyMarkdown(ctx, in.ChatID, act.Reply)
		} else {
			err = p.replies.Notify(ctx, in.ChatID, act.Reply)
		}
		if err != nil {
			p.logger.Error("reply failed", "user", in.UserID, "err", err)
		}
	}
	if act.Job != nil {
		p.jobs.Submit(ctx, *act.Job)
	}
}

// ToInbound converts an update into a domain message. Only user messages
// carrying text, a command or a forwarded chat are handled.
func ToInbound(update tgbotapi.Update) (domain.Inbound, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return domain.Inbound{}, false
	}

	in := domain.Inbound{
		UserID: msg.From.ID,
		ChatID: msg.Chat.ID,
		Text:   msg.Text,
	}
	if msg.IsCommand() {
		in.Command = msg.Command()
		in.Text = msg.CommandArguments()
	}
	if msg.ForwardFromChat != nil {
		ref := domain.ChannelRef{ID: msg.ForwardFromChat.ID}
		in.Forwarded = &ref
	}

	if in.Text == "" && in.Command == "" && in.Forwarded == nil {
		return domain.Inbound{}, false
	}
	return in, true
}
