package services

import (
	"context"
	"fmt"
	"log/slog"

	"talkline/contract"
	"talkline/domain"
	"talkline/domain/event"
	"talkline/moderation"
	"talkline/observability"
	"talkline/repositories"
)

type IChatService interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand, senderSink contract.EventSink) error
	History(cmd domain.HistoryCommand) ([]domain.Message, bool, error)
	Connect(userID, connID string, sink contract.EventSink)
	Disconnect(userID, connID string)
}

// ChatService routes point-to-point messages and serves conversation history.
// Recipients are addressed by display name; an unknown name or an empty field
// makes the request vanish silently, which is the historical behavior clients
// depend on.
type ChatService struct {
	log       *slog.Logger
	users     repositories.IUserRepository
	messages  repositories.IMessageRepository
	presence  contract.IRegistry
	moderator *moderation.Moderator
	monitor   *observability.Monitor
}

func NewChatService(log *slog.Logger, users repositories.IUserRepository,
	messages repositories.IMessageRepository, presence contract.IRegistry,
	moderator *moderation.Moderator, monitor *observability.Monitor) *ChatService {
	return &ChatService{
		log:       log,
		users:     users,
		messages:  messages,
		presence:  presence,
		moderator: moderator,
		monitor:   monitor,
	}
}

// Send persists a message and fans it out: one ack to the sender's own sink,
// one push per live connection of the recipient. An offline recipient only
// gets the durable copy, surfaced on their next history request.
func (s *ChatService) Send(ctx context.Context, cmd domain.SendMessageCommand, senderSink contract.EventSink) error {
	if cmd.To == "" || cmd.Content == "" {
		s.log.Debug("Dropping send with missing fields", "sender", cmd.Sender.UserID)
		return nil
	}

	receiverID, found, err := s.users.Resolve(cmd.To)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if !found {
		s.log.Debug("Dropping send to unknown recipient", "to", cmd.To)
		return nil
	}

	content := cmd.Content
	if s.moderator != nil {
		content = s.moderator.Censor(content)
	}

	message, err := s.messages.Append(cmd.Sender.UserID, receiverID, content)
	if err != nil {
		return fmt.Errorf("store message: %w", err)
	}
	s.monitor.IncrMessagesStored()

	// The ack carries the persisted message so the sender's UI can render it
	// without a round trip through history.
	if senderSink != nil {
		if err := senderSink.Consume(ctx, event.MessageStored{Message: message}); err != nil {
			s.log.Warn("Failed to ack sender", "sender", cmd.Sender.UserID, "error", err)
		}
	}

	sinks := s.presence.Lookup(receiverID)
	if len(sinks) == 0 {
		s.monitor.IncrPushesSkipped()
		return nil
	}

	push := event.DirectMessage{
		From:    cmd.Sender.DisplayName,
		Content: message.Content,
		At:      message.CreatedAt,
	}
	for _, receiverSink := range sinks {
		if err := receiverSink.Consume(ctx, push); err != nil {
			s.log.Warn("Failed to push to recipient", "receiver", receiverID, "error", err)
			continue
		}
		s.monitor.IncrPushesDelivered()
	}
	return nil
}

// History returns the full ordered thread between the viewer and the named
// counterparty. found is false when the counterparty does not exist; callers
// emit nothing in that case.
func (s *ChatService) History(cmd domain.HistoryCommand) ([]domain.Message, bool, error) {
	if cmd.With == "" {
		return nil, false, nil
	}

	counterpartyID, found, err := s.users.Resolve(cmd.With)
	if err != nil {
		return nil, false, fmt.Errorf("resolve counterparty: %w", err)
	}
	if !found {
		s.log.Debug("Dropping history request for unknown counterparty", "with", cmd.With)
		return nil, false, nil
	}

	messages, err := s.messages.History(cmd.ViewerID, counterpartyID)
	if err != nil {
		return nil, false, fmt.Errorf("load history: %w", err)
	}
	s.monitor.IncrHistoryServed()
	return messages, true, nil
}

// Connect marks one authenticated connection of a user as reachable.
func (s *ChatService) Connect(userID, connID string, sink contract.EventSink) {
	s.presence.Register(userID, connID, sink)
}

// Disconnect removes one connection; called exactly once per connection,
// clean or abrupt.
func (s *ChatService) Disconnect(userID, connID string) {
	s.presence.Unregister(userID, connID)
}
