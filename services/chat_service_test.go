package services

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"talkline/domain"
	"talkline/domain/event"
	"talkline/mocks"
	"talkline/moderation"
	"talkline/observability"
	"talkline/runtime"
	"talkline/sink"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestChatService(t *testing.T, users *mocks.MockIUserRepository,
	messages *mocks.MockIMessageRepository, registry *runtime.Registry) *ChatService {
	t.Helper()
	return NewChatService(slog.Default(), users, messages, registry, nil,
		observability.NewMonitor(slog.Default()))
}

// drain empties a buffered sink without blocking.
func drain(s *sink.Buffered) []event.DomainEvent {
	var events []event.DomainEvent
	for {
		select {
		case e := <-s.Events:
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestChatService_Send(t *testing.T) {
	alice := domain.Identity{UserID: "alice-id", DisplayName: "alice"}

	t.Run("should ack sender and push to online recipient", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		users := mocks.NewMockIUserRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		registry := runtime.NewRegistry()
		svc := newTestChatService(t, users, messages, registry)

		aliceSink := sink.NewBuffered(8)
		bobSink := sink.NewBuffered(8)
		svc.Connect("alice-id", "c1", aliceSink)
		svc.Connect("bob-id", "c2", bobSink)

		stored := domain.Message{
			ID: 1, SenderID: "alice-id", ReceiverID: "bob-id",
			Content: "hi", CreatedAt: time.Now().UTC(),
		}
		users.EXPECT().Resolve("bob").Return("bob-id", true, nil).Times(1)
		messages.EXPECT().Append("alice-id", "bob-id", "hi").Return(stored, nil).Times(1)

		err := svc.Send(context.Background(),
			domain.SendMessageCommand{Sender: alice, To: "bob", Content: "hi"}, aliceSink)
		req.NoError(err)

		acks := drain(aliceSink)
		req.Len(acks, 1)
		req.Equal(event.MessageStored{Message: stored}, acks[0])

		pushes := drain(bobSink)
		req.Len(pushes, 1)
		req.Equal(event.DirectMessage{From: "alice", Content: "hi", At: stored.CreatedAt}, pushes[0])
	})

	t.Run("should silently drop when recipient name is empty", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		users := mocks.NewMockIUserRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		registry := runtime.NewRegistry()
		svc := newTestChatService(t, users, messages, registry)

		aliceSink := sink.NewBuffered(8)
		err := svc.Send(context.Background(),
			domain.SendMessageCommand{Sender: alice, To: "", Content: "hi"}, aliceSink)
		req.NoError(err)
		req.Empty(drain(aliceSink))
	})

	t.Run("should silently drop when content is empty", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		users := mocks.NewMockIUserRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		registry := runtime.NewRegistry()
		svc := newTestChatService(t, users, messages, registry)

		aliceSink := sink.NewBuffered(8)
		err := svc.Send(context.Background(),
			domain.SendMessageCommand{Sender: alice, To: "bob", Content: ""}, aliceSink)
		req.NoError(err)
		req.Empty(drain(aliceSink))
	})

	t.Run("should silently drop when recipient is unknown", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		users := mocks.NewMockIUserRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		registry := runtime.NewRegistry()
		svc := newTestChatService(t, users, messages, registry)

		users.EXPECT().Resolve("ghost").Return("", false, nil).Times(1)

		aliceSink := sink.NewBuffered(8)
		err := svc.Send(context.Background(),
			domain.SendMessageCommand{Sender: alice, To: "ghost", Content: "hi"}, aliceSink)
		req.NoError(err)
		req.Empty(drain(aliceSink))
	})

	t.Run("should ack sender but skip push when recipient is offline", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		users := mocks.NewMockIUserRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		registry := runtime.NewRegistry()
		svc := newTestChatService(t, users, messages, registry)

		stored := domain.Message{
			ID: 2, SenderID: "alice-id", ReceiverID: "bob-id",
			Content: "still there?", CreatedAt: time.Now().UTC(),
		}
		users.EXPECT().Resolve("bob").Return("bob-id", true, nil).Times(1)
		messages.EXPECT().Append("alice-id", "bob-id", "still there?").Return(stored, nil).Times(1)

		aliceSink := sink.NewBuffered(8)
		err := svc.Send(context.Background(),
			domain.SendMessageCommand{Sender: alice, To: "bob", Content: "still there?"}, aliceSink)
		req.NoError(err)

		acks := drain(aliceSink)
		req.Len(acks, 1)
	})

	t.Run("should surface storage failure without acking", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		users := mocks.NewMockIUserRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		registry := runtime.NewRegistry()
		svc := newTestChatService(t, users, messages, registry)

		users.EXPECT().Resolve("bob").Return("bob-id", true, nil).Times(1)
		messages.EXPECT().Append("alice-id", "bob-id", "hi").
			Return(domain.Message{}, fmt.Errorf("disk full")).Times(1)

		aliceSink := sink.NewBuffered(8)
		err := svc.Send(context.Background(),
			domain.SendMessageCommand{Sender: alice, To: "bob", Content: "hi"}, aliceSink)
		req.Error(err)
		req.Empty(drain(aliceSink))
	})

	t.Run("should censor content before persistence and push", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		users := mocks.NewMockIUserRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		registry := runtime.NewRegistry()

		moderator, err := moderation.NewModerator([]string{"moron"}, '*')
		req.NoError(err)
		svc := NewChatService(slog.Default(), users, messages, registry, &moderator,
			observability.NewMonitor(slog.Default()))

		stored := domain.Message{
			ID: 3, SenderID: "alice-id", ReceiverID: "bob-id",
			Content: "hi *****", CreatedAt: time.Now().UTC(),
		}
		users.EXPECT().Resolve("bob").Return("bob-id", true, nil).Times(1)
		messages.EXPECT().Append("alice-id", "bob-id", "hi *****").Return(stored, nil).Times(1)

		aliceSink := sink.NewBuffered(8)
		err = svc.Send(context.Background(),
			domain.SendMessageCommand{Sender: alice, To: "bob", Content: "hi moron"}, aliceSink)
		req.NoError(err)
	})

	t.Run("should push to every live connection of the recipient", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		users := mocks.NewMockIUserRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		registry := runtime.NewRegistry()
		svc := newTestChatService(t, users, messages, registry)

		phone := sink.NewBuffered(8)
		browser := sink.NewBuffered(8)
		svc.Connect("bob-id", "phone", phone)
		svc.Connect("bob-id", "browser", browser)

		stored := domain.Message{
			ID: 4, SenderID: "alice-id", ReceiverID: "bob-id",
			Content: "hi", CreatedAt: time.Now().UTC(),
		}
		users.EXPECT().Resolve("bob").Return("bob-id", true, nil).Times(1)
		messages.EXPECT().Append("alice-id", "bob-id", "hi").Return(stored, nil).Times(1)

		err := svc.Send(context.Background(),
			domain.SendMessageCommand{Sender: alice, To: "bob", Content: "hi"}, nil)
		req.NoError(err)

		req.Len(drain(phone), 1)
		req.Len(drain(browser), 1)
	})
}

func TestChatService_History(t *testing.T) {
	t.Run("should return the full ordered thread", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		users := mocks.NewMockIUserRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		registry := runtime.NewRegistry()
		svc := newTestChatService(t, users, messages, registry)

		thread := []domain.Message{
			{ID: 1, SenderID: "alice-id", ReceiverID: "bob-id", Content: "hi"},
			{ID: 2, SenderID: "bob-id", ReceiverID: "alice-id", Content: "hello"},
		}
		users.EXPECT().Resolve("bob").Return("bob-id", true, nil).Times(1)
		messages.EXPECT().History("alice-id", "bob-id").Return(thread, nil).Times(1)

		result, found, err := svc.History(domain.HistoryCommand{ViewerID: "alice-id", With: "bob"})
		req.NoError(err)
		req.True(found)
		req.Equal(thread, result)
	})

	t.Run("should silently return nothing for an unknown counterparty", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		users := mocks.NewMockIUserRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		registry := runtime.NewRegistry()
		svc := newTestChatService(t, users, messages, registry)

		users.EXPECT().Resolve("ghost").Return("", false, nil).Times(1)

		result, found, err := svc.History(domain.HistoryCommand{ViewerID: "alice-id", With: "ghost"})
		req.NoError(err)
		req.False(found)
		req.Nil(result)
	})

	t.Run("should silently return nothing for an empty name", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		users := mocks.NewMockIUserRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		registry := runtime.NewRegistry()
		svc := newTestChatService(t, users, messages, registry)

		_, found, err := svc.History(domain.HistoryCommand{ViewerID: "alice-id", With: ""})
		req.NoError(err)
		req.False(found)
	})
}

func TestChatService_ConnectDisconnect(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := mocks.NewMockIUserRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	registry := runtime.NewRegistry()
	svc := newTestChatService(t, users, messages, registry)

	svc.Connect("alice-id", "c1", sink.NewBuffered(1))
	req.Len(registry.Lookup("alice-id"), 1)

	svc.Disconnect("alice-id", "c1")
	req.Nil(registry.Lookup("alice-id"))
}
