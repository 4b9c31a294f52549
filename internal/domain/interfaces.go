package domain

import (
	"context"
	"time"
)

// UserRepo управляет пользователями.
type UserRepo interface {
	GetByID(userID int64) (User, error)
	ListNewUsers(realmID int64, after time.Time) ([]User, error)
	ListDigestRecipients(now time.Time) ([]User, error)
}

// ChannelRepo управляет каналами.
type ChannelRepo interface {
	GetChannelByID(channelID int64) (Channel, error)
	ListNewChannels(realmID int64, after time.Time) ([]Channel, error)
}

// MessageRepo отвечает за выборку сообщений пользователя.
type MessageRepo interface {
	ListUserMessagesAfter(userID int64, after time.Time) ([]UserMessage, error)
	ListConversationMessages(userID int64, key ConversationKey, after time.Time, limit int) ([]Message, error)
}

// SubscriptionRepo возвращает подписки пользователя.
type SubscriptionRepo interface {
	ListHomeViewChannelIDs(userID int64) ([]int64, error)
}

// MessageRenderer готовит сообщения и шаблоны письма к отправке.
type MessageRenderer interface {
	BuildMessageList(user User, messages []Message) []TeaserMessage
	RenderText(payload DigestPayload) (string, error)
	RenderHTML(payload DigestPayload) (string, error)
}

// Mailer доставляет письма. Контракт fire-and-forget: повторов нет.
type Mailer interface {
	Send(ctx context.Context, email EmailMessage) error
}

// DigestQueue — очередь задач на построение дайджестов.
type DigestQueue interface {
	Enqueue(ctx context.Context, job DigestJob) error
	Pop(ctx context.Context) (DigestJob, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}

// DigestService отвечает за построение и отправку дайджеста.
type DigestService interface {
	HandleDigestEmail(userID int64, cutoff int64) error
}
