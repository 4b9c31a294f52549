package domain

import "time"

// Realm описывает организацию (тенант), к которой привязаны все сущности.
type Realm struct {
	ID        int64
	Name      string
	Host      string
	CreatedAt time.Time
}

// User описывает пользователя чат-платформы.
type User struct {
	ID            int64
	RealmID       int64
	FullName      string
	Email         string
	IsBot         bool
	DigestEnabled bool
	DateJoined    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Channel описывает публичный канал внутри организации.
type Channel struct {
	ID        int64
	RealmID   int64
	Name      string
	CreatedAt time.Time
}

// RecipientType определяет тип получателя сообщения.
type RecipientType int

const (
	// RecipientDirect — личное сообщение пользователю или группе пользователей.
	RecipientDirect RecipientType = iota
	// RecipientChannel — сообщение в канал.
	RecipientChannel
)

// Message представляет сообщение платформы.
type Message struct {
	ID            int64
	SenderID      int64
	SenderName    string
	RecipientType RecipientType
	ChannelID     int64
	Topic         string
	Body          string
	SentAt        time.Time
}

// UserMessage связывает пользователя с полученным им сообщением.
type UserMessage struct {
	UserID  int64
	Message Message
}

// Subscription хранит состояние подписки пользователя на канал.
type Subscription struct {
	UserID     int64
	ChannelID  int64
	Active     bool
	InHomeView bool
}

// ConversationKey идентифицирует обсуждение (канал + тема) внутри одного
// расчёта дайджеста. Ключ никогда не сохраняется в БД.
type ConversationKey struct {
	ChannelID int64
	Topic     string
}

// TeaserMessage — подготовленное к рендерингу сообщение-превью.
type TeaserMessage struct {
	SenderName string
	Body       string
	SentAt     time.Time
}

// HotConversation описывает одно отобранное «горячее» обсуждение.
type HotConversation struct {
	Key            ConversationKey
	ChannelName    string
	Participants   []string
	RemainingCount int
	Teaser         []TeaserMessage
}

// ChannelLinks содержит оба варианта списка новых каналов.
type ChannelLinks struct {
	HTML  []string
	Plain []string
}

// DigestPayload — типизированные данные для шаблонов письма.
type DigestPayload struct {
	Name                 string
	UnreadDirectMessages []TeaserMessage
	RemainingUnreadCount int
	HotConversations     []HotConversation
	NewChannels          ChannelLinks
	NewChannelCount      int
	NewUserNames         []string
	NewUserCount         int
}

// DigestJob — задача на построение дайджеста из очереди.
type DigestJob struct {
	ID     string `json:"id"`
	UserID int64  `json:"user_id"`
	Cutoff int64  `json:"cutoff"`
}

// EmailAddress описывает адресата или отправителя письма.
type EmailAddress struct {
	Email string
	Name  string
}

// EmailMessage — готовое к отправке письмо дайджеста.
type EmailMessage struct {
	To       EmailAddress
	From     EmailAddress
	Subject  string
	TextBody string
	HTMLBody string
	Delay    time.Duration
	Tags     []string
}
