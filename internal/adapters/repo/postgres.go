package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chat-digest-mailer/internal/domain"
	"chat-digest-mailer/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.UserRepo         = (*Postgres)(nil)
	_ domain.ChannelRepo      = (*Postgres)(nil)
	_ domain.MessageRepo      = (*Postgres)(nil)
	_ domain.SubscriptionRepo = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// GetByID возвращает пользователя по идентификатору.
func (p *Postgres) GetByID(userID int64) (domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	var user domain.User
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, realm_id, full_name, email, is_bot, digest_enabled, date_joined, created_at, updated_at
FROM users
WHERE id = $1
`, userID).Scan(&user.ID, &user.RealmID, &user.FullName, &user.Email, &user.IsBot, &user.DigestEnabled, &user.DateJoined, &user.CreatedAt, &user.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_get", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, fmt.Errorf("пользователь %d: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// ListNewUsers возвращает людей (не ботов) организации,
// присоединившихся строго после after.
func (p *Postgres) ListNewUsers(realmID int64, after time.Time) ([]domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, realm_id, full_name, email, is_bot, digest_enabled, date_joined, created_at, updated_at
FROM users
WHERE realm_id = $1 AND is_bot = FALSE AND date_joined > $2
`, realmID, after)
	metrics.ObserveNetworkRequest("postgres", "users_list_new", "users", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.RealmID, &user.FullName, &user.Email, &user.IsBot, &user.DigestEnabled, &user.DateJoined, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ListDigestRecipients возвращает пользователей с включённым дайджестом.
func (p *Postgres) ListDigestRecipients(now time.Time) ([]domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, realm_id, full_name, email, is_bot, digest_enabled, date_joined, created_at, updated_at
FROM users
WHERE digest_enabled = TRUE AND is_bot = FALSE
`)
	metrics.ObserveNetworkRequest("postgres", "users_list_recipients", "users", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.RealmID, &user.FullName, &user.Email, &user.IsBot, &user.DigestEnabled, &user.DateJoined, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetChannelByID возвращает канал по идентификатору.
func (p *Postgres) GetChannelByID(channelID int64) (domain.Channel, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	var ch domain.Channel
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, realm_id, name, created_at
FROM channels
WHERE id = $1
`, channelID).Scan(&ch.ID, &ch.RealmID, &ch.Name, &ch.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "channels_get", "channels", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Channel{}, fmt.Errorf("канал %d: %w", channelID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Channel{}, err
	}
	return ch, nil
}

// ListNewChannels возвращает каналы организации, созданные строго после after.
func (p *Postgres) ListNewChannels(realmID int64, after time.Time) ([]domain.Channel, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, realm_id, name, created_at
FROM channels
WHERE realm_id = $1 AND created_at > $2
`, realmID, after)
	metrics.ObserveNetworkRequest("postgres", "channels_list_new", "channels", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.ID, &ch.RealmID, &ch.Name, &ch.CreatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

const messageColumns = `
m.id, m.sender_id, s.full_name, m.recipient_type, m.channel_id, m.topic, m.body, m.sent_at`

func scanMessage(rows pgx.Rows) (domain.Message, error) {
	var (
		msg           domain.Message
		recipientType int16
		channelID     sql.NullInt64
		topic         sql.NullString
	)
	if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.SenderName, &recipientType, &channelID, &topic, &msg.Body, &msg.SentAt); err != nil {
		return domain.Message{}, err
	}
	msg.RecipientType = domain.RecipientType(recipientType)
	if channelID.Valid {
		msg.ChannelID = channelID.Int64
	}
	if topic.Valid {
		msg.Topic = topic.String
	}
	return msg, nil
}

// ListUserMessagesAfter возвращает полученные пользователем сообщения,
// опубликованные строго после after, в порядке публикации.
func (p *Postgres) ListUserMessagesAfter(userID int64, after time.Time) ([]domain.UserMessage, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+messageColumns+`
FROM user_messages um
JOIN messages m ON m.id = um.message_id
JOIN users s ON s.id = m.sender_id
WHERE um.user_id = $1 AND m.sent_at > $2
ORDER BY m.sent_at ASC
`, userID, after)
	metrics.ObserveNetworkRequest("postgres", "user_messages_list", "user_messages", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.UserMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, domain.UserMessage{UserID: userID, Message: msg})
	}
	return links, rows.Err()
}

// ListConversationMessages возвращает до limit сообщений обсуждения
// (канал + тема) из полученных пользователем после after.
func (p *Postgres) ListConversationMessages(userID int64, key domain.ConversationKey, after time.Time, limit int) ([]domain.Message, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+messageColumns+`
FROM user_messages um
JOIN messages m ON m.id = um.message_id
JOIN users s ON s.id = m.sender_id
WHERE um.user_id = $1 AND m.recipient_type = $2 AND m.channel_id = $3 AND m.topic = $4 AND m.sent_at > $5
ORDER BY m.sent_at ASC
LIMIT $6
`, userID, int16(domain.RecipientChannel), key.ChannelID, key.Topic, after, limit)
	metrics.ObserveNetworkRequest("postgres", "conversation_messages_list", "user_messages", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ListHomeViewChannelIDs возвращает каналы активных home-view подписок пользователя.
func (p *Postgres) ListHomeViewChannelIDs(userID int64) ([]int64, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT channel_id
FROM subscriptions
WHERE user_id = $1 AND active = TRUE AND in_home_view = TRUE
`, userID)
	metrics.ObserveNetworkRequest("postgres", "subscriptions_home_view", "subscriptions", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
