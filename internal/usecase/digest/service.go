package digest

import (
	"context"
	"fmt"
	"time"

	"chat-digest-mailer/internal/domain"
	"chat-digest-mailer/internal/infra/metrics"
)

const (
	// unreadPreviewLimit — сколько личных сообщений показывается в письме.
	unreadPreviewLimit = 4

	digestSubject     = "While you've been gone: your digest"
	digestSenderEmail = "support@chat-digest.example"
	digestSenderName  = "Digest Support"
)

var digestTags = []string{"digest-emails"}

// Service реализует бизнес-логику построения и отправки дайджестов.
type Service struct {
	users    domain.UserRepo
	channels domain.ChannelRepo
	messages domain.MessageRepo
	subs     domain.SubscriptionRepo
	renderer domain.MessageRenderer
	mailer   domain.Mailer
	baseURL  string
}

var _ domain.DigestService = (*Service)(nil)

// NewService создаёт сервис дайджестов.
func NewService(users domain.UserRepo, channels domain.ChannelRepo, messages domain.MessageRepo, subs domain.SubscriptionRepo, renderer domain.MessageRenderer, mailer domain.Mailer, baseURL string) *Service {
	return &Service{users: users, channels: channels, messages: messages, subs: subs, renderer: renderer, mailer: mailer, baseURL: baseURL}
}

// HandleDigestEmail собирает дайджест пользователя с момента cutoff
// (epoch-секунды) и отправляет письмо, если трафика достаточно.
// Ошибки хранилища, рендеринга и доставки пробрасываются вызывающему,
// повторов нет.
func (s *Service) HandleDigestEmail(userID int64, cutoff int64) error {
	start := time.Now()
	err := s.handleDigestEmail(userID, cutoff)
	metrics.DigestBuildSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DigestBuildErrors.Inc()
	}
	return err
}

func (s *Service) handleDigestEmail(userID int64, cutoff int64) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return fmt.Errorf("получение пользователя %d: %w", userID, err)
	}

	cutoffTime := time.Unix(cutoff, 0).UTC()

	allMessages, err := s.messages.ListUserMessagesAfter(user.ID, cutoffTime)
	if err != nil {
		return fmt.Errorf("сообщения пользователя: %w", err)
	}

	homeViewIDs, err := s.subs.ListHomeViewChannelIDs(user.ID)
	if err != nil {
		return fmt.Errorf("подписки пользователя: %w", err)
	}
	homeView := make(map[int64]struct{}, len(homeViewIDs))
	for _, id := range homeViewIDs {
		homeView[id] = struct{}{}
	}

	direct, channel := partitionMessages(allMessages, homeView)

	previews := direct
	if len(previews) > unreadPreviewLimit {
		previews = previews[:unreadPreviewLimit]
	}
	remaining := len(direct) - unreadPreviewLimit
	if remaining < 0 {
		remaining = 0
	}

	hot, err := s.gatherHotConversations(user, channel, cutoffTime)
	if err != nil {
		return fmt.Errorf("горячие обсуждения: %w", err)
	}

	newChannelCount, channelLinks, err := s.gatherNewChannels(user, cutoffTime)
	if err != nil {
		return err
	}

	newUserCount, newUserNames, err := s.gatherNewUsers(user, cutoffTime)
	if err != nil {
		return err
	}

	payload := domain.DigestPayload{
		Name:                 user.FullName,
		UnreadDirectMessages: s.renderer.BuildMessageList(user, previews),
		RemainingUnreadCount: remaining,
		HotConversations:     hot,
		NewChannels:          channelLinks,
		NewChannelCount:      newChannelCount,
		NewUserNames:         newUserNames,
		NewUserCount:         newUserCount,
	}

	textBody, err := s.renderer.RenderText(payload)
	if err != nil {
		return fmt.Errorf("рендеринг текстовой версии: %w", err)
	}
	htmlBody, err := s.renderer.RenderHTML(payload)
	if err != nil {
		return fmt.Errorf("рендеринг HTML версии: %w", err)
	}

	if !EnoughTraffic(len(payload.UnreadDirectMessages), len(hot), newChannelCount, newUserCount) {
		metrics.DigestEmailsSkipped.Inc()
		return nil
	}

	email := domain.EmailMessage{
		To:       domain.EmailAddress{Email: user.Email, Name: user.FullName},
		From:     domain.EmailAddress{Email: digestSenderEmail, Name: digestSenderName},
		Subject:  digestSubject,
		TextBody: textBody,
		HTMLBody: htmlBody,
		Delay:    0,
		Tags:     digestTags,
	}
	if err := s.mailer.Send(context.Background(), email); err != nil {
		return fmt.Errorf("отправка письма: %w", err)
	}
	metrics.DigestEmailsSent.Inc()
	return nil
}

// partitionMessages делит сообщения на личные и канальные. Канальные
// учитываются только если канал входит в активные home-view подписки.
func partitionMessages(all []domain.UserMessage, homeView map[int64]struct{}) (direct []domain.Message, channel []domain.UserMessage) {
	for _, um := range all {
		if um.Message.RecipientType != domain.RecipientChannel {
			direct = append(direct, um.Message)
			continue
		}
		if _, ok := homeView[um.Message.ChannelID]; ok {
			channel = append(channel, um)
		}
	}
	return direct, channel
}
