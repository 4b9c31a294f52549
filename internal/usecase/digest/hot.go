package digest

import (
	"fmt"
	"sort"
	"time"

	"chat-digest-mailer/internal/domain"
)

const (
	// hotConversationLimit — максимум обсуждений в дайджесте.
	hotConversationLimit = 4
	// diversitySeedCount — сколько обсуждений берётся из рейтинга разнообразия безусловно.
	diversitySeedCount = 2
	// teaserMessageLimit — сколько сообщений показывается как превью обсуждения.
	teaserMessageLimit = 2
)

type conversationStats struct {
	length  int
	senders map[string]struct{}
}

// gatherHotConversations отбирает до четырёх горячих обсуждений из сообщений
// каналов пользователя. Сначала два самых разнообразных по участникам,
// затем добор самыми длинными. При равенстве очков порядок фиксируется
// ключом обсуждения (канал, тема), чтобы выдача была воспроизводимой.
func (s *Service) gatherHotConversations(user domain.User, channelMessages []domain.UserMessage, cutoff time.Time) ([]domain.HotConversation, error) {
	if len(channelMessages) == 0 {
		return nil, nil
	}

	stats := make(map[domain.ConversationKey]*conversationStats)
	for _, um := range channelMessages {
		key := domain.ConversationKey{ChannelID: um.Message.ChannelID, Topic: um.Message.Topic}
		st, ok := stats[key]
		if !ok {
			st = &conversationStats{senders: make(map[string]struct{})}
			stats[key] = st
		}
		st.senders[um.Message.SenderName] = struct{}{}
		st.length++
	}

	keys := make([]domain.ConversationKey, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}

	diversityOrder := append([]domain.ConversationKey(nil), keys...)
	sort.Slice(diversityOrder, func(i, j int) bool {
		a, b := diversityOrder[i], diversityOrder[j]
		if da, db := len(stats[a].senders), len(stats[b].senders); da != db {
			return da > db
		}
		return lessKey(a, b)
	})

	lengthOrder := append([]domain.ConversationKey(nil), keys...)
	sort.Slice(lengthOrder, func(i, j int) bool {
		a, b := lengthOrder[i], lengthOrder[j]
		if la, lb := stats[a].length, stats[b].length; la != lb {
			return la > lb
		}
		return lessKey(a, b)
	})

	selected := make([]domain.ConversationKey, 0, hotConversationLimit)
	seen := make(map[domain.ConversationKey]struct{})
	for _, key := range diversityOrder[:min(diversitySeedCount, len(diversityOrder))] {
		selected = append(selected, key)
		seen[key] = struct{}{}
	}
	for _, key := range lengthOrder {
		if len(selected) >= hotConversationLimit {
			break
		}
		if _, ok := seen[key]; ok {
			continue
		}
		selected = append(selected, key)
		seen[key] = struct{}{}
	}

	conversations := make([]domain.HotConversation, 0, len(selected))
	for _, key := range selected {
		teaser, err := s.messages.ListConversationMessages(user.ID, key, cutoff, teaserMessageLimit)
		if err != nil {
			return nil, fmt.Errorf("превью обсуждения %d/%s: %w", key.ChannelID, key.Topic, err)
		}

		channel, err := s.channels.GetChannelByID(key.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("канал %d: %w", key.ChannelID, err)
		}

		participants := make([]string, 0, len(stats[key].senders))
		for name := range stats[key].senders {
			participants = append(participants, name)
		}
		sort.Strings(participants)

		conversations = append(conversations, domain.HotConversation{
			Key:            key,
			ChannelName:    channel.Name,
			Participants:   participants,
			RemainingCount: stats[key].length - len(teaser),
			Teaser:         s.renderer.BuildMessageList(user, teaser),
		})
	}

	return conversations, nil
}

func lessKey(a, b domain.ConversationKey) bool {
	if a.ChannelID != b.ChannelID {
		return a.ChannelID < b.ChannelID
	}
	return a.Topic < b.Topic
}
