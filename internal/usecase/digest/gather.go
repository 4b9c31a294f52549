package digest

import (
	"fmt"
	"html"
	"time"

	"chat-digest-mailer/internal/domain"
	"chat-digest-mailer/internal/narrow"
)

// gatherNewUsers возвращает количество и имена людей (не ботов),
// присоединившихся к организации строго после threshold.
func (s *Service) gatherNewUsers(user domain.User, threshold time.Time) (int, []string, error) {
	newUsers, err := s.users.ListNewUsers(user.RealmID, threshold)
	if err != nil {
		return 0, nil, fmt.Errorf("новые пользователи: %w", err)
	}

	names := make([]string, 0, len(newUsers))
	for _, u := range newUsers {
		names = append(names, u.FullName)
	}
	return len(names), names, nil
}

// gatherNewChannels возвращает каналы организации, созданные строго после
// threshold, в двух вариантах: HTML-ссылки на narrow-представление канала
// и простые имена.
func (s *Service) gatherNewChannels(user domain.User, threshold time.Time) (int, domain.ChannelLinks, error) {
	newChannels, err := s.channels.ListNewChannels(user.RealmID, threshold)
	if err != nil {
		return 0, domain.ChannelLinks{}, fmt.Errorf("новые каналы: %w", err)
	}

	links := domain.ChannelLinks{
		HTML:  make([]string, 0, len(newChannels)),
		Plain: make([]string, 0, len(newChannels)),
	}
	for _, ch := range newChannels {
		narrowURL := s.baseURL + "/#narrow/channel/" + narrow.Encode(ch.Name)
		links.HTML = append(links.HTML, fmt.Sprintf("<a href='%s'>%s</a>", narrowURL, html.EscapeString(ch.Name)))
		links.Plain = append(links.Plain, ch.Name)
	}

	return len(newChannels), links, nil
}
