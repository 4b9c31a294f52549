package digest

// EnoughTraffic решает, набралось ли достаточно событий для отправки письма.
// Любой непрочитанный личный трафик или хотя бы одно горячее обсуждение —
// достаточно. Иначе письмо уходит только если организация выросла
// одновременно в каналах и в людях.
func EnoughTraffic(unreadDMs, hotConversations, newChannels, newUsers int) bool {
	if unreadDMs > 0 || hotConversations > 0 {
		return true
	}
	if newChannels > 0 && newUsers > 0 {
		return true
	}
	return false
}
