package digest

import (
	"testing"
	"time"

	"chat-digest-mailer/internal/domain"
)

// conversation наполняет стор сообщениями одного обсуждения.
func conversation(store *stubStore, channelID int64, topic string, senders []string, total int, start time.Time) {
	for i := 0; i < total; i++ {
		sender := senders[i%len(senders)]
		id := int64(len(store.messages) + 1)
		store.messages = append(store.messages, channelMessage(id, channelID, topic, sender, start.Add(time.Duration(i)*time.Minute)))
	}
	if store.channelByID == nil {
		store.channelByID = map[int64]domain.Channel{}
	}
	store.channelByID[channelID] = domain.Channel{ID: channelID, Name: topic + "-channel"}
}

func TestGatherHotConversationsSelection(t *testing.T) {
	now := time.Now().UTC()
	store := &stubStore{user: domain.User{ID: 7, RealmID: 1}}
	conversation(store, 1, "releases", []string{"Анна", "Борис", "Вера"}, 3, now) // самое разнообразное
	conversation(store, 2, "longest", []string{"Глеб"}, 6, now)                   // самое длинное
	conversation(store, 3, "duo", []string{"Анна", "Глеб"}, 2, now)               // второе по разнообразию
	conversation(store, 4, "medium", []string{"Вера"}, 4, now)                    // добор по длине
	conversation(store, 5, "tiny", []string{"Борис"}, 1, now)                     // не должно попасть
	service, _, _ := newTestService(store)

	hot, err := service.gatherHotConversations(store.user, store.messages, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(hot) != 4 {
		t.Fatalf("ожидали 4 обсуждения, получили %d", len(hot))
	}

	wantOrder := []string{"releases", "duo", "longest", "medium"}
	for i, topic := range wantOrder {
		if hot[i].Key.Topic != topic {
			t.Fatalf("позиция %d: ожидали %q, получили %q", i, topic, hot[i].Key.Topic)
		}
	}

	// Самое длинное обсуждение: 6 сообщений, 2 в превью.
	if hot[2].RemainingCount != 4 {
		t.Fatalf("ожидали остаток 4, получили %d", hot[2].RemainingCount)
	}
	if len(hot[2].Teaser) != 2 {
		t.Fatalf("ожидали 2 сообщения в превью, получили %d", len(hot[2].Teaser))
	}
}

func TestGatherHotConversationsNoDuplicates(t *testing.T) {
	now := time.Now().UTC()
	store := &stubStore{user: domain.User{ID: 7, RealmID: 1}}
	// Одно и то же обсуждение лидирует и по разнообразию, и по длине.
	conversation(store, 1, "everything", []string{"Анна", "Борис", "Вера"}, 9, now)
	conversation(store, 2, "second", []string{"Глеб"}, 2, now)
	service, _, _ := newTestService(store)

	hot, err := service.gatherHotConversations(store.user, store.messages, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(hot) != 2 {
		t.Fatalf("ожидали 2 обсуждения, получили %d", len(hot))
	}
	if hot[0].Key == hot[1].Key {
		t.Fatalf("обсуждение не должно дублироваться")
	}
}

func TestGatherHotConversationsBounds(t *testing.T) {
	now := time.Now().UTC()

	store := &stubStore{user: domain.User{ID: 7}}
	service, _, _ := newTestService(store)
	hot, err := service.gatherHotConversations(store.user, nil, now)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(hot) != 0 {
		t.Fatalf("без сообщений выдача пуста")
	}

	store = &stubStore{user: domain.User{ID: 7}}
	conversation(store, 1, "alone", []string{"Анна"}, 3, now)
	service, _, _ = newTestService(store)
	hot, err = service.gatherHotConversations(store.user, store.messages, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(hot) != 1 {
		t.Fatalf("ожидали 1 обсуждение, получили %d", len(hot))
	}

	store = &stubStore{user: domain.User{ID: 7}}
	for i := int64(1); i <= 6; i++ {
		conversation(store, i, "topic", []string{"Анна"}, 2, now)
	}
	service, _, _ = newTestService(store)
	hot, err = service.gatherHotConversations(store.user, store.messages, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(hot) != 4 {
		t.Fatalf("выдача ограничена четырьмя, получили %d", len(hot))
	}
}

func TestGatherHotConversationsDeterministicTieBreak(t *testing.T) {
	now := time.Now().UTC()
	store := &stubStore{user: domain.User{ID: 7}}
	// Полностью равные очки: порядок фиксируется ключом (канал, тема).
	conversation(store, 2, "beta", []string{"Анна"}, 2, now)
	conversation(store, 1, "alpha", []string{"Борис"}, 2, now)
	service, _, _ := newTestService(store)

	hot, err := service.gatherHotConversations(store.user, store.messages, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if hot[0].Key.ChannelID != 1 || hot[1].Key.ChannelID != 2 {
		t.Fatalf("ожидали порядок по каналу: %v, %v", hot[0].Key, hot[1].Key)
	}
}

func TestGatherHotConversationsParticipantsSorted(t *testing.T) {
	now := time.Now().UTC()
	store := &stubStore{user: domain.User{ID: 7}}
	conversation(store, 1, "releases", []string{"Глеб", "Анна", "Вера"}, 3, now)
	service, _, _ := newTestService(store)

	hot, err := service.gatherHotConversations(store.user, store.messages, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	want := []string{"Анна", "Вера", "Глеб"}
	got := hot[0].Participants
	if len(got) != len(want) {
		t.Fatalf("ожидали %d участников, получили %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("участники должны быть отсортированы: %v", got)
		}
	}
}
