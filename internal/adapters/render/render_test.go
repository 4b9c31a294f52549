package render

import (
	"strings"
	"testing"
	"time"

	"chat-digest-mailer/internal/domain"
)

func testPayload() domain.DigestPayload {
	return domain.DigestPayload{
		Name: "Анна",
		UnreadDirectMessages: []domain.TeaserMessage{
			{SenderName: "Борис", Body: "созвон в три", SentAt: time.Now()},
		},
		RemainingUnreadCount: 2,
		HotConversations: []domain.HotConversation{
			{
				Key:            domain.ConversationKey{ChannelID: 1, Topic: "releases"},
				ChannelName:    "engineering",
				Participants:   []string{"Анна", "Вера"},
				RemainingCount: 3,
				Teaser: []domain.TeaserMessage{
					{SenderName: "Вера", Body: "выкатываем завтра"},
				},
			},
		},
		NewChannels: domain.ChannelLinks{
			HTML:  []string{"<a href='https://chat.example/#narrow/channel/design.20review'>design review</a>"},
			Plain: []string{"design review"},
		},
		NewChannelCount: 1,
		NewUserNames:    []string{"Глеб"},
		NewUserCount:    1,
	}
}

func TestRenderText(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	out, err := r.RenderText(testPayload())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	for _, want := range []string{
		"Hello Анна",
		"Борис: созвон в три",
		"...and 2 more unread direct messages",
		"engineering > releases — Анна, Вера",
		"design review",
		"Глеб",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("в тексте нет %q:\n%s", want, out)
		}
	}
}

func TestRenderHTMLKeepsChannelAnchors(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	out, err := r.RenderHTML(testPayload())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !strings.Contains(out, "<a href='https://chat.example/#narrow/channel/design.20review'>design review</a>") {
		t.Fatalf("ссылка на канал должна остаться сырым HTML:\n%s", out)
	}
	if !strings.Contains(out, "<b>Вера</b>") {
		t.Fatalf("ожидали имя отправителя в превью:\n%s", out)
	}
}

func TestBuildMessageListTrimsBody(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	long := strings.Repeat("ж", 300)
	teasers := r.BuildMessageList(domain.User{}, []domain.Message{{SenderName: "Анна", Body: long}})
	if len(teasers) != 1 {
		t.Fatalf("ожидали 1 превью")
	}
	if got := len([]rune(teasers[0].Body)); got != snippetRuneLimit+1 {
		t.Fatalf("ожидали %d рун, получили %d", snippetRuneLimit+1, got)
	}
	if !strings.HasSuffix(teasers[0].Body, "…") {
		t.Fatalf("усечённое тело должно оканчиваться многоточием")
	}
}
