package render

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"unicode/utf8"

	"chat-digest-mailer/internal/domain"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// snippetRuneLimit ограничивает длину тела сообщения в превью.
const snippetRuneLimit = 200

// Renderer строит превью сообщений и рендерит шаблоны письма.
type Renderer struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

var _ domain.MessageRenderer = (*Renderer)(nil)

// New парсит встроенные шаблоны дайджеста.
func New() (*Renderer, error) {
	text, err := texttemplate.New("digest_email.txt.tmpl").
		Funcs(texttemplate.FuncMap{"join": strings.Join}).
		ParseFS(templatesFS, "templates/digest_email.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("парсинг текстового шаблона: %w", err)
	}
	html, err := htmltemplate.New("digest_email.html.tmpl").
		Funcs(htmltemplate.FuncMap{
			"join": strings.Join,
			"safe": func(s string) htmltemplate.HTML { return htmltemplate.HTML(s) },
		}).
		ParseFS(templatesFS, "templates/digest_email.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("парсинг HTML шаблона: %w", err)
	}
	return &Renderer{text: text, html: html}, nil
}

// BuildMessageList готовит сообщения к показу в письме:
// имя отправителя, усечённое тело и время публикации.
func (r *Renderer) BuildMessageList(user domain.User, messages []domain.Message) []domain.TeaserMessage {
	teasers := make([]domain.TeaserMessage, 0, len(messages))
	for _, msg := range messages {
		teasers = append(teasers, domain.TeaserMessage{
			SenderName: msg.SenderName,
			Body:       snippet(msg.Body),
			SentAt:     msg.SentAt,
		})
	}
	return teasers
}

// RenderText рендерит текстовую версию письма.
func (r *Renderer) RenderText(payload domain.DigestPayload) (string, error) {
	var buf bytes.Buffer
	if err := r.text.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("рендеринг digest_email.txt: %w", err)
	}
	return buf.String(), nil
}

// RenderHTML рендерит HTML версию письма.
func (r *Renderer) RenderHTML(payload domain.DigestPayload) (string, error) {
	var buf bytes.Buffer
	if err := r.html.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("рендеринг digest_email.html: %w", err)
	}
	return buf.String(), nil
}

func snippet(body string) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= snippetRuneLimit {
		return body
	}
	runes := []rune(body)
	return string(runes[:snippetRuneLimit]) + "…"
}
