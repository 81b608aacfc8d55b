package mailer

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"net/url"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"
)

//go:embed templates
var templateFS embed.FS

const (
	SubjectVerification  = "Verify your NOTE_SNAP account"
	SubjectPasswordReset = "Reset your NOTE_SNAP password"
)

type templateData struct {
	Subject   string
	Title     string
	Accent    htmltemplate.CSS
	Email     string
	Link      string
	ExpiresIn string
}

type emailTemplate struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func mustLoad(name string) emailTemplate {
	return emailTemplate{
		html: htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")),
		text: texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/"+name+".txt")),
	}
}

var (
	verificationTemplate = mustLoad("verification")
	resetTemplate        = mustLoad("reset")
)

func (t emailTemplate) render(to string, data templateData) (Message, error) {
	var html, text bytes.Buffer
	if err := t.html.ExecuteTemplate(&html, "layout", data); err != nil {
		return Message{}, err
	}
	if err := t.text.Execute(&text, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: data.Subject, HTML: html.String(), Text: text.String(), Link: data.Link}, nil
}

// Link joins baseURL, path and a token query parameter.
func Link(baseURL, path, token string) string {
	return strings.TrimRight(baseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

// VerificationEmail renders the email-confirmation message.
func VerificationEmail(to, link string, ttl time.Duration) (Message, error) {
	return verificationTemplate.render(to, templateData{
		Subject:   SubjectVerification,
		Title:     "EMAIL_VERIFICATION.exe",
		Accent:    "#00ff00",
		Email:     to,
		Link:      link,
		ExpiresIn: humanizeTTL(ttl),
	})
}

// PasswordResetEmail renders the password reset message.
func PasswordResetEmail(to, link string, ttl time.Duration) (Message, error) {
	return resetTemplate.render(to, templateData{
		Subject:   SubjectPasswordReset,
		Title:     "PASSWORD_RESET.exe",
		Accent:    "#ff6b6b",
		Email:     to,
		Link:      link,
		ExpiresIn: humanizeTTL(ttl),
	})
}

// humanizeTTL renders whole hours as "1 hour"/"24 hours", else minutes.
func humanizeTTL(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return plural(int(d/time.Hour), "hour")
	}
	return plural(int(d/time.Minute), "minute")
}

func plural(n int, unit string) string {
	s := strconv.Itoa(n) + " " + unit
	if n != 1 {
		s += "s"
	}
	return s
}
