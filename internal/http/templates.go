package http

import (
	"embed"
	"html/template"

	"echowipe/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

func loadTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// pageView es el modelo que reciben index.html y dashboard.html.
type pageView struct {
	Notice      string
	NoticeKind  string
	OTPSent     bool
	EmailForOTP string
	Email       string
	Result      *domain.DetectionResult
	Error       string
}

func notice(kind, msg string) pageView {
	return pageView{Notice: msg, NoticeKind: kind}
}
