// Package web holds the server-rendered pages of the attendance register.
package web

import (
	"embed"
	"html/template"
	"strings"

	"github.com/noah-isme/attendance-register/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates. Each page is defined under
// its file name and shares the "header" and "footer" partials.
func Templates() (*template.Template, error) {
	return template.New("pages").Funcs(template.FuncMap{
		"statusClass": statusClass,
		"statuses":    func() []models.AttendanceStatus { return models.AttendanceStatuses },
	}).ParseFS(templateFS, "templates/*.html")
}

func statusClass(status models.AttendanceStatus) string {
	switch status {
	case models.AttendanceStatusPresent:
		return "status-present"
	case models.AttendanceStatusAbsent:
		return "status-absent"
	case "":
		return "status-unmarked"
	default:
		return "status-" + strings.ToLower(string(status))
	}
}
