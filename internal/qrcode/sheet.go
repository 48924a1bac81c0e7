package qrcode

import (
	"encoding/base64"
	"html/template"
	"io"

	"qrattend/internal/model"
)

// SheetEntry is one card on the printable sheet.
type SheetEntry struct {
	Student model.Student
	PNG     []byte
}

type sheetCard struct {
	Name       string
	RollNumber string
	Course     string
	Image      template.URL
}

var sheetTmpl = template.Must(template.New("sheet").Parse(`<!DOCTYPE html>
<html>
  <head>
    <title>Student QR Codes</title>
    <style>
      body { font-family: Arial, sans-serif; margin: 20px; }
      .qr-card { display: inline-block; margin: 15px; padding: 20px; border: 2px solid #e2e8f0; border-radius: 8px; text-align: center; width: 200px; break-inside: avoid; }
      .student-name { font-weight: bold; margin-bottom: 5px; }
      .student-roll { color: #666; margin-bottom: 15px; }
      .student-course { margin-top: 10px; font-size: 12px; color: #666; }
      .qr-image { max-width: 150px; height: auto; }
    </style>
  </head>
  <body>
    <h1>Student QR Codes - Class Attendance</h1>
    <div class="qr-grid">
{{- range .}}
      <div class="qr-card">
        <div class="student-name">{{.Name}}</div>
        <div class="student-roll">{{.RollNumber}}</div>
        <img src="{{.Image}}" alt="QR Code" class="qr-image" />
        <div class="student-course">{{.Course}}</div>
      </div>
{{- end}}
    </div>
  </body>
</html>
`))

// RenderSheet writes a printable HTML page with one card per entry.
func RenderSheet(w io.Writer, entries []SheetEntry) error {
	cards := make([]sheetCard, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, sheetCard{
			Name:       e.Student.Name,
			RollNumber: e.Student.RollNumber,
			Course:     e.Student.Course,
			Image:      template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(e.PNG)),
		})
	}
	return sheetTmpl.Execute(w, cards)
}
