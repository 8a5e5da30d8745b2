// services/renderer.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	texttpl "text/template"

	"lashapp-notifier/models"
)

const (
	subjectFormat = "Notificação Diária de Tarefas e Agendamentos - %s"

	NoAppointmentsPlaceholder = "Não há agendamentos para hoje."
	NoTasksPlaceholder        = "Não há tarefas para hoje."
)

const agendaHTML = `<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px;">
    <h2 style="color: #C378DC;">Bom dia, {{.RecipientName}}!</h2>
    <p>Esperamos que seu dia seja ótimo! Aqui está um resumo de seus agendamentos e tarefas para hoje :)</p>

    <div style="margin-top: 20px;">
      <h3 style="color: #333; border-bottom: 2px solid #C378DC; padding-bottom: 5px;">Agendamentos de Hoje</h3>
      {{- if .Appointments}}
      <ul style="list-style: none; padding: 0;">
        {{- range .Appointments}}
        <li style="background: #f9f9f9; padding: 10px; margin-bottom: 10px; border-radius: 5px;">
          <strong>Procedimento:</strong> {{.Procedure}} <br>
          <strong>Hora:</strong> {{.Time}} <br>
          <strong>Cliente:</strong> {{.Client.Name}}
        </li>
        {{- end}}
      </ul>
      {{- else}}
      <p style="color: #777;">{{$.NoAppointments}}</p>
      {{- end}}
    </div>

    <div style="margin-top: 20px;">
      <h3 style="color: #333; border-bottom: 2px solid #C378DC; padding-bottom: 5px;">Tarefas de Hoje</h3>
      {{- if .Tasks}}
      <ul style="list-style: none; padding: 0;">
        {{- range .Tasks}}
        <li style="background: #f9f9f9; padding: 10px; margin-bottom: 10px; border-radius: 5px;">
          <strong>Tarefa:</strong> {{.Name}} <br>
          <strong>Hora:</strong> {{.Time}}
        </li>
        {{- end}}
      </ul>
      {{- else}}
      <p style="color: #777;">{{$.NoTasks}}</p>
      {{- end}}
    </div>

    <p style="font-size: 14px; color: #777;">Tenha um ótimo dia!</p>

    <p style="font-size: 14px; color: #777;">Atenciosamente, <br><strong>Equipe {{.Brand}}</strong></p>
  </div>
</body>
</html>
`

const agendaText = `Bom dia, {{.RecipientName}}!

Aqui está um resumo de seus agendamentos e tarefas para hoje.

Agendamentos de Hoje
{{- if .Appointments}}
{{- range .Appointments}}
- {{.Time}} {{.Procedure}} (Cliente: {{.Client.Name}})
{{- end}}
{{- else}}
{{.NoAppointments}}
{{- end}}

Tarefas de Hoje
{{- if .Tasks}}
{{- range .Tasks}}
- {{.Time}} {{.Name}}
{{- end}}
{{- else}}
{{.NoTasks}}
{{- end}}

Tenha um ótimo dia!
Equipe {{.Brand}}
`

var (
	agendaHTMLTemplate = template.Must(template.New("agenda_html").Parse(agendaHTML))
	agendaTextTemplate = texttpl.Must(texttpl.New("agenda_txt").Parse(agendaText))
)

type agendaVars struct {
	RecipientName  string
	Brand          string
	Appointments   []models.Appointment
	Tasks          []models.Task
	NoAppointments string
	NoTasks        string
}

// AgendaRenderer turns a DailyAgenda into the daily email. It has no side effects:
// the same input always renders the same bytes.
type AgendaRenderer struct {
	Brand string
}

func NewAgendaRenderer(brand string) *AgendaRenderer {
	return &AgendaRenderer{Brand: brand}
}

func (r *AgendaRenderer) Subject() string {
	return fmt.Sprintf(subjectFormat, r.Brand)
}

func (r *AgendaRenderer) Render(recipient, recipientName string, agenda models.DailyAgenda) (models.RenderedEmail, error) {
	vars := agendaVars{
		RecipientName:  recipientName,
		Brand:          r.Brand,
		Appointments:   agenda.Appointments,
		Tasks:          agenda.Tasks,
		NoAppointments: NoAppointmentsPlaceholder,
		NoTasks:        NoTasksPlaceholder,
	}

	var html bytes.Buffer
	if err := agendaHTMLTemplate.Execute(&html, vars); err != nil {
		return models.RenderedEmail{}, &RenderError{Err: fmt.Errorf("html body: %w", err)}
	}
	var text bytes.Buffer
	if err := agendaTextTemplate.Execute(&text, vars); err != nil {
		return models.RenderedEmail{}, &RenderError{Err: fmt.Errorf("text body: %w", err)}
	}

	return models.RenderedEmail{
		Recipient:     recipient,
		RecipientName: recipientName,
		Subject:       r.Subject(),
		HTMLBody:      html.String(),
		TextBody:      text.String(),
	}, nil
}
