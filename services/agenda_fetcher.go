// services/agenda_fetcher.go
package services

import (
	"context"
	"net/url"

	"lashapp-notifier/models"

	"golang.org/x/sync/errgroup"
)

type appointmentsResponse struct {
	Appointments []models.Appointment `json:"appointments"`
}

type tasksResponse struct {
	Tasks []models.Task `json:"tasks"`
}

// AgendaFetcher reads one day of appointments and tasks from the backend.
type AgendaFetcher struct {
	api *APIClient
}

func NewAgendaFetcher(api *APIClient) *AgendaFetcher {
	return &AgendaFetcher{api: api}
}

// FetchDailyAgenda reads both lists concurrently. It is all or nothing: if either
// read fails the agenda is discarded and a *FetchError is returned.
func (f *AgendaFetcher) FetchDailyAgenda(ctx context.Context, token models.AuthToken, date string) (models.DailyAgenda, error) {
	query := url.Values{"date": {date}}

	var (
		appointments appointmentsResponse
		tasks        tasksResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := f.api.getJSON(gctx, token, "/api/appointments", query, &appointments); err != nil {
			return &FetchError{Resource: "appointments", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		if err := f.api.getJSON(gctx, token, "/api/tasks", query, &tasks); err != nil {
			return &FetchError{Resource: "tasks", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.DailyAgenda{}, err
	}

	return models.NewDailyAgenda(date, appointments.Appointments, tasks.Tasks), nil
}
