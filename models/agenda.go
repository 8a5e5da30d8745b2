// models/agenda.go
package models

// Credentials are the backend API login used by the job.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthToken is the bearer token returned by the backend login. It lives for one run.
type AuthToken string

type Client struct {
	Name string `json:"name"`
}

type Appointment struct {
	Procedure string `json:"procedure"`
	Time      string `json:"time"`
	Client    Client `json:"client"`
}

type Task struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// DailyAgenda is what the job reports for one calendar day.
// Appointments and Tasks are never nil.
type DailyAgenda struct {
	Date         string        `json:"date"`
	Appointments []Appointment `json:"appointments"`
	Tasks        []Task        `json:"tasks"`
}

// NewDailyAgenda normalizes nil slices to empty ones.
func NewDailyAgenda(date string, appointments []Appointment, tasks []Task) DailyAgenda {
	if appointments == nil {
		appointments = []Appointment{}
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return DailyAgenda{Date: date, Appointments: appointments, Tasks: tasks}
}
