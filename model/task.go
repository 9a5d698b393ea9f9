package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateFormat = "2006-01-02"

type Status string

const (
	Pending    Status = "Pendiente"
	InProgress Status = "En Proceso"
	Done       Status = "Terminada"
)

var Statuses = []Status{Pending, InProgress, Done}

var TaskLayout = Layout{
	Columns: []Column{
		{Header: "ID"},
		{Header: "Título", Aliases: []string{"Title"}},
		{Header: "Descripción", Aliases: []string{"Description"}},
		{Header: "Usuario Asignado", Aliases: []string{"Asignado", "Assigned User", "Assignee"}},
		{Header: "Categoría", Aliases: []string{"Category"}},
		{Header: "Fecha Límite", Aliases: []string{"Due Date", "Due"}},
		{Header: "Estado", Aliases: []string{"Status"}},
		{Header: "Avance (%)", Aliases: []string{"Avance", "Progress", "Progress%", "Progress (%)"}},
	},
	Key:       0,
	Generated: true,
}

type Task struct {
	ID          string
	Title       string
	Description string
	Assignee    string
	Category    string
	Due         time.Time
	Status      Status
	Progress    int
}

// ParseStatus accepts the Spanish sheet values and their English equivalents. Anything else is
// kept as is.
func ParseStatus(v string) Status {
	switch Normalise(strings.ReplaceAll(v, "-", " ")) {
	case "pendiente", "pending":
		return Pending
	case "enproceso", "inprogress", "enprogreso":
		return InProgress
	case "terminada", "terminado", "done", "completed":
		return Done
	default:
		return Status(clean(v))
	}
}

func (s Status) Done() bool {
	return s == Done
}

// ParseProgress returns the percentage in a progress cell, clamped to 0-100. Blank or malformed
// values are 0.
func ParseProgress(v string) int {
	s := strings.TrimSuffix(clean(v), "%")
	if s == "" {
		return 0
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}

	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	default:
		return int(f)
	}
}

// ParseDate accepts ISO dates and the dd/mm/yyyy form Sheets shows for Spanish locales. Blank or
// malformed values are the zero time.
func ParseDate(v string) time.Time {
	s := clean(v)
	for _, layout := range []string{DateFormat, "02/01/2006", "2/1/2006", "2006-01-02 15:04:05"} {
		if d, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return d
		}
	}

	return time.Time{}
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(DateFormat)
}

// Overdue is true for unfinished tasks with a due date before 'today'.
func (t Task) Overdue(today time.Time) bool {
	if t.Due.IsZero() || t.Status.Done() {
		return false
	}

	y, m, d := today.Date()

	return t.Due.Before(time.Date(y, m, d, 0, 0, 0, 0, t.Due.Location()))
}

func (t Task) String() string {
	return fmt.Sprintf("%v %q %v %v%%", t.ID, t.Title, t.Status, t.Progress)
}

func DecodeTask(r Record) Task {
	return Task{
		ID:          r["ID"],
		Title:       r["Título"],
		Description: r["Descripción"],
		Assignee:    r["Usuario Asignado"],
		Category:    r["Categoría"],
		Due:         ParseDate(r["Fecha Límite"]),
		Status:      ParseStatus(r["Estado"]),
		Progress:    ParseProgress(r["Avance (%)"]),
	}
}

func (t Task) Record() Record {
	return Record{
		"ID":               t.ID,
		"Título":           t.Title,
		"Descripción":      t.Description,
		"Usuario Asignado": t.Assignee,
		"Categoría":        t.Category,
		"Fecha Límite":     FormatDate(t.Due),
		"Estado":           string(t.Status),
		"Avance (%)":       fmt.Sprintf("%v", t.Progress),
	}
}
