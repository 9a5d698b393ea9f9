package model

import (
	"time"
)

const TimestampFormat = "2006-01-02 15:04:05"

var CommentLayout = Layout{
	Columns: []Column{
		{Header: "ID"},
		{Header: "ID Tarea", Aliases: []string{"Tarea", "Task ID", "TaskID"}},
		{Header: "Autor", Aliases: []string{"Author", "Usuario"}},
		{Header: "Comentario", Aliases: []string{"Texto", "Text", "Comment"}},
		{Header: "Fecha", Aliases: []string{"Timestamp", "Fecha Hora"}},
	},
	Key:       0,
	Generated: true,
}

type Comment struct {
	ID        string
	TaskID    string
	Author    string
	Text      string
	Timestamp time.Time
}

func ParseTimestamp(v string) time.Time {
	s := clean(v)
	for _, layout := range []string{TimestampFormat, "2006-01-02T15:04:05", "02/01/2006 15:04:05", DateFormat} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}

	return time.Time{}
}

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(TimestampFormat)
}

func DecodeComment(r Record) Comment {
	return Comment{
		ID:        r["ID"],
		TaskID:    r["ID Tarea"],
		Author:    r["Autor"],
		Text:      r["Comentario"],
		Timestamp: ParseTimestamp(r["Fecha"]),
	}
}

func (c Comment) Record() Record {
	return Record{
		"ID":         c.ID,
		"ID Tarea":   c.TaskID,
		"Autor":      c.Author,
		"Comentario": c.Text,
		"Fecha":      FormatTimestamp(c.Timestamp),
	}
}
