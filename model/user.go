package model

import (
	"fmt"
	"strconv"
	"strings"
)

var UserLayout = Layout{
	Columns: []Column{
		{Header: "Nombre", Aliases: []string{"Name"}},
		{Header: "Edad", Aliases: []string{"Age"}},
		{Header: "URL_Foto_Perfil", Aliases: []string{"URL Foto Perfil", "Foto", "Photo", "Photo URL"}},
	},
	Key: 0,
}

type User struct {
	Name     string
	Age      int
	PhotoURL string
}

// ParseAge returns 0 for blank or non-numeric cells. Sheets sometimes renders whole numbers as
// '34.0' so fractional values are truncated.
func ParseAge(v string) int {
	s := strings.TrimSpace(v)
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return int(f)
	}

	return 0
}

func DecodeUser(r Record) User {
	return User{
		Name:     r["Nombre"],
		Age:      ParseAge(r["Edad"]),
		PhotoURL: r["URL_Foto_Perfil"],
	}
}

func (u User) Record() Record {
	return Record{
		"Nombre":          u.Name,
		"Edad":            fmt.Sprintf("%v", u.Age),
		"URL_Foto_Perfil": u.PhotoURL,
	}
}
