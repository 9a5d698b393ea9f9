package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	var b bytes.Buffer

	sheets := []Sheet{
		{
			Name:   "Tareas",
			Header: []string{"ID", "Título", "Categoría"},
			Rows: [][]string{
				{"T1", "Write report", "Admin"},
				{"T2", "Review budget", "Otra"},
			},
			Fills: map[string]func(string) string{
				"Categoría": func(v string) string {
					if v == "Admin" {
						return "#FF6B6B"
					}
					return ""
				},
			},
		},
		{
			Name:   "Usuarios",
			Header: []string{"Nombre", "Edad", "URL_Foto_Perfil"},
			Rows:   [][]string{{"Ana", "34", "https://example.com/ana.png"}},
		},
	}

	summary := Summary{
		Total:      2,
		Active:     2,
		ByStatus:   []Count{{"Pendiente", 2}},
		ByCategory: []Count{{"Admin", 1}, {"Otra", 1}},
		ByAssignee: []Count{{Unassigned, 2}},
	}

	require.NoError(t, WriteXLSX(&b, sheets, summary))

	f, err := excelize.OpenReader(&b)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Tareas", "Usuarios", "Resumen"}, f.GetSheetList())

	rows, err := f.GetRows("Tareas")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID", "Título", "Categoría"},
		{"T1", "Write report", "Admin"},
		{"T2", "Review budget", "Otra"},
	}, rows)

	rows, err = f.GetRows("Usuarios")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Nombre", "Edad", "URL_Foto_Perfil"}, {"Ana", "34", "https://example.com/ana.png"}}, rows)

	total, err := f.GetCellValue("Resumen", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	label, err := f.GetCellValue("Resumen", "A7")
	require.NoError(t, err)
	assert.Equal(t, "Estado", label)

	styled, err := f.GetCellStyle("Tareas", "C2")
	require.NoError(t, err)
	plain, err := f.GetCellStyle("Tareas", "C3")
	require.NoError(t, err)
	assert.NotEqual(t, styled, plain)
}

func TestWriteXLSXWithoutSheets(t *testing.T) {
	var b bytes.Buffer

	require.NoError(t, WriteXLSX(&b, nil, Summary{}))

	f, err := excelize.OpenReader(&b)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Resumen"}, f.GetSheetList())
}
