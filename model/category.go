package model

var CategoryLayout = Layout{
	Columns: []Column{
		{Header: "Nombre", Aliases: []string{"Name", "Categoría", "Category"}},
	},
	Key: 0,
}

type Category struct {
	Name string
}

func DecodeCategory(r Record) Category {
	return Category{
		Name: r["Nombre"],
	}
}

func (c Category) Record() Record {
	return Record{
		"Nombre": c.Name,
	}
}

// Palette is cycled over the category list to give each category a colour.
var Palette = []string{
	"#FF6B6B",
	"#4ECDC4",
	"#45B7D1",
	"#F9A825",
	"#96CEB4",
	"#DDA0DD",
	"#F4A261",
	"#8E9AAF",
}

const DefaultColour = "#FFFFFF"

// CategoryColours assigns palette colours by category position, wrapping around when there are
// more categories than colours. Duplicate names keep the colour of their first occurrence.
func CategoryColours(categories []Category) map[string]string {
	colours := map[string]string{}
	for i, c := range categories {
		if _, ok := colours[c.Name]; !ok {
			colours[c.Name] = Palette[i%len(Palette)]
		}
	}

	return colours
}

// Colour returns the colour for a category name, or DefaultColour if the category is unknown.
func Colour(colours map[string]string, category string) string {
	if c, ok := colours[category]; ok {
		return c
	}

	return DefaultColour
}
