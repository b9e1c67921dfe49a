// Package notify renders ranked listings and mails them.
package notify

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/aluiziolira/go-scrape-cars/parser"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// HighlightScore is the score above which a row is highlighted.
const HighlightScore = 24

var header = table.Row{"Make", "Model", "Price", "Mileage", "Year", "Score", "Grade", "Listing", "Image"}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}

// RenderText renders top as a console table. With color set, rows above
// HighlightScore are painted.
func RenderText(top []models.ScoredCar, color bool) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	for _, car := range top {
		t.AppendRow(table.Row{
			car.Make,
			car.Model,
			parser.FormatInt(car.Price),
			parser.FormatInt(car.Mileage),
			parser.FormatInt(car.Year),
			formatScore(car.Score),
			string(car.Grade),
			car.URL,
			car.ImageURL,
		})
	}
	if color {
		t.SetRowPainter(table.RowPainter(func(row table.Row) text.Colors {
			score, err := strconv.ParseFloat(fmt.Sprint(row[5]), 64)
			if err == nil && score > HighlightScore {
				return text.Colors{text.BgYellow, text.FgBlack}
			}
			return nil
		}))
	}
	return t.Render()
}

// RenderHTML renders top as a standalone HTML document with clickable
// listings and inline images.
func RenderHTML(top []models.ScoredCar) string {
	t := table.NewWriter()
	t.Style().HTML.EscapeText = false
	t.AppendHeader(header)
	for _, car := range top {
		cells := []string{
			html.EscapeString(car.Make),
			html.EscapeString(car.Model),
			parser.FormatInt(car.Price),
			parser.FormatInt(car.Mileage),
			parser.FormatInt(car.Year),
			formatScore(car.Score),
			html.EscapeString(string(car.Grade)),
			fmt.Sprintf(`<a href="%s">Link</a>`, html.EscapeString(car.URL)),
			fmt.Sprintf(`<img src="%s" alt="car image" width="160">`, html.EscapeString(car.ImageURL)),
		}
		row := make(table.Row, len(cells))
		for i, cell := range cells {
			if car.Score > HighlightScore {
				cell = `<span style="background-color: yellow;">` + cell + `</span>`
			}
			row[i] = cell
		}
		t.AppendRow(row)
	}

	var b strings.Builder
	b.WriteString("<html>\n<body>\n<h2>Latest Car Listings</h2>\n")
	b.WriteString(t.RenderHTML())
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}
