package http

import (
	"embed"
	"fmt"
	"html/template"
	"net/url"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"cunydash/internal/charts"
	"cunydash/internal/viewmodel"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// PageHeading is the caption above the term dropdown
const PageHeading = "Select a year to see the number of students enrolled:"

// PageConfig holds the static parts of the dashboard page
type PageConfig struct {
	Title       string
	Template    string
	MapEmbedURL string
	ChartWidth  int
}

// figureLink is one chart panel of the page
type figureLink struct {
	Name string
	URL  string
}

// pageData is the template input
type pageData struct {
	Title       string
	Heading     string
	Terms       []viewmodel.Option
	Term        string
	Colleges    []viewmodel.Option
	College     string
	Figures     []figureLink
	MapEmbedURL string
	ChartWidth  int
	Background  template.CSS
	Foreground  template.CSS
	Border      template.CSS
}

func newPageData(cfg PageConfig, model viewmodel.Model, names []string, term, college string) pageData {
	theme, _ := charts.ThemeFor(cfg.Template)

	query := url.Values{}
	query.Set("term", term)
	if college != "" {
		query.Set("college", college)
	}

	figures := make([]figureLink, len(names))
	for i, name := range names {
		figures[i] = figureLink{
			Name: name,
			URL:  "/charts/" + name + ".svg?" + query.Encode(),
		}
	}

	return pageData{
		Title:       cfg.Title,
		Heading:     PageHeading,
		Terms:       model.TermOptions,
		Term:        term,
		Colleges:    model.CollegeOptions,
		College:     college,
		Figures:     figures,
		MapEmbedURL: cfg.MapEmbedURL,
		ChartWidth:  cfg.ChartWidth,
		Background:  cssColor(theme.Paper),
		Foreground:  cssColor(theme.Text),
		Border:      cssColor(theme.Grid),
	}
}

func cssColor(c drawing.Color) template.CSS {
	return template.CSS(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
