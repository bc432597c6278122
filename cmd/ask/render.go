package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sumulas-rag/logic/pipeline"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Foreground(lipgloss.Color("9")).
			Padding(0, 1)
)

func renderDetails(e pipeline.DetailsEvent) string {
	body := strings.Join([]string{
		titleStyle.Render("Detalhes da busca"),
		labelStyle.Render("Consulta: ") + e.Query,
		labelStyle.Render("Filtro:   ") + e.Filter,
	}, "\n")
	return panelStyle.Render(body)
}

func renderSources(e pipeline.SourcesEvent) string {
	lines := []string{titleStyle.Render("Fontes")}
	if len(e.Sources) == 0 {
		lines = append(lines, labelStyle.Render("nenhuma"))
	}
	for i, s := range e.Sources {
		lines = append(lines, fmt.Sprintf("%d. Súmula %s (%s) %s %s  %s",
			i+1, s.SummaryNumber, s.ChunkType, s.Status, s.StatusDate, labelStyle.Render(s.SourceName)))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func renderError(e pipeline.ErrorEvent) string {
	return errorStyle.Render(fmt.Sprintf("%s (%s)", e.Message, e.Reason))
}
