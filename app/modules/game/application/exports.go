package gameservice

import (
	"bytes"
	"fmt"
	"strconv"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"github.com/xuri/excelize/v2"
)

const (
	creditsSheet = "Credits"
	roundsSheet  = "Rounds"
)

// ChartPalette colors the credits chart.
type ChartPalette struct {
	Background drawing.Color
	Bar        drawing.Color
	Text       drawing.Color
}

var defaultPalette = ChartPalette{
	Background: drawing.ColorFromHex("1b1f3b"),
	Bar:        drawing.ColorFromHex("f2c14e"),
	Text:       drawing.ColorFromHex("f5f5f5"),
}

// renderCreditsWorkbook writes the credits summary and the round transcript
// to an XLSX workbook.
func renderCreditsWorkbook(report *CreditsReport, rounds []RoundTranscript) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), creditsSheet); err != nil {
		return nil, fmt.Errorf("failed to name credits sheet: %w", err)
	}
	if _, err := f.NewSheet(roundsSheet); err != nil {
		return nil, fmt.Errorf("failed to add rounds sheet: %w", err)
	}

	rows := [][]any{{"Award", "User", "Value"}}
	for i, entry := range report.Credits.Podium {
		rows = append(rows, []any{"Podium #" + strconv.Itoa(i+1), entry.UserID.String(), entry.Value})
	}
	rows = appendScore(rows, "Most Profane", report.Credits.Profanity)
	rows = appendScore(rows, "Most Prolific", report.Credits.Prolific)
	rows = appendRatio(rows, "Most Efficient", report.Credits.Efficiency)
	rows = appendScore(rows, "Creative Spelling", report.Credits.Spelling)
	rows = appendRatio(rows, "Slowest Typist", report.Credits.Pace)
	rows = appendScore(rows, "Audience Favorite", report.Credits.AudienceFavorite)
	if err := writeRows(f, creditsSheet, rows); err != nil {
		return nil, err
	}

	rows = [][]any{{"Round", "Prompt", "User", "Answer", "Points", "Audience Stars", "Winner", "Submitted"}}
	for _, round := range rounds {
		for _, a := range round.Answers {
			rows = append(rows, []any{
				round.Order + 1,
				round.Prompt,
				a.UserID.String(),
				a.Text,
				a.Points,
				a.Audience,
				a.Won,
				a.Submitted.UTC().Format("2006-01-02 15:04:05"),
			})
		}
	}
	if err := writeRows(f, roundsSheet, rows); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(roundsSheet, "B", "D", 40); err != nil {
		return nil, fmt.Errorf("failed to size rounds sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func appendScore(rows [][]any, award string, score *gamedomain.UserScore) [][]any {
	if score == nil {
		return rows
	}
	return append(rows, []any{award, score.UserID.String(), score.Value})
}

func appendRatio(rows [][]any, award string, ratio *gamedomain.UserRatio) [][]any {
	if ratio == nil {
		return rows
	}
	return append(rows, []any{award, ratio.UserID.String(), ratio.Value})
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// renderPodiumChart draws the podium as a bar chart.
func renderPodiumChart(podium []gamedomain.UserScore, palette ChartPalette) ([]byte, error) {
	if len(podium) == 0 {
		return renderNoDataPlaceholder(palette)
	}

	top := 0.0
	bars := make([]chart.Value, len(podium))
	for i, entry := range podium {
		bars[i] = chart.Value{
			Label: fmt.Sprintf("#%d %s", i+1, entry.UserID.String()[:8]),
			Value: float64(entry.Value),
			Style: chart.Style{
				FillColor:   palette.Bar,
				StrokeColor: palette.Bar,
			},
		}
		top = max(top, float64(entry.Value))
	}

	graph := chart.BarChart{
		Title:      "Podium",
		TitleStyle: chart.Style{FontColor: palette.Text},
		Width:      640,
		Height:     400,
		BarWidth:   120,
		Background: chart.Style{FillColor: palette.Background},
		Canvas:     chart.Style{FillColor: palette.Background},
		XAxis:      chart.Style{FontColor: palette.Text},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: palette.Text},
			// A fixed floor keeps single-bar and equal-bar podiums renderable.
			Range: &chart.ContinuousRange{Min: 0, Max: top},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const msg = "Nobody scored this game"

	graph := chart.BarChart{
		Width:      400,
		Height:     200,
		Background: chart.Style{FillColor: palette.Background},
		Canvas:     chart.Style{FillColor: palette.Background},
		YAxis: chart.YAxis{
			Style: chart.Hidden(),
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		XAxis: chart.Hidden(),
		Bars:  []chart.Value{{Value: 0, Style: chart.Style{FillColor: palette.Background, StrokeColor: palette.Background}}},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
				defaults.WriteTextOptionsToRenderer(r)
				r.SetFontColor(palette.Text)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := cb.Left + (cb.Width()-tb.Width())/2
				y := cb.Top + (cb.Height()+tb.Height())/2
				r.Text(msg, x, y)
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
