package portfolio

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/roshan4665/fundfolio/internal/models"
)

// RenderForecastChart renders a PNG line chart from forecast points.
// Two series: Projected Value (blue solid) and Total Invested (gray dashed).
// Returns raw PNG bytes.
func RenderForecastChart(points []models.ForecastPoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	years := make([]float64, len(points))
	projectedY := make([]float64, len(points))
	investedY := make([]float64, len(points))

	for i, p := range points {
		years[i] = float64(p.Year)
		projectedY[i] = p.ProjectedValue
		investedY[i] = p.TotalInvested
	}

	projectedSeries := chart.ContinuousSeries{
		Name: "Projected Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: years,
		YValues: projectedY,
	}

	investedSeries := chart.ContinuousSeries{
		Name: "Total Invested",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: years,
		YValues: investedY,
	}

	graph := chart.Chart{
		Title:  "Portfolio Growth Forecast",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("Yr %.0f", f)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0fk", f/1000)
				}
				return ""
			},
		},
		Series: []chart.Series{
			projectedSeries,
			investedSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
