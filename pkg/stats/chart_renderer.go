package stats

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
)

var hundred = decimal.NewFromInt(100)

type ChartRenderer struct {
	Width  int
	Height int
}

func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{Width: 800, Height: 600}
}

// RenderExpensesByCategory draws a PNG pie chart of expenses per category. It returns nil when there are no
// expenses to draw.
func (r *ChartRenderer) RenderExpensesByCategory(summary Summary, currencySymbol string) ([]byte, error) {
	values := make([]chart.Value, 0, len(summary.ByCategory))
	for _, category := range summary.ByCategory {
		if !category.Expense.IsPositive() {
			continue
		}
		share := category.Expense.Div(summary.Expense).Mul(hundred)
		amount, _ := category.Expense.Float64()
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s%s (%s%%)", category.Category, currencySymbol, category.Expense.StringFixed(0), share.StringFixed(1)),
			Value: amount,
		})
	}
	if len(values) == 0 {
		return nil, nil
	}

	pie := chart.PieChart{
		Width:  r.Width,
		Height: r.Height,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   40,
				Right:  40,
				Bottom: 40,
			},
			FillColor: chart.ColorWhite,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render expenses chart: %w", err)
	}
	return buffer.Bytes(), nil
}
