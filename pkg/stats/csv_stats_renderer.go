package stats

import (
	"bytes"
	"encoding/csv"
	"time"

	log "github.com/sirupsen/logrus"
)

type StatsRenderer interface {
	RenderStats(stats StatsSummary) (string, error)
}

type CsvStatsRendererImpl struct {
}

func NewCsvStatsRenderer() *CsvStatsRendererImpl {
	return &CsvStatsRendererImpl{}
}

// RenderStats writes one row per transaction followed by the totals.
func (r *CsvStatsRendererImpl) RenderStats(stats StatsSummary) (string, error) {
	data := make([][]string, 0, len(stats.Transactions)+5)
	data = append(data, []string{"Date", "Type", "Category", "Note", "Amount"})
	for _, t := range stats.Transactions {
		data = append(data, []string{
			t.Date.In(stats.GeneratedAt.Location()).Format(time.DateOnly),
			string(t.Type),
			t.Category,
			t.Note,
			t.Amount.StringFixed(2),
		})
	}
	data = append(data,
		[]string{},
		[]string{"Income", "", "", "", stats.Summary.Income.StringFixed(2)},
		[]string{"Expense", "", "", "", stats.Summary.Expense.StringFixed(2)},
		[]string{"Balance", "", "", "", stats.Summary.Balance.StringFixed(2)},
	)

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}
