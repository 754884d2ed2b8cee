package exporter

import (
	"fmt"
	"strconv"

	"sabercli/pkg/contracts/domain"
)

// Table is a headed rectangular block of cells, the common shape for both
// CSV files and workbook sheets.
type Table struct {
	Headers []string
	Records [][]string
}

// AggregateTable renders aggregate rows. The leading columns are the group
// key fields of the first row; all rows of one aggregation level share the
// same key shape.
func AggregateTable(rows []domain.AggregateRow) Table {
	var keyFields []string
	if len(rows) > 0 {
		for _, part := range rows[0].Key {
			keyFields = append(keyFields, part.Field)
		}
	}

	headers := append(append([]string{}, keyFields...), "subject", "count", "mean", "std_dev")
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := make([]string, 0, len(headers))
		for _, field := range keyFields {
			record = append(record, row.Key.Value(field))
		}
		record = append(record,
			row.Subject,
			strconv.Itoa(row.Count),
			formatScore(row.Mean),
			formatScore(row.StdDev),
		)
		records = append(records, record)
	}
	return Table{Headers: headers, Records: records}
}

// NormalizedTable renders standardized measures.
func NormalizedTable(measures []domain.NormalizedMeasure) Table {
	var keyFields []string
	if len(measures) > 0 {
		for _, part := range measures[0].Key {
			keyFields = append(keyFields, part.Field)
		}
	}

	headers := append(append([]string{}, keyFields...), "subject", "z_score")
	records := make([][]string, 0, len(measures))
	for _, m := range measures {
		record := make([]string, 0, len(headers))
		for _, field := range keyFields {
			record = append(record, m.Key.Value(field))
		}
		record = append(record, m.Subject, formatMeasure(m.Value))
		records = append(records, record)
	}
	return Table{Headers: headers, Records: records}
}

// ResidualTable renders a value-added run.
func ResidualTable(set *domain.ResidualSet) Table {
	headers := []string{"entity_id", "label", "actual", "predicted", "residual", "count"}
	records := make([][]string, 0, len(set.Results))
	for _, r := range set.Results {
		records = append(records, []string{
			r.EntityID,
			r.Label,
			formatScore(r.Actual),
			formatScore(r.Predicted),
			formatMeasure(r.Residual),
			strconv.Itoa(r.Count),
		})
	}
	return Table{Headers: headers, Records: records}
}

// KPITable renders the six-indicator set.
func KPITable(results []domain.KPIResult) Table {
	headers := []string{"key", "name", "value", "target", "comparison", "status", "unit", "reason"}
	records := make([][]string, 0, len(results))
	for _, r := range results {
		value := ""
		if r.Available {
			value = formatMeasure(r.Value)
		}
		records = append(records, []string{
			r.Key,
			r.Name,
			value,
			formatMeasure(r.Target),
			string(r.Comparison),
			string(r.Status),
			r.Unit,
			r.Reason,
		})
	}
	return Table{Headers: headers, Records: records}
}

// RankingTable renders a top/bottom-N list.
func RankingTable(entities []domain.RankedEntity) Table {
	headers := []string{"rank", "entity_id", "label", "value"}
	records := make([][]string, 0, len(entities))
	for _, e := range entities {
		records = append(records, []string{
			strconv.Itoa(e.Rank),
			e.EntityID,
			e.Label,
			formatMeasure(e.Value),
		})
	}
	return Table{Headers: headers, Records: records}
}

// formatScore formats score-scale values with two decimal places so 13.4
// renders as 13.40 across all reports.
func formatScore(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatMeasure formats standardized and ratio-scale values, which need
// more precision than raw scores.
func formatMeasure(f float64) string {
	return fmt.Sprintf("%.4f", f)
}
