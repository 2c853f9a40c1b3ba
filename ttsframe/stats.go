package ttsframe

// ColumnStats holds basic statistics over the non-null numeric cells of one column.
type ColumnStats struct {
	ColumnName string
	Count      int64
	Min        float64
	Max        float64
	Mean       float64
}

// NumericColumnStats computes stats for every column holding at least one
// numeric cell, in frame column order. Null and non-numeric cells are skipped.
func NumericColumnStats(frame *Frame) []ColumnStats {
	var allStats []ColumnStats

	for _, name := range frame.columnNames {
		stats := ColumnStats{ColumnName: name}
		var sum float64

		for _, cell := range frame.columns[name] {
			var numericCell float64
			switch val := cell.(type) {
			case int64:
				numericCell = float64(val)
			case float64:
				numericCell = val
			default:
				continue
			}

			if stats.Count == 0 || numericCell < stats.Min {
				stats.Min = numericCell
			}
			if stats.Count == 0 || numericCell > stats.Max {
				stats.Max = numericCell
			}
			sum += numericCell
			stats.Count++
		}

		if stats.Count == 0 {
			continue
		}

		stats.Mean = sum / float64(stats.Count)
		allStats = append(allStats, stats)
	}

	return allStats
}
