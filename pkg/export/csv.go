package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/arnavshah/rota-scheduler/pkg/presenter"
)

// CSV flattens the tables to week,day,location,workers rows
func CSV(w io.Writer, tables []presenter.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"week", "day", "location", "workers"}); err != nil {
		return err
	}

	for i, t := range tables {
		week := strconv.Itoa(i + 1)
		for _, row := range t.Rows {
			for c := 1; c < len(row) && c < len(t.Header); c++ {
				if err := writer.Write([]string{week, row[0], t.Header[c], row[c]}); err != nil {
					return err
				}
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
