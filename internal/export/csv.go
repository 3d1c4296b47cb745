// Package export renders stored order records to interchange formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/nhle/order-tracker/internal/model"
)

// csvHeader is the column layout for exported order records.
var csvHeader = []string{
	"order_id", "seller", "status", "delivery_date",
	"subject", "source_date", "source_type",
}

// WriteCSV writes the given orders as CSV. Delivery dates are
// formatted as 2006-01-02, with a missing date becoming an empty
// field; source dates keep their full timestamp.
func WriteCSV(w io.Writer, orders []model.Order) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, o := range orders {
		deliveryDate := ""
		if o.DeliveryDate != nil {
			deliveryDate = o.DeliveryDate.Format("2006-01-02")
		}

		sourceDate := ""
		if !o.SourceDate.IsZero() {
			sourceDate = o.SourceDate.Format(time.RFC3339)
		}

		record := []string{
			o.OrderID,
			o.SellerName,
			o.Status,
			deliveryDate,
			o.SourceSubject,
			sourceDate,
			string(o.SourceType),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing order %s: %w", o.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
