package outcome

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome/entity"
)

const csvHeader = "id,title,status,amount_aud,created_at,delivered_at,verified_at"

// WriteCSV writes one header line and one line per outcome. Titles are
// always quoted with embedded quotes doubled.
func WriteCSV(w io.Writer, rows []entity.Outcome) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(csvHeader)
	for _, o := range rows {
		bw.WriteByte('\n')
		bw.WriteString(o.ID.String())
		bw.WriteString(`,"`)
		bw.WriteString(strings.ReplaceAll(o.Title, `"`, `""`))
		bw.WriteString(`",`)
		bw.WriteString(string(o.Status))
		bw.WriteByte(',')
		bw.WriteString(strconv.FormatFloat(float64(o.AmountCents)/100, 'f', 2, 64))
		bw.WriteByte(',')
		bw.WriteString(o.CreatedAt.UTC().Format(time.RFC3339))
		bw.WriteByte(',')
		bw.WriteString(formatOptional(o.DeliveredAt))
		bw.WriteByte(',')
		bw.WriteString(formatOptional(o.VerifiedAt))
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
