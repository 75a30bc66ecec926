package reporting

import (
	"fmt"
	"strings"

	"aave-reserves-lab/internal/domain"
)

// PricesHeader is the column order of the hourly prices CSV.
const PricesHeader = "id,datetime,timestamp_hours,snapshot_timestamp,blockNumber,reserve_name," +
	"protocol,protocol_name,inputTokenPriceUSD,outputTokenPriceUSD"

// RenderPricesCSV renders hourly price rows as a CSV string.
func RenderPricesCSV(rows []*domain.HourlyPrice) string {
	var sb strings.Builder

	sb.WriteString(PricesHeader)
	sb.WriteByte('\n')

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d,%s,%s,%s,%.12f,%.12f\n",
			r.ID,
			r.Hour().Format("2006-01-02 15:04:05"),
			r.HourIndex,
			r.SnapshotTimestamp,
			r.BlockNumber,
			r.Asset,
			r.Protocol,
			r.ProtocolName,
			r.InputTokenPriceUSD,
			r.OutputTokenPriceUSD,
		))
	}

	return sb.String()
}
