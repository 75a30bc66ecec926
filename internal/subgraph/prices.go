package subgraph

import (
	"context"
	"fmt"
	"strconv"

	"aave-reserves-lab/internal/domain"
)

// reserveNames maps the Messari market names onto the reserve names the
// protocol subgraphs report, so price rows join the panel on the same key.
var reserveNames = map[string]string{
	"Aave Ethereum USDC":   "USD Coin",
	"Aave Ethereum WETH":   "Wrapped Ether",
	"Aave Ethereum USDT":   "Tether USD",
	"Aave Ethereum WBTC":   "Wrapped BTC",
	"Aave Ethereum DAI":    "Dai Stablecoin",
	"Aave Ethereum LINK":   "ChainLink Token",
	"Aave Ethereum rETH":   "Rocket Pool ETH",
	"Aave Ethereum GHO":    "Gho Token",
	"Aave Ethereum AAVE":   "Aave Token",
	"Aave Ethereum MKR":    "Maker",
	"Aave Ethereum ENS":    "Ethereum Name Service",
	"Aave Ethereum wstETH": "Wrapped liquid staked Ether 2.0",
	"Aave Ethereum CRV":    "Curve DAO Token",
	"Aave Ethereum LDO":    "Lido DAO Token",
	"Aave Ethereum RPL":    "Rocket Pool Protocol",
	"Aave Ethereum LUSD":   "LUSD Stablecoin",
	"Aave Ethereum cbETH":  "Coinbase Wrapped Staked ETH",
	"Aave Ethereum SNX":    "Synthetix Network Token",
	"Aave Ethereum sDAI":   "Savings Dai",
	"Aave Ethereum UNI":    "Uniswap",
	"Aave Ethereum FRAX":   "Frax",
	"Aave Ethereum crvUSD": "Curve.Fi USD Stablecoin",
	"Aave Ethereum FXS":    "Frax Share",
	"Aave Ethereum BAL":    "Balancer",
	"Aave Ethereum 1INCH":  "1INCH Token",
	"Aave Ethereum STG":    "StargateToken",
	"Aave Ethereum KNC":    "Kyber Network Crystal v2",
}

// priceSnapshotItem is the wire shape of one marketHourlySnapshots row.
// BigInt and BigDecimal fields arrive as strings, hours as a plain number.
type priceSnapshotItem struct {
	ID          string `json:"id"`
	Hours       int64  `json:"hours"`
	Timestamp   string `json:"timestamp"`
	BlockNumber string `json:"blockNumber"`
	Market      struct {
		Name string `json:"name"`
	} `json:"market"`
	Protocol struct {
		Protocol string `json:"protocol"`
		Name     string `json:"name"`
	} `json:"protocol"`
	InputTokenPriceUSD  string `json:"inputTokenPriceUSD"`
	OutputTokenPriceUSD string `json:"outputTokenPriceUSD"`
}

// FetchHourlyPrices pages through the market hourly snapshots of the window
// (timestampMin, timestampMax). Markets without a known reserve name keep an
// empty Asset so callers can decide to drop or keep them.
func (c *Client) FetchHourlyPrices(ctx context.Context, timestampMin, timestampMax int64) ([]*domain.HourlyPrice, error) {
	var result []*domain.HourlyPrice

	err := c.fetchPages(ctx, "marketHourlySnapshots", func(offset int) (int, error) {
		query := fmt.Sprintf(`{
			marketHourlySnapshots(
				first: %d,
				skip: %d,
				orderBy: timestamp,
				orderDirection: desc,
				where: { timestamp_gt: %d, timestamp_lt: %d }
			) {
				id
				hours
				timestamp
				blockNumber
				market { name }
				protocol { protocol name }
				inputTokenPriceUSD
				outputTokenPriceUSD
			}
		}`, c.pageSize, offset, timestampMin, timestampMax)

		var page struct {
			Items []priceSnapshotItem `json:"marketHourlySnapshots"`
		}
		if err := c.runQuery(ctx, query, &page); err != nil {
			return 0, err
		}

		for _, item := range page.Items {
			price, err := decodePriceItem(&item)
			if err != nil {
				return 0, err
			}
			result = append(result, price)
		}
		return len(page.Items), nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch hourly prices: %w", err)
	}
	return result, nil
}

// decodePriceItem converts a wire row into the domain shape, remapping the
// market name to the canonical reserve name.
func decodePriceItem(item *priceSnapshotItem) (*domain.HourlyPrice, error) {
	timestamp, err := strconv.ParseInt(item.Timestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp=%q: %w", item.Timestamp, err)
	}
	block, err := strconv.ParseInt(item.BlockNumber, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse blockNumber=%q: %w", item.BlockNumber, err)
	}
	inputPrice, err := strconv.ParseFloat(item.InputTokenPriceUSD, 64)
	if err != nil {
		return nil, fmt.Errorf("parse inputTokenPriceUSD=%q: %w", item.InputTokenPriceUSD, err)
	}
	outputPrice, err := strconv.ParseFloat(item.OutputTokenPriceUSD, 64)
	if err != nil {
		return nil, fmt.Errorf("parse outputTokenPriceUSD=%q: %w", item.OutputTokenPriceUSD, err)
	}

	return &domain.HourlyPrice{
		ID:                  item.ID,
		Asset:               reserveNames[item.Market.Name],
		Protocol:            item.Protocol.Protocol,
		ProtocolName:        item.Protocol.Name,
		HourIndex:           item.Hours,
		SnapshotTimestamp:   timestamp,
		BlockNumber:         block,
		InputTokenPriceUSD:  inputPrice,
		OutputTokenPriceUSD: outputPrice,
	}, nil
}
