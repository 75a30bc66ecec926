package subgraph

import (
	"context"
	"fmt"

	"aave-reserves-lab/internal/domain"
)

// EventKind names one upstream interaction event collection.
type EventKind string

const (
	KindDeposit          EventKind = "deposit"
	KindBorrow           EventKind = "borrow"
	KindRepay            EventKind = "repay"
	KindRedeemUnderlying EventKind = "redeemUnderlying"
)

// InteractionKinds lists every interaction event collection in fetch order.
var InteractionKinds = []EventKind{KindDeposit, KindBorrow, KindRepay, KindRedeemUnderlying}

// kindQueries maps an event kind to its GraphQL collection and the action
// recorded on the decoded event.
var kindQueries = map[EventKind]struct {
	collection string
	action     domain.Action
}{
	KindDeposit:          {"supplies", domain.ActionSupply},
	KindBorrow:           {"borrows", domain.ActionBorrow},
	KindRepay:            {"repays", domain.ActionRepay},
	KindRedeemUnderlying: {"redeemUnderlyings", domain.ActionRedeemUnderlying},
}

// interactionItem is the wire shape shared by the interaction collections.
type interactionItem struct {
	TxHash string `json:"txHash"`
	Pool   *struct {
		Pool string `json:"pool"`
	} `json:"pool"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Reserve struct {
		Name     string `json:"name"`
		Decimals int    `json:"decimals"`
	} `json:"reserve"`
	Amount    string `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

// FetchInteractions pages through one interaction event collection for the
// window (timestampMin, timestampMax). Requesting an unknown kind is a
// configuration error and fails immediately.
func (c *Client) FetchInteractions(ctx context.Context, kind EventKind, timestampMin, timestampMax int64) ([]*domain.InteractionEvent, error) {
	spec, ok := kindQueries[kind]
	if !ok {
		return nil, fmt.Errorf("unknown event kind requested: %q", kind)
	}

	var result []*domain.InteractionEvent
	err := c.fetchPages(ctx, spec.collection, func(offset int) (int, error) {
		query := fmt.Sprintf(`{
			%s(
				first: %d,
				skip: %d,
				orderBy: timestamp,
				orderDirection: desc,
				where: { timestamp_gt: %d, timestamp_lt: %d }
			) {
				txHash
				pool { pool }
				user { id }
				reserve { name decimals }
				amount
				timestamp
			}
		}`, spec.collection, c.pageSize, offset, timestampMin, timestampMax)

		page := map[string][]interactionItem{}
		if err := c.runQuery(ctx, query, &page); err != nil {
			return 0, err
		}
		items := page[spec.collection]

		for _, item := range items {
			amount, err := parseAmount("amount", item.Amount, item.Reserve.Decimals)
			if err != nil {
				return 0, err
			}
			event := &domain.InteractionEvent{
				TxHash:    item.TxHash,
				User:      item.User.ID,
				Asset:     item.Reserve.Name,
				Timestamp: item.Timestamp,
				Action:    spec.action,
				Amount:    amount,
			}
			if item.Pool != nil {
				event.Pool = item.Pool.Pool
			}
			result = append(result, event)
		}
		return len(items), nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s events: %w", kind, err)
	}
	return result, nil
}

// liquidationItem is the wire shape of one liquidationCalls row.
type liquidationItem struct {
	TxHash string `json:"txHash"`
	Pool   *struct {
		Pool string `json:"pool"`
	} `json:"pool"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	CollateralReserve struct {
		Name     string `json:"name"`
		Decimals int    `json:"decimals"`
	} `json:"collateralReserve"`
	PrincipalReserve struct {
		Name     string `json:"name"`
		Decimals int    `json:"decimals"`
	} `json:"principalReserve"`
	CollateralAmount string `json:"collateralAmount"`
	PrincipalAmount  string `json:"principalAmount"`
	Liquidator       string `json:"liquidator"`
	Timestamp        int64  `json:"timestamp"`
}

// FetchLiquidations pages through the liquidation calls of the window.
func (c *Client) FetchLiquidations(ctx context.Context, timestampMin, timestampMax int64) ([]*domain.LiquidationEvent, error) {
	var result []*domain.LiquidationEvent
	err := c.fetchPages(ctx, "liquidationCalls", func(offset int) (int, error) {
		query := fmt.Sprintf(`{
			liquidationCalls(
				first: %d,
				skip: %d,
				orderBy: timestamp,
				orderDirection: desc,
				where: { timestamp_gt: %d, timestamp_lt: %d }
			) {
				txHash
				pool { pool }
				user { id }
				collateralReserve { name decimals }
				principalReserve { name decimals }
				collateralAmount
				principalAmount
				liquidator
				timestamp
			}
		}`, c.pageSize, offset, timestampMin, timestampMax)

		var page struct {
			Items []liquidationItem `json:"liquidationCalls"`
		}
		if err := c.runQuery(ctx, query, &page); err != nil {
			return 0, err
		}

		for _, item := range page.Items {
			collateral, err := parseAmount("collateralAmount", item.CollateralAmount, item.CollateralReserve.Decimals)
			if err != nil {
				return 0, err
			}
			principal, err := parseAmount("principalAmount", item.PrincipalAmount, item.PrincipalReserve.Decimals)
			if err != nil {
				return 0, err
			}
			event := &domain.LiquidationEvent{
				TxHash:           item.TxHash,
				Liquidator:       item.Liquidator,
				User:             item.User.ID,
				CollateralAsset:  item.CollateralReserve.Name,
				PrincipalAsset:   item.PrincipalReserve.Name,
				Timestamp:        item.Timestamp,
				CollateralAmount: collateral,
				PrincipalAmount:  principal,
			}
			if item.Pool != nil {
				event.Pool = item.Pool.Pool
			}
			result = append(result, event)
		}
		return len(page.Items), nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch liquidation events: %w", err)
	}
	return result, nil
}
