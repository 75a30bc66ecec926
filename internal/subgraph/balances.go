package subgraph

import (
	"context"
	"fmt"

	"aave-reserves-lab/internal/domain"
)

// txHashOffset is where the transaction hash starts inside a balance
// history item id (userReserve id + tx hash concatenated by the indexer).
const txHashOffset = 126

// balanceItem is the wire shape shared by the aToken and vToken balance
// history collections; the balance field names differ per collection and
// are normalized during decoding.
type balanceItem struct {
	ID                   string `json:"id"`
	Timestamp            int64  `json:"timestamp"`
	ScaledATokenBalance  string `json:"scaledATokenBalance"`
	CurrentATokenBalance string `json:"currentATokenBalance"`
	ScaledVariableDebt   string `json:"scaledVariableDebt"`
	CurrentVariableDebt  string `json:"currentVariableDebt"`
	Index                string `json:"index"`
	UserReserve          struct {
		Reserve struct {
			Name                     string `json:"name"`
			Decimals                 int    `json:"decimals"`
			UsageAsCollateralEnabled bool   `json:"usageAsCollateralEnabled"`
		} `json:"reserve"`
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Pool struct {
			Pool string `json:"pool"`
		} `json:"pool"`
	} `json:"userReserve"`
}

// balanceCollections maps a token kind to its collection and field names.
var balanceCollections = map[domain.TokenKind]struct {
	collection string
	scaled     string
	current    string
}{
	domain.TokenKindSupply: {"atokenBalanceHistoryItems", "scaledATokenBalance", "currentATokenBalance"},
	domain.TokenKindDebt:   {"vtokenBalanceHistoryItems", "scaledVariableDebt", "currentVariableDebt"},
}

// FetchBalances pages through the balance history of one token kind for the
// window (timestampMin, timestampMax). Requesting an unknown kind fails
// immediately.
func (c *Client) FetchBalances(ctx context.Context, kind domain.TokenKind, timestampMin, timestampMax int64) ([]*domain.BalanceSnapshot, error) {
	spec, ok := balanceCollections[kind]
	if !ok {
		return nil, fmt.Errorf("unknown token kind requested: %q", kind)
	}

	var result []*domain.BalanceSnapshot
	err := c.fetchPages(ctx, spec.collection, func(offset int) (int, error) {
		query := fmt.Sprintf(`{
			%s(
				first: %d
				skip: %d
				orderBy: timestamp
				orderDirection: desc
				where: { timestamp_gt: %d, timestamp_lt: %d }
			) {
				id
				timestamp
				%s
				%s
				index
				userReserve {
					reserve { name decimals usageAsCollateralEnabled }
					user { id }
					pool { pool }
				}
			}
		}`, spec.collection, c.pageSize, offset, timestampMin, timestampMax, spec.scaled, spec.current)

		page := map[string][]balanceItem{}
		if err := c.runQuery(ctx, query, &page); err != nil {
			return 0, err
		}
		items := page[spec.collection]

		for _, item := range items {
			balance, err := decodeBalanceItem(&item, kind)
			if err != nil {
				return 0, err
			}
			result = append(result, balance)
		}
		return len(items), nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s balances: %w", kind, err)
	}
	return result, nil
}

// decodeBalanceItem converts a wire row to domain units and extracts the
// transaction hash from the item id tail.
func decodeBalanceItem(item *balanceItem, kind domain.TokenKind) (*domain.BalanceSnapshot, error) {
	decimals := item.UserReserve.Reserve.Decimals

	scaledSrc, currentSrc := item.ScaledATokenBalance, item.CurrentATokenBalance
	if kind == domain.TokenKindDebt {
		scaledSrc, currentSrc = item.ScaledVariableDebt, item.CurrentVariableDebt
	}

	scaled, err := parseAmount("scaled balance", scaledSrc, decimals)
	if err != nil {
		return nil, err
	}
	current, err := parseAmount("current balance", currentSrc, decimals)
	if err != nil {
		return nil, err
	}
	index, err := parseRay("index", item.Index)
	if err != nil {
		return nil, err
	}

	balance := &domain.BalanceSnapshot{
		ID:                item.ID,
		User:              item.UserReserve.User.ID,
		Asset:             item.UserReserve.Reserve.Name,
		Pool:              item.UserReserve.Pool.Pool,
		Timestamp:         item.Timestamp,
		Kind:              kind,
		Decimals:          decimals,
		ScaledBalance:     scaled,
		CurrentBalance:    current,
		Index:             index,
		CollateralEnabled: item.UserReserve.Reserve.UsageAsCollateralEnabled,
	}
	if len(item.ID) > txHashOffset {
		balance.TxHash = item.ID[txHashOffset:]
	}
	return balance, nil
}
