package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/controlrest/cmd/utils/internal/ledgerclient"
)

// ClearDemo settles every open order so all tables are free again. Paid
// orders stay in the ledger and keep counting towards sales.
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo data cleanup...")

	client := ledgerclient.New(config.GetStringOrDef("ledger.url", defaultLedgerURL))

	orders, err := client.ActiveOrders(ctx)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	for _, o := range orders {
		if err := client.Pay(ctx, o.ID); err != nil {
			return fmt.Errorf("settle order %s: %w", o.ID, err)
		}
		logger.Info("Settled order", "order_id", o.ID, "table_id", o.TableID, "total", o.Total)
	}

	logger.Info("Open orders settled", "count", len(orders))
	return nil
}
