package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/controlrest/cmd/utils/internal/ledgerclient"
)

const defaultLedgerURL = "http://localhost:8090"

// demoStep is one table's scripted service. The steps after sending run in
// order: deliver, bill, pay.
type demoStep struct {
	tableID string
	items   []ledgerclient.CartItem
	deliver bool
	bill    bool
	pay     bool
}

var demoScript = []demoStep{
	{
		tableID: "T1",
		items:   []ledgerclient.CartItem{{PlateID: "p1", Qty: 2}, {PlateID: "p2", Qty: 1, Notes: "sin cebolla"}},
	},
	{
		tableID: "T2",
		items:   []ledgerclient.CartItem{{PlateID: "p3", Qty: 2}},
		deliver: true,
	},
	{
		tableID: "T4",
		items:   []ledgerclient.CartItem{{PlateID: "p2", Qty: 1}},
		deliver: true,
		bill:    true,
	},
	{
		tableID: "T5",
		items:   []ledgerclient.CartItem{{PlateID: "p1", Qty: 1}, {PlateID: "p3", Qty: 1}},
		deliver: true,
		bill:    true,
		pay:     true,
	},
}

// SeedDemo drives the ledger API through a realistic service so the floor,
// kitchen tickets and finance summary have data. Tables that are not free are
// skipped.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	client := ledgerclient.New(config.GetStringOrDef("ledger.url", defaultLedgerURL))

	tables, err := client.Tables(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	free := map[string]bool{}
	for _, t := range tables {
		free[t.ID] = t.Status == "available"
	}

	for _, step := range demoScript {
		if !free[step.tableID] {
			logger.Info("Skipping table, not available", "table_id", step.tableID)
			continue
		}
		if err := runDemoStep(ctx, client, step); err != nil {
			return fmt.Errorf("table %s: %w", step.tableID, err)
		}
		logger.Info("Demo table seeded", "table_id", step.tableID)
	}
	return nil
}

func runDemoStep(ctx context.Context, client *ledgerclient.Client, step demoStep) error {
	d, err := client.SendToKitchen(ctx, step.tableID, step.items)
	if err != nil {
		return fmt.Errorf("send to kitchen: %w", err)
	}
	if step.deliver {
		if err := client.Deliver(ctx, d.Order.ID); err != nil {
			return fmt.Errorf("deliver: %w", err)
		}
	}
	if step.bill {
		if err := client.RequestBill(ctx, step.tableID); err != nil {
			return fmt.Errorf("request bill: %w", err)
		}
	}
	if step.pay {
		if err := client.Pay(ctx, d.Order.ID); err != nil {
			return fmt.Errorf("pay: %w", err)
		}
	}
	return nil
}
