package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/appetiteclub/controlrest/pkg/enums/stocktier"
	"github.com/appetiteclub/controlrest/pkg/event"
)

type StockSubscriber struct {
	subscriber events.Subscriber
	board      *Board
	logger     apt.Logger
}

func NewStockSubscriber(sub events.Subscriber, board *Board, logger apt.Logger) *StockSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &StockSubscriber{
		subscriber: sub,
		board:      board,
		logger:     logger,
	}
}

func (s *StockSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting stock subscriber", "topic", event.InventoryStockTopic)
	if s.board != nil {
		s.board.Warm()
	}
	if s.subscriber == nil {
		return fmt.Errorf("stock subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.InventoryStockTopic, s.handleEvent)
}

func (s *StockSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.IngredientStockEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Info("invalid stock event", "error", err)
		return nil
	}
	if evt.IngredientID == "" {
		s.logger.Info("stock event without ingredient id", "event_type", evt.EventType)
		return nil
	}

	tier := stocktier.ByName(evt.Tier)
	if tier == nil {
		s.logger.Info("unknown stock tier in event", "ingredient_id", evt.IngredientID, "tier", evt.Tier)
		return nil
	}

	if s.board == nil {
		return nil
	}
	// Events may arrive out of order, so the ledger's current stock wins
	// whenever the board can see it.
	if current, ok := s.board.Refresh(evt.IngredientID); ok {
		tier = stocktier.ByName(current.Tier)
	} else if !s.board.Set(Alert{
		IngredientID: evt.IngredientID,
		Name:         evt.Name,
		Icon:         evt.Icon,
		CurrentQty:   evt.CurrentQty,
		MinQty:       evt.MinQty,
		CriticalQty:  evt.CriticalQty,
		Tier:         tier.Code(),
		TierLabel:    tier.Label(),
		UpdatedAt:    evt.OccurredAt,
	}) {
		s.logger.Debug("stale stock event dropped", "ingredient_id", evt.IngredientID)
		return nil
	}
	if tier.NeedsRestock() {
		s.logger.Info("ingredient needs restock", "ingredient_id", evt.IngredientID, "tier", tier.Code())
	} else {
		s.logger.Debug("ingredient stock normal", "ingredient_id", evt.IngredientID)
	}
	return nil
}
