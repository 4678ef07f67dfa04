package kitchen

import (
	"sync"

	"github.com/appetiteclub/apt"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/appetiteclub/controlrest/pkg/event"
	"github.com/appetiteclub/controlrest/pkg/kitchenstream"
)

const subscriberBuffer = 100

// TicketStreamServer fans kitchen tickets out to gRPC watchers. Slow watchers
// lose tickets instead of blocking the ledger.
type TicketStreamServer struct {
	logger apt.Logger

	mu          sync.RWMutex
	subscribers map[string]watcher
}

type watcher struct {
	tableID string
	ch      chan *structpb.Struct
}

func NewTicketStreamServer(logger apt.Logger) *TicketStreamServer {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &TicketStreamServer{
		logger:      logger,
		subscribers: make(map[string]watcher),
	}
}

// RegisterGRPCService registers the stream with apt's gRPC server.
func (s *TicketStreamServer) RegisterGRPCService(server *grpc.Server) {
	server.RegisterService(&kitchenstream.ServiceDesc, s)
}

func (s *TicketStreamServer) Watch(req *structpb.Struct, stream grpc.ServerStream) error {
	ctx := stream.Context()
	id := apt.GenerateNewID().String()
	w := watcher{
		tableID: kitchenstream.TableFilter(req),
		ch:      make(chan *structpb.Struct, subscriberBuffer),
	}

	s.mu.Lock()
	s.subscribers[id] = w
	s.mu.Unlock()
	s.logger.Info("kitchen ticket watcher connected", "subscriber_id", id, "table_filter", w.tableID)

	defer func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
		s.logger.Info("kitchen ticket watcher disconnected", "subscriber_id", id)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-w.ch:
			if err := stream.SendMsg(msg); err != nil {
				s.logger.Error("cannot send kitchen ticket", "subscriber_id", id, "error", err)
				return err
			}
		}
	}
}

// Broadcast sends a ticket to every watcher whose filter matches.
func (s *TicketStreamServer) Broadcast(evt event.KitchenTicketEvent) {
	msg, err := kitchenstream.Encode(evt)
	if err != nil {
		s.logger.Error("cannot encode kitchen ticket", "order_id", evt.OrderID, "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, w := range s.subscribers {
		if w.tableID != "" && w.tableID != evt.TableID {
			continue
		}
		select {
		case w.ch <- msg:
		default:
			s.logger.Info("watcher channel full, dropping ticket", "subscriber_id", id, "order_id", evt.OrderID)
		}
	}
}

// Watchers reports how many streams are connected.
func (s *TicketStreamServer) Watchers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
