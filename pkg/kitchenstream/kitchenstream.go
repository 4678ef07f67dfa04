// Package kitchenstream is the gRPC contract for live kitchen tickets. The
// service is declared by hand over structpb messages: a Watch request carries
// an optional "table_id" filter and every streamed message is a ticket in its
// JSON event shape.
package kitchenstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/appetiteclub/controlrest/pkg/event"
)

const (
	ServiceName = "controlrest.kitchen.v1.KitchenTickets"
	WatchMethod = "/" + ServiceName + "/Watch"

	// TableFilterField names the request field that narrows a watch to one
	// table.
	TableFilterField = "table_id"
)

// TicketsServer is implemented by the ledger side of the stream.
type TicketsServer interface {
	Watch(req *structpb.Struct, stream grpc.ServerStream) error
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TicketsServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "kitchenstream",
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(TicketsServer).Watch(req, stream)
}

// TableFilter reads the table filter of a Watch request. Empty means all
// tables.
func TableFilter(req *structpb.Struct) string {
	if req == nil {
		return ""
	}
	if v, ok := req.GetFields()[TableFilterField]; ok {
		return v.GetStringValue()
	}
	return ""
}

// Encode turns a ticket event into its stream message.
func Encode(evt event.KitchenTicketEvent) (*structpb.Struct, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

// Decode is the inverse of Encode.
func Decode(msg *structpb.Struct) (event.KitchenTicketEvent, error) {
	var evt event.KitchenTicketEvent
	data, err := json.Marshal(msg.AsMap())
	if err != nil {
		return evt, err
	}
	if err := json.Unmarshal(data, &evt); err != nil {
		return evt, fmt.Errorf("decode kitchen ticket: %w", err)
	}
	return evt, nil
}

// Watch streams tickets from conn until ctx ends or the server closes the
// stream. An empty tableID watches every table.
func Watch(ctx context.Context, conn grpc.ClientConnInterface, tableID string, fn func(event.KitchenTicketEvent) error) error {
	req, err := structpb.NewStruct(map[string]any{TableFilterField: tableID})
	if err != nil {
		return err
	}
	stream, err := conn.NewStream(ctx, &ServiceDesc.Streams[0], WatchMethod)
	if err != nil {
		return fmt.Errorf("cannot open kitchen stream: %w", err)
	}
	if err := stream.SendMsg(req); err != nil {
		return fmt.Errorf("cannot send watch request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		evt, err := Decode(msg)
		if err != nil {
			return err
		}
		if err := fn(evt); err != nil {
			return err
		}
	}
}
