package events

import (
	"context"
	"log"

	"github.com/warp/hotel-engine/booking"
)

// LogSink writes one line per event. Used when no broker is configured.
type LogSink struct {
	Logger *log.Logger // nil means the standard logger
}

func (s LogSink) Publish(_ context.Context, e booking.Event) error {
	logf := log.Printf
	if s.Logger != nil {
		logf = s.Logger.Printf
	}
	logf("[Events] %s reservation=%s room=%s status=%s %s..%s total=%s",
		e.Type, e.ReservationID, e.RoomID, e.Status, e.CheckIn, e.CheckOut, e.Total.StringFixed(2))
	return nil
}

// Fanout publishes to every sink and returns the first error.
type Fanout []booking.EventSink

func (f Fanout) Publish(ctx context.Context, e booking.Event) error {
	var first error
	for _, s := range f {
		if err := s.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var (
	_ booking.EventSink = LogSink{}
	_ booking.EventSink = Fanout{}
)
