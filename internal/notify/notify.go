package notify

import (
	"context"

	"github.com/Domenick1991/hotelbooking/internal/kafka"
	"go.uber.org/zap"
)

// Sender tells the front desk about booking changes. It writes to the log;
// a mail or chat backend can replace it behind the same method.
type Sender struct {
	logger *zap.Logger
}

func NewSender(logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("booking notification",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.Int64("booking_id", event.BookingID),
		zap.String("surname", event.Surname),
		zap.Ints("rooms", event.Rooms),
		zap.String("check_in", event.CheckIn),
		zap.String("check_out", event.CheckOut),
		zap.Int64("price", event.Price),
	)
	return nil
}
