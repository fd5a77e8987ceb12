package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/peerlend/api/internal/apperr"
	"github.com/peerlend/api/internal/metrics"
	"github.com/peerlend/api/internal/models"
	"github.com/sony/gobreaker"
)

const maxMessageLen = 2000

// RelayMessage is the payload handed to the external pub/sub
// collaborator. The relay has no access to booking state beyond the
// correlation id.
type RelayMessage struct {
	BookingID uuid.UUID `json:"booking_id"`
	FromID    uuid.UUID `json:"from_id"`
	ToID      uuid.UUID `json:"to_id"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sent_at"`
}

// RelayService publishes booking-scoped messages between the two booking
// parties via the messaging collaborator's HTTP endpoint. Calls go
// through a circuit breaker so a dead relay fails fast instead of tying
// up request handlers.
type RelayService struct {
	bookingsRepo models.BookingsRepo
	client       *resty.Client
	breaker      *gobreaker.CircuitBreaker
	relayURL     string
	logger       *slog.Logger
}

func NewRelayService(bookingsRepo models.BookingsRepo, relayURL string, logger *slog.Logger) *RelayService {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "messaging-relay",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("relay circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &RelayService{
		bookingsRepo: bookingsRepo,
		client:       client,
		breaker:      breaker,
		relayURL:     relayURL,
		logger:       logger,
	}
}

// SendMessage delivers a message from one booking party to the other.
func (rl *RelayService) SendMessage(ctx context.Context, bookingID, senderID uuid.UUID, content string) (*RelayMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("message content is required")
	}
	if len(content) > maxMessageLen {
		return nil, apperr.Validation(fmt.Sprintf("message must be at most %d characters", maxMessageLen))
	}

	booking, err := rl.bookingsRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking not found")
	}
	if !booking.IsParty(senderID) {
		return nil, apperr.Forbidden("you are not a party to this booking")
	}

	recipient := booking.LenderID
	if senderID == booking.LenderID {
		recipient = booking.BorrowerID
	}
	msg := &RelayMessage{
		BookingID: bookingID,
		FromID:    senderID,
		ToID:      recipient,
		Content:   content,
		SentAt:    time.Now().UTC(),
	}

	_, err = rl.breaker.Execute(func() (interface{}, error) {
		resp, err := rl.client.R().
			SetContext(ctx).
			SetBody(msg).
			Post(rl.relayURL + "/publish")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("relay returned status %d", resp.StatusCode())
		}
		return nil, nil
	})
	if err != nil {
		metrics.RelayPublishFailures.Inc()
		rl.logger.Error("relay publish failed", "booking_id", bookingID, "error", err)
		return nil, apperr.Internal(fmt.Errorf("relay publish: %w", err))
	}

	return msg, nil
}
