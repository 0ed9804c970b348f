package publisher

import (
	"context"
	"log"
	"time"

	r "github.com/bcasadei/rental-website/internal/orders/repository"
	"github.com/segmentio/kafka-go"
)

// kafkaWriter is the slice of kafka.Writer the poller uses; tests swap in
// a fake.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OutboxPoller struct {
	timeout      time.Duration
	eventTick    time.Duration
	recoveryTick time.Duration
	staleAfter   time.Duration
	repo         r.OrderRepository
	writer       kafkaWriter
}

func NewOutboxPoller(repo r.OrderRepository, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-confirmed",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		timeout:      time.Second * 5,
		eventTick:    time.Second,
		recoveryTick: time.Minute,
		// Hosted checkout sessions stay payable for 24h; sweeping earlier
		// would mark flows abandoned while the buyer can still pay. An
		// abandoned flow still revives if payment is verified later.
		staleAfter: 24 * time.Hour,
		repo:       repo,
		writer:     w,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.abandonStaleFlows(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, 100)
	if err != nil {
		log.Printf("failed to fetch events %v", err)
		return
	}

	for _, event := range events {
		errPublish := p.publishToKafka(ctx, event)
		if errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, errPublish)
			continue
		}

		errMark := p.repo.MarkEventAsProcessed(ctx, event.ID)
		if errMark != nil {
			log.Printf("failed to mark event as processed id = %v with error %v", event.ID, errMark)
			continue
		}
	}
}

// abandonStaleFlows closes out checkout flows whose buyer went to the
// payment page and never came back. The cart is left alone.
func (p *OutboxPoller) abandonStaleFlows(ctx context.Context) {
	cutoff := time.Now().Add(-p.staleAfter)

	opCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	abandoned, err := p.repo.AbandonStaleFlows(opCtx, cutoff)
	if err != nil {
		log.Printf("failed to abandon stale flows: %v", err)
		return
	}
	if abandoned > 0 {
		log.Printf("marked %d stale checkout flows abandoned", abandoned)
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event r.OutboxEvent) error {
	msg := kafka.Message{
		Value: event.Payload, // Already JSON from database
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.writer.WriteMessages(writeCtx, msg)
}
