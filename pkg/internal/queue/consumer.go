package queue

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

type Handler[T any] func(ctx context.Context, msg amqp.Delivery, deps T) error

// Consumer drains one queue bound to the jobs exchange with a fixed pool of
// workers. Failed deliveries are acknowledged anyway; retry policy lives with
// the handlers, not the transport.
type Consumer[T any] struct {
	conn       *amqp.Connection
	queueName  string
	routingKey string
	handler    Handler[T]
	numWorkers int
}

func NewConsumer[T any](conn *amqp.Connection, queueName, routingKey string, numWorkers int, handler Handler[T]) *Consumer[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Consumer[T]{
		conn:       conn,
		queueName:  queueName,
		routingKey: routingKey,
		handler:    handler,
		numWorkers: numWorkers,
	}
}

func (c *Consumer[T]) Consume(ctx context.Context, deps T) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return err
	}

	q, err := ch.QueueDeclare(c.queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}
	if err := ch.QueueBind(q.Name, c.routingKey, ExchangeName, false, nil); err != nil {
		return err
	}
	if err := ch.Qos(c.numWorkers, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	jobs := make(chan amqp.Delivery, c.numWorkers)
	var wg sync.WaitGroup
	for idx := 0; idx < c.numWorkers; idx++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range jobs {
				if err := c.handler(ctx, msg, deps); err != nil {
					log.Error().Err(err).Str("queue", c.queueName).Msg("An error occurred when handling queued job...")
				}
				if err := msg.Ack(false); err != nil {
					log.Error().Err(err).Str("queue", c.queueName).Msg("An error occurred when acknowledging queued job...")
				}
			}
		}()
	}

	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				close(jobs)
				wg.Wait()
				return nil
			}
			jobs <- delivery
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
}
