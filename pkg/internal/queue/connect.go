package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const ExchangeName = "riffhouse.jobs"

const (
	RouteSessionPostProcess = "sessions.postprocess"
	RouteTranscription      = "recordings.transcribe"
)

func NewConnection(ctx context.Context) (*amqp.Connection, error) {
	addr := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		viper.GetString("queue.user"),
		viper.GetString("queue.pass"),
		viper.GetString("queue.host"),
		viper.GetInt("queue.port"),
	)

	operation := func() (*amqp.Connection, error) {
		conn, err := amqp.Dial(addr)
		if err != nil {
			log.Warn().Err(err).Msg("Unable to connect to the message queue, retrying...")
			return nil, err
		}
		return conn, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 10 * time.Second
	conn, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(5))
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("Unable to close the message queue connection...")
		}
	}()

	return conn, nil
}
