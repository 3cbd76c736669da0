package events

import (
	"context"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	"github.com/batchcorp/mirror/options"
)

const rabbitExchangeType = "topic"

type RabbitMQ struct {
	exchange   string
	routingKey string
	conn       *amqp.Connection
	channel    *amqp.Channel
}

func NewRabbitMQ(url, exchange, routingKey string) (*RabbitMQ, error) {
	if exchange == "" {
		return nil, errors.New("exchange cannot be empty")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "unable to dial rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "unable to open channel")
	}

	if err := ch.ExchangeDeclare(exchange, rabbitExchangeType, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "unable to declare exchange '%s'", exchange)
	}

	return &RabbitMQ{
		exchange:   exchange,
		routingKey: routingKey,
		conn:       conn,
		channel:    ch,
	}, nil
}

func (r *RabbitMQ) Name() string {
	return options.EventsBackendRabbitMQ
}

func (r *RabbitMQ) Publish(_ context.Context, _ string, data []byte) error {
	if err := r.channel.Publish(r.exchange, r.routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        data,
	}); err != nil {
		return errors.Wrapf(err, "unable to publish to exchange '%s'", r.exchange)
	}

	return nil
}

func (r *RabbitMQ) Close(_ context.Context) error {
	if err := r.channel.Close(); err != nil {
		r.conn.Close()
		return errors.Wrap(err, "unable to close channel")
	}

	return r.conn.Close()
}
