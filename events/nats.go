package events

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/batchcorp/mirror/options"
)

const natsFlushTimeout = 2 * time.Second

type NATS struct {
	subject string
	client  *nats.Conn
}

func NewNATS(url, subject string) (*NATS, error) {
	if subject == "" {
		return nil, errors.New("subject cannot be empty")
	}

	client, err := nats.Connect(url, nats.Name("mirror"))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to connect to '%s'", url)
	}

	return &NATS{
		subject: subject,
		client:  client,
	}, nil
}

func (n *NATS) Name() string {
	return options.EventsBackendNATS
}

func (n *NATS) Publish(_ context.Context, _ string, data []byte) error {
	if err := n.client.Publish(n.subject, data); err != nil {
		return errors.Wrapf(err, "unable to publish message to subject '%s'", n.subject)
	}

	return nil
}

func (n *NATS) Close(_ context.Context) error {
	if err := n.client.FlushTimeout(natsFlushTimeout); err != nil {
		n.client.Close()
		return errors.Wrap(err, "unable to flush pending messages")
	}

	n.client.Close()

	return nil
}
