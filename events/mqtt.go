package events

import (
	"context"
	"fmt"
	"net/url"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/batchcorp/mirror/options"
)

const (
	mqttConnectTimeout = 5 * time.Second
	mqttPublishTimeout = 5 * time.Second

	// milliseconds
	mqttDisconnectQuiesce = 250
)

var ErrInvalidMQTTAddress = errors.New("address must start with tcp:// or ssl://")

type MQTT struct {
	topic  string
	qos    byte
	client pahomqtt.Client
}

func NewMQTT(address, clientID, topic string, qos int) (*MQTT, error) {
	if topic == "" {
		return nil, errors.New("topic cannot be empty")
	}

	if qos < 0 || qos > 2 {
		return nil, errors.New("qos must be 0, 1 or 2")
	}

	uri, err := url.Parse(address)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse address")
	}

	clientOpts, err := createClientOptions(uri, clientID)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create client options")
	}

	client := pahomqtt.NewClient(clientOpts)

	token := client.Connect()

	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("connection timed out after %s", mqttConnectTimeout)
	}

	if err := token.Error(); err != nil {
		return nil, errors.Wrap(err, "error establishing connection with MQTT broker")
	}

	return &MQTT{
		topic:  topic,
		qos:    byte(qos),
		client: client,
	}, nil
}

func createClientOptions(uri *url.URL, clientID string) (*pahomqtt.ClientOptions, error) {
	if uri.Scheme != "ssl" && uri.Scheme != "tcp" {
		return nil, ErrInvalidMQTTAddress
	}

	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(fmt.Sprintf("%s://%s", uri.Scheme, uri.Host))

	if uri.User != nil {
		if username := uri.User.Username(); username != "" {
			opts.SetUsername(username)
			password, _ := uri.User.Password()
			opts.SetPassword(password)
		}
	}

	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)

	return opts, nil
}

func (m *MQTT) Name() string {
	return options.EventsBackendMQTT
}

func (m *MQTT) Publish(_ context.Context, _ string, data []byte) error {
	token := m.client.Publish(m.topic, m.qos, false, data)

	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("timed out attempting to publish message after %s", mqttPublishTimeout)
	}

	if token.Error() != nil {
		return errors.Wrap(token.Error(), "unable to complete publish")
	}

	return nil
}

func (m *MQTT) Close(_ context.Context) error {
	m.client.Disconnect(mqttDisconnectQuiesce)
	return nil
}
