package mqttbus

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher is the outbound side of the bus.
type IPublisher interface {
	PublishMessage(message interface{}) error
	Close()
}

// Publisher publishes to one fixed topic through the shared client.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// NewPublisher creates a Publisher bound to topic.
func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// PublishMessage publishes a message to the configured topic. Processed
// readings and verdicts are fire-and-forget, so QoS stays per-topic.
func (p *Publisher) PublishMessage(message interface{}) error {
	messageStr, ok := message.(string)
	if !ok {
		return fmt.Errorf("invalid message format, expected string")
	}

	token := p.client.Publish(p.topic, qosFor(p.topic), false, messageStr)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message: %v", token.Error())
	}
	return nil
}

// Close gracefully closes the MQTT connection for the publisher.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
