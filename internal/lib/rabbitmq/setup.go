package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// QueueConfig очередь и ключ маршрутизации, по которому она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Topology обменник и привязанные к нему очереди.
type Topology struct {
	Exchange string
	Queues   []QueueConfig
}

// ReminderTopology топология напоминаний о продлении подписок.
func ReminderTopology(exchange, queue, routingKey string) Topology {
	return Topology{
		Exchange: exchange,
		Queues:   []QueueConfig{{QueueName: queue, RoutingKey: routingKey}},
	}
}

// Validate проверяет, что у топологии заданы обменник и уникальные очереди.
func (t Topology) Validate() error {
	if t.Exchange == "" {
		return fmt.Errorf("rabbitmq: exchange name is empty")
	}
	seen := make(map[string]bool, len(t.Queues))
	for _, q := range t.Queues {
		if q.QueueName == "" || q.RoutingKey == "" {
			return fmt.Errorf("rabbitmq: queue and routing key must be set")
		}
		if seen[q.QueueName] {
			return fmt.Errorf("rabbitmq: duplicate queue %s", q.QueueName)
		}
		seen[q.QueueName] = true
	}
	return nil
}

// SetupChannel открывает канал и объявляет direct-обменник с очередями.
func SetupChannel(conn *amqp.Connection, topology Topology) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	if err := topology.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		topology.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range topology.Queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			topology.Exchange,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
