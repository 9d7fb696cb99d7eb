package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/premium-entitlement/internal/models"
)

// Publisher публикует события активации в очередь уведомлений.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создаёт новый Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// NotifyActivated публикует событие активации премиум-подписки.
func (p *Publisher) NotifyActivated(event models.ActivationEvent) error {
	const op = "rabbitmq.NotifyActivated"
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		NotificationsExchange,
		ActivatedRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
