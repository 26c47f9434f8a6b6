// Package rabbitmq carries token analytics events from the API to the worker.
package rabbitmq

import amqp "github.com/rabbitmq/amqp091-go"

// Queue names derived from the main queue.
func retryQueue(queue string) string { return queue + ".retry" }
func dlqQueue(queue string) string   { return queue + ".dlq" }

// declareTopology declares the main queue, a retry queue that dead-letters
// back to main after the message TTL, and a DLQ for rejected messages.
// Publisher and consumer both call it, so either may start first.
func declareTopology(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(
		dlqQueue(queue),
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		nil,
	); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(
		retryQueue(queue),
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queue,
		},
	); err != nil {
		return err
	}

	_, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlqQueue(queue),
		},
	)
	return err
}

func dial(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	if err := declareTopology(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
