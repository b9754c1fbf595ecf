package app

import (
	"context"
	"strings"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
)

// initKafkaProducer инициализирует Kafka producer если brokers не пустой.
// Возвращает nil, nil если brokers пустой.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	if brokers == "" {
		return nil, nil
	}

	brokerList := strings.Split(brokers, ",")
	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

// startPaymentConsumer подписывается на topic платёжных событий и применяет
// внешние подтверждения оплаты к заказам. Возвращает nil, nil без Kafka.
func startPaymentConsumer(ctx context.Context, cfg Config, coordinator *order.Coordinator, dlqProducer *kafka.Producer, logger *log.Entry) (*kafka.Consumer, error) {
	if cfg.KafkaBrokers == "" {
		return nil, nil
	}

	handler := func(ctx context.Context, message *sarama.ConsumerMessage) error {
		event, err := kafka.ParsePaymentEvent(message)
		if err != nil {
			return err
		}
		if event.EventType != kafka.EventTypePaymentConfirmed {
			return nil
		}
		return coordinator.HandlePaymentNotification(ctx, event.OrderID, event.ProviderRef, event.AmountCents)
	}

	consumer, err := kafka.NewConsumerWithDLQ(
		strings.Split(cfg.KafkaBrokers, ","),
		cfg.KafkaGroupID,
		[]string{kafka.TopicPaymentEvents},
		handler,
		dlqProducer,
		3,
	)
	if err != nil {
		return nil, err
	}

	if err := consumer.Start(ctx); err != nil {
		return nil, err
	}

	logger.WithField("topic", kafka.TopicPaymentEvents).Info("payment notification consumer started")
	return consumer, nil
}
