package mq

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/nsqio/go-nsq"
	"github.com/rs/zerolog"
)

// NSQPublisher writes every event to one nsqd topic.
type NSQPublisher struct {
	producer *nsq.Producer
	topic    string
	logger   zerolog.Logger
}

func NewNSQPublisher(addr, topic string, logger zerolog.Logger) (*NSQPublisher, error) {
	cfg := nsq.NewConfig()
	p, err := nsq.NewProducer(addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("nsq producer: %w", err)
	}
	p.SetLogger(nsqLogger{logger}, nsq.LogLevelWarning)
	if err := p.Ping(); err != nil {
		p.Stop()
		return nil, fmt.Errorf("nsqd %s: %w", addr, err)
	}
	logger.Info().Str("addr", addr).Str("topic", topic).Msg("connected to nsqd")
	return &NSQPublisher{producer: p, topic: topic, logger: logger}, nil
}

func (p *NSQPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.producer.Publish(p.topic, body)
}

func (p *NSQPublisher) Close() error {
	p.producer.Stop()
	return nil
}

// nsqLogger routes go-nsq's log lines into zerolog.
type nsqLogger struct {
	logger zerolog.Logger
}

func (l nsqLogger) Output(_ int, s string) error {
	l.logger.Warn().Msg(strings.TrimSpace(s))
	return nil
}
