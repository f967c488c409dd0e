package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/ingestvault/pkg/configs"
)

const memoryBufferSize = 256

func init() {
	RegisterFactory(configs.MQTypeMemory, memoryFactory)
}

// memoryFactory 进程内 Pub/Sub，Publisher 与 Subscriber 共用同一个 gochannel.
func memoryFactory(_ context.Context, _ *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: memoryBufferSize,
	}, logger)

	return ps, noopCloseSubscriber{ps}, nil
}

// noopCloseSubscriber 避免 Client.Close 重复关闭共享的 gochannel.
type noopCloseSubscriber struct {
	message.Subscriber
}

func (noopCloseSubscriber) Close() error {
	return nil
}
