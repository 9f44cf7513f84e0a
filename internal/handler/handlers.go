package handler

import (
	"messenger/internal/config"
	"messenger/internal/pubsub"
	"messenger/internal/service"
	"messenger/pkg/logger"
)

type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Chat         *ChatHandler
	Message      *MessageHandler
	Subscription *SubscriptionHandler
}

func NewHandlers(services *service.Services, bus *pubsub.Bus, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(cfg),
		Auth:         NewAuthHandler(services.Auth, services.TwoFactor, log),
		User:         NewUserHandler(services.User, services.Chat, log),
		Chat:         NewChatHandler(services.Chat, services.Message, services.ReadState, log),
		Message:      NewMessageHandler(services.Message, services.ReadState, services.Chat, log),
		Subscription: NewSubscriptionHandler(bus, log),
	}
}
