package service

import (
	"messenger/internal/config"
	"messenger/internal/mailer"
	"messenger/internal/pubsub"
	"messenger/internal/repository"
	"messenger/internal/uploads"
	"messenger/pkg/logger"
)

type Services struct {
	Auth      AuthService
	TwoFactor TwoFactorService
	User      UserService
	Chat      ChatService
	Message   MessageService
	ReadState ReadStateService
	RateLimit RateLimitService
	Audit     AuditService
}

// Collaborators are the outbound dependencies that are not repositories.
type Collaborators struct {
	Bus      pubsub.Publisher
	Uploader uploads.Uploader
	Mailer   mailer.Mailer
}

func NewServices(repos *repository.Repositories, deps Collaborators, cfg *config.Config, log logger.Logger) *Services {
	audit := NewAuditService(repos.Audit, log)
	auth := NewAuthService(repos.User, audit, cfg.JWT, log)
	readState := NewReadStateService(repos.Message, repos.Chat, deps.Bus, log)

	return &Services{
		Auth:      auth,
		TwoFactor: NewTwoFactorService(repos.User, auth, audit, deps.Mailer, log),
		User:      NewUserService(repos.User, audit, deps.Uploader, deps.Bus, log),
		Chat:      NewChatService(repos.Chat, repos.User, audit, deps.Uploader, deps.Bus, log),
		Message:   NewMessageService(repos.Message, repos.Chat, repos.User, readState, deps.Bus, log),
		ReadState: readState,
		RateLimit: NewRateLimitService(repos.RateLimit, log),
		Audit:     audit,
	}
}
