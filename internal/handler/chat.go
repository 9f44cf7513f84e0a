package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messenger/internal/domain"
	"messenger/internal/service"
	"messenger/pkg/logger"
)

type ChatHandler struct {
	chatService      service.ChatService
	messageService   service.MessageService
	readStateService service.ReadStateService
	log              logger.Logger
}

func NewChatHandler(chatService service.ChatService, messageService service.MessageService, readStateService service.ReadStateService, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService:      chatService,
		messageService:   messageService,
		readStateService: readStateService,
		log:              log,
	}
}

type CreatePersonalChatRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// ChatView is a chat together with the viewer-dependent fields.
type ChatView struct {
	*domain.Chat
	Friend   *domain.User      `json:"friend,omitempty"`
	NotSeen  int               `json:"not_seen"`
	Messages []*domain.Message `json:"messages"`
}

func (h *ChatHandler) MyChats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	chats, err := h.chatService.MyChats(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

// Get returns the chat with its members, admin, the friend for personal
// chats, the viewer's unseen count and the newest messages (?limit=, 0 for all).
func (h *ChatHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	if !requireMember(c, h.chatService, chatID, userID) {
		return
	}

	chat, err := h.chatService.FindChat(ctx, chatID, domain.ChatRelationUsers, domain.ChatRelationAdmin)
	if err != nil {
		fail(c, err)
		return
	}
	view := ChatView{Chat: chat}

	if chat.IsFriendsChat {
		if view.Friend, err = h.chatService.GetFriend(ctx, chatID, userID); err != nil {
			fail(c, err)
			return
		}
	}
	if view.NotSeen, err = h.readStateService.NotSeenCount(ctx, chatID, userID); err != nil {
		fail(c, err)
		return
	}
	if view.Messages, err = h.messageService.GetChatsMessages(ctx, chatID, limit); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ChatHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.CreateChatInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	chat, err := h.chatService.CreateChat(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err)
		return
	}

	h.log.Info("Chat created", "chat_id", chat.ID, "admin_id", userID)
	c.JSON(http.StatusCreated, chat)
}

func (h *ChatHandler) CreatePersonal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreatePersonalChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	chat, err := h.chatService.CreatePersonalChat(c.Request.Context(), userID, req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) AddUser(c *gin.Context) {
	h.changeMembership(c, h.chatService.AddToChat)
}

func (h *ChatHandler) RemoveUser(c *gin.Context) {
	h.changeMembership(c, h.chatService.RemoveFromChat)
}

type membershipFunc func(ctx context.Context, actingID, chatID, targetID uuid.UUID) (*domain.Chat, error)

func (h *ChatHandler) changeMembership(c *gin.Context, change membershipFunc) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	chat, err := change(c.Request.Context(), userID, chatID, targetID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}
