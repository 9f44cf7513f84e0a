package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messenger/internal/service"
	"messenger/pkg/logger"
	"messenger/pkg/pagination"
)

type MessageHandler struct {
	messageService   service.MessageService
	readStateService service.ReadStateService
	chatService      service.ChatService
	log              logger.Logger
}

func NewMessageHandler(messageService service.MessageService, readStateService service.ReadStateService, chatService service.ChatService, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageService:   messageService,
		readStateService: readStateService,
		chatService:      chatService,
		log:              log,
	}
}

type listMessagesQuery struct {
	service.MessagesFilter
	pagination.Params
}

type ContentRequest struct {
	Content string `json:"content" binding:"required"`
}

type ReadMessagesRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

func (h *MessageHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q listMessagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	if !requireMember(c, h.chatService, chatID, userID) {
		return
	}

	page, err := h.messageService.GetMessages(c.Request.Context(), chatID, q.MessagesFilter, q.Params)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *MessageHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	message, err := h.messageService.CreateMessage(c.Request.Context(), chatID, userID, req.Content)
	if err != nil {
		h.log.Warn("Failed to create message", "error", err, "chat_id", chatID, "user_id", userID)
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (h *MessageHandler) Read(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ReadMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.readStateService.ReadMessages(c.Request.Context(), req.IDs, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *MessageHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	message, err := h.messageService.UpdateMessage(c.Request.Context(), messageID, userID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, message)
}

func (h *MessageHandler) UsersSeen(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}
	users, err := h.readStateService.UsersSeen(c.Request.Context(), messageID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
