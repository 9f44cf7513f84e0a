package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger/internal/domain"
	"messenger/internal/service"
	"messenger/pkg/logger"
	"messenger/pkg/pagination"
)

type UserHandler struct {
	userService service.UserService
	chatService service.ChatService
	log         logger.Logger
}

func NewUserHandler(userService service.UserService, chatService service.ChatService, log logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		chatService: chatService,
		log:         log,
	}
}

type listUsersQuery struct {
	service.UsersFilter
	pagination.Params
}

type CreatePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.userService.GetUsers(c.Request.Context(), userID, q.UsersFilter, q.Params)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) MyFriends(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	friends, err := h.userService.GetFriends(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, friends)
}

func (h *UserHandler) MyChats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var (
		chats []*domain.Chat
		err   error
	)
	if c.Query("friends") == "true" {
		chats, err = h.chatService.FriendsChats(c.Request.Context(), userID)
	} else {
		chats, err = h.chatService.MyChats(c.Request.Context(), userID)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

func (h *UserHandler) CreateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userService.CreateProfile(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) CreatePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userService.CreateUserPassword(c.Request.Context(), userID, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.UpdateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Activate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.Activate(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GoOut(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GoOut(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) AddFriend(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	friendID, ok := pathID(c, "id")
	if !ok {
		return
	}

	friend, err := h.userService.AddFriend(c.Request.Context(), userID, friendID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, friend)
}

func (h *UserHandler) RemoveFriend(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	friendID, ok := pathID(c, "id")
	if !ok {
		return
	}

	friend, err := h.userService.RemoveFriend(c.Request.Context(), friendID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, friend)
}

func (h *UserHandler) IsFriend(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	otherID, ok := pathID(c, "id")
	if !ok {
		return
	}

	isFriend, err := h.userService.IsFriend(c.Request.Context(), otherID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_friend": isFriend})
}
