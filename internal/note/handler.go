package note

import (
	"collaborative-notes/internal/errors"
	"collaborative-notes/internal/utils"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// "min=1" alone accepts whitespace-only titles
		v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	}
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type CreateNoteRequest struct {
	Title   string `json:"title" binding:"required,notblank,max=255"`
	Content string `json:"content" binding:"required"`
	Public  *bool  `json:"public"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateNoteRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	note := &Note{
		Title:   form.Title,
		Content: form.Content,
	}
	if form.Public != nil {
		note.Public = *form.Public
	}

	if err := h.service.CreateNote(c.Request.Context(), userID.(uint64), note); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, note)
}

func (h *Handler) ShowUserNotes(c *gin.Context) {
	userID, _ := c.Get("user_id")

	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.ListUserNotes(c.Request.Context(), userID.(uint64), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ShowPublicNotes(c *gin.Context) {
	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.ListPublicNotes(c.Request.Context(), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ShowNote(c *gin.Context) {
	noteID, err := parseNoteID(c)
	if err != nil {
		c.Error(err)
		return
	}

	userID, _ := c.Get("user_id")

	note, err := h.service.GetNote(c.Request.Context(), noteID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, note)
}

func (h *Handler) ShowPublicNote(c *gin.Context) {
	noteID, err := parseNoteID(c)
	if err != nil {
		c.Error(err)
		return
	}

	note, err := h.service.GetPublicNote(c.Request.Context(), noteID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, note)
}

type UpdateNoteRequest struct {
	Title   *string `json:"title" binding:"omitempty,notblank,max=255"`
	Content *string `json:"content"`
	Public  *bool   `json:"public"`
}

func (h *Handler) Update(c *gin.Context) {
	noteID, err := parseNoteID(c)
	if err != nil {
		c.Error(err)
		return
	}

	var form UpdateNoteRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	note, err := h.service.UpdateNote(c.Request.Context(), noteID, userID.(uint64), Patch{
		Title:   form.Title,
		Content: form.Content,
		Public:  form.Public,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, note)
}

func (h *Handler) Delete(c *gin.Context) {
	noteID, err := parseNoteID(c)
	if err != nil {
		c.Error(err)
		return
	}

	userID, _ := c.Get("user_id")

	if err := h.service.DeleteNote(c.Request.Context(), noteID, userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note deleted"})
}

func parseNoteID(c *gin.Context) (uint64, error) {
	noteID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.BadRequest("Invalid note id", err)
	}
	return noteID, nil
}
