package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message"`
}

func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	reply, err := h.Assistant.Ask(c.Request.Context(), req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"reply": reply})
}
