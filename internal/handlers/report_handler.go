package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/admin/dashboard ---
func (h *Handler) GetDashboard(c *gin.Context) {
	ov, err := h.Dashboard.Overview(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", ov)
}

// --- GET: /api/admin/analytics?days=30 ---
func (h *Handler) GetAnalytics(c *gin.Context) {
	days := queryInt(c, "days", 30)
	series, err := h.Dashboard.Analytics(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"days": days, "sales": series})
}
