package users

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Nikelv2/Library-Management-System/internal/library/loans"
	"github.com/Nikelv2/Library-Management-System/internal/platform/auth"
)

type Handler struct {
	svc   *Service
	loans *loans.Service
}

func RegisterRoutes(r gin.IRoutes, svc *Service, loanSvc *loans.Service) {
	h := &Handler{svc: svc, loans: loanSvc}

	manage := auth.RequireCapability(auth.CapManageUsers)
	admin := auth.RequireCapability(auth.CapAdminister)

	r.GET("/users", manage, h.ListUsers)
	r.GET("/users/:user_id", manage, h.GetUser)
	r.GET("/users/:user_id/loans", manage, h.GetUserHistory)
	r.POST("/users/:user_id/ban", manage, h.BanUser)
	r.POST("/users/:user_id/unban", manage, h.UnbanUser)

	r.POST("/users/:user_id/promote", admin, h.PromoteUser)
	r.POST("/users/:user_id/demote", admin, h.DemoteUser)
	r.POST("/users/:user_id/password", admin, h.SetPassword)
	r.DELETE("/users/:user_id", admin, h.DeleteUser)
}

func (h *Handler) ListUsers(c *gin.Context) {
	res, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	res, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetUserHistory returns a user's returned loans, most recent first.
func (h *Handler) GetUserHistory(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	if _, err := h.svc.GetUser(c.Request.Context(), id); err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	res, err := h.loans.ListUserHistory(c.Request.Context(), id)
	if err != nil {
		c.JSON(loans.ToHTTPStatus(err), apiErr(CodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) BanUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	res, err := h.svc.BanUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UnbanUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	res, err := h.svc.UnbanUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) PromoteUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	res, err := h.svc.PromoteUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DemoteUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	res, err := h.svc.DemoteUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) SetPassword(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	if err := h.svc.SetUserPassword(c.Request.Context(), id, req.NewPassword); err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- helpers ----------

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "user_id must be a number"))
		return 0, false
	}
	return id, true
}

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func apiErr(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func apiErrFrom(err error) errorDTO {
	if api, ok := err.(*APIError); ok {
		return apiErr(api.Code, api.Message)
	}
	return apiErr(CodeInternal, err.Error())
}
