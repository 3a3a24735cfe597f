package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	taskdomain "github.com/kudamusaisiwa/royalprecast/internal/task/domain"
)

func (s *Server) ListTasks(c *gin.Context) {
	var query struct {
		OrderID    string `form:"order_id"`
		Status     string `form:"status"`
		AssignedTo string `form:"assigned_to"`
		PageSize   int32  `form:"page_size,default=50"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taskSvc.List(c.Request.Context(), taskdomain.ListRequest{
		OrderID:    strings.TrimSpace(query.OrderID),
		Status:     strings.TrimSpace(query.Status),
		AssignedTo: strings.TrimSpace(query.AssignedTo),
		PageSize:   query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTaskByID(c *gin.Context) {
	resp, err := s.taskSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
