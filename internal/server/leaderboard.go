package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	leaderboarddomain "github.com/kudamusaisiwa/royalprecast/internal/leaderboard/domain"
)

func (s *Server) ComputeLeaderboard(c *gin.Context) {
	var query struct {
		From string `form:"from"`
		To   string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from, err := parseOptionalTime(query.From, false)
	if err != nil || from == nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}

	to, err := parseOptionalTime(query.To, true)
	if err != nil || to == nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.leaderboardSvc.Compute(c.Request.Context(), leaderboarddomain.ComputeRequest{
		From: *from,
		To:   *to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
