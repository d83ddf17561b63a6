package server

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	x402gate "github.com/vitwit/x402gate"
	"github.com/vitwit/x402gate/types"
	"github.com/vitwit/x402gate/utils"
)

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) version(c *gin.Context) {
	c.JSON(http.StatusOK, x402gate.GetVersion())
}

func (s *Server) supported(c *gin.Context) {
	c.JSON(http.StatusOK, s.gate.Supported())
}

func (s *Server) content(c *gin.Context) {
	kind := c.MustGet(kindContextKey).(types.ResourceKind)

	content, err := s.catalog.Content(kind, s.gate.Title(kind))
	if err != nil {
		s.logger.Error("catalog lookup", map[string]any{"kind": kind.String(), "err": err})
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Internal error"})
		return
	}

	c.JSON(http.StatusOK, types.ContentResponse{Success: true, Content: content})
}

func (s *Server) tokenStatus(c *gin.Context) {
	addr := c.Param("address")
	if err := utils.ValidateAddress(addr); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid address"})
		return
	}

	status, err := s.tokens.TokenStatus(c.Request.Context(), common.HexToAddress(addr))
	if err != nil {
		s.logger.Warn("token status lookup failed", map[string]any{"address": addr, "err": err})
		c.JSON(http.StatusBadGateway, types.ErrorResponse{
			Error: "Unable to read token status",
			Code:  types.ErrNetworkError,
		})
		return
	}

	c.JSON(http.StatusOK, status)
}
