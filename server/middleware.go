package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	x402gate "github.com/vitwit/x402gate"
	"github.com/vitwit/x402gate/logger"
	"github.com/vitwit/x402gate/types"
)

const (
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
	// PaymentContextKey holds the *types.VerificationResult of a verified request.
	PaymentContextKey = "x402_payment"
	kindContextKey    = "x402_kind"
)

// RequestID tags each request with the caller's X-Request-ID or a fresh uuid.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func AccessLog(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l.Info("http request", map[string]any{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": c.GetString(requestIDKey),
		})
	}
}

// RequirePayment gates a /:type route. Unknown kinds get 404, requests
// without X-PAYMENT get the requirement, and rejected proofs get 402 with
// the reason. Verified requests continue with the result stored under
// PaymentContextKey.
func RequirePayment(gate *x402gate.Gate, l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, err := types.ParseResourceKind(c.Param("type"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, types.ErrorResponse{
				Error: "Invalid content type",
				Code:  types.ErrUnknownResource,
			})
			return
		}

		req, err := gate.Requirement(kind)
		if err != nil {
			l.Error("build payment requirement", map[string]any{"kind": kind.String(), "err": err})
			c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{
				Error: "Internal error",
				Code:  types.ErrorCode(err),
			})
			return
		}

		header := c.GetHeader(types.PaymentHeader)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, types.PaymentRequiredResponse{
				Error:   "Payment Required",
				Payment: req,
			})
			return
		}

		res := gate.VerifyHeader(c.Request.Context(), header, req)
		if !res.IsValid {
			l.Info("payment not accepted", map[string]any{
				"kind":       kind.String(),
				"code":       res.InvalidReason,
				"retryable":  res.Retryable,
				"request_id": c.GetString(requestIDKey),
			})
			c.AbortWithStatusJSON(http.StatusPaymentRequired, types.ErrorResponse{
				Error: res.Error,
				Code:  res.InvalidReason,
			})
			return
		}

		c.Set(kindContextKey, kind)
		c.Set(PaymentContextKey, res)
		c.Next()
	}
}
