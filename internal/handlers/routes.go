package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	appconfig "findphone-functions/internal/config"
	"findphone-functions/internal/middleware"
	"findphone-functions/pkg/lambda"
)

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Store     *StoreHandler
	Lookup    *LookupHandler
	RateLimit appconfig.RateLimitConfig
	Logger    *logrus.Logger

	// Invocation describes the platform context for a request. Defaults to
	// lambda.InvocationFromContext with the middleware request ID.
	Invocation func(c *gin.Context) *lambda.Invocation
}

// SetupRoutes configures the local routes that stand in for the function triggers
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	invocation := config.Invocation
	if invocation == nil {
		invocation = defaultInvocation
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "findphone-functions",
			"lookup":  config.Lookup.Variant(),
			"mode":    appconfig.GetDeploymentMode(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/activate", FunctionHandler(config.Store.Handle, invocation, config.Logger))

	lookup := FunctionHandler(config.Lookup.Handle, invocation, config.Logger)
	router.GET("/lookup", lookup)
	router.POST("/lookup", lookup)
	router.GET("/lookup/*path", lookup)
	router.POST("/lookup/*path", lookup)
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, config *RouterConfig) {
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimiter(config.RateLimit.RequestsPerSecond, config.RateLimit.Burst, config.Logger))
	router.Use(middleware.StructuredLogger(config.Logger))
}

func defaultInvocation(c *gin.Context) *lambda.Invocation {
	inv := lambda.InvocationFromContext(c.Request.Context())
	inv.RequestID = middleware.GetRequestID(c)
	return inv
}

// FunctionHandler runs a function handler for a plain HTTP request. The request
// is wrapped in an HTTP trigger event and the result is written back as HTTP.
func FunctionHandler(handler lambda.HandlerFunc, invocation func(c *gin.Context) *lambda.Invocation, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := EventFromRequest(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		inv := invocation(c)
		result, err := handler(c.Request.Context(), inv, raw)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"request_id": inv.RequestID,
				"path":       c.Request.URL.Path,
			}).WithError(err).Error("Function fault")
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: MsgInternalServerError})
			return
		}

		writeResult(c, result)
	}
}

// EventFromRequest encodes an HTTP request as an HTTP trigger event
func EventFromRequest(c *gin.Context) ([]byte, error) {
	var body []byte
	if c.Request.Body != nil {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		body = data
	}

	headers := make(map[string]interface{}, len(c.Request.Header))
	for name, values := range c.Request.Header {
		headers[name] = strings.Join(values, ",")
	}

	query := make(map[string]interface{})
	for name, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	event := map[string]interface{}{
		"version":         "v1",
		"rawPath":         c.Request.URL.Path,
		"headers":         headers,
		"queryParameters": query,
		"body":            string(body),
		"isBase64Encoded": false,
		"requestContext": map[string]interface{}{
			"requestId": c.GetString(middleware.RequestIDKey),
			"http": map[string]interface{}{
				"method":    c.Request.Method,
				"path":      c.Request.URL.Path,
				"sourceIp":  c.ClientIP(),
				"userAgent": c.Request.UserAgent(),
			},
		},
	}
	if !utf8.Valid(body) {
		event["body"] = base64.StdEncoding.EncodeToString(body)
		event["isBase64Encoded"] = true
	}

	return json.Marshal(event)
}

func writeResult(c *gin.Context, result *lambda.Result) {
	if result == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if result.IsText() {
		c.String(http.StatusOK, result.Text)
		return
	}

	for name, value := range result.HTTP.Headers {
		c.Header(name, value)
	}
	switch body := result.HTTP.Body.(type) {
	case string:
		c.Data(result.HTTP.StatusCode, "application/json; charset=utf-8", []byte(body))
	case nil:
		c.Status(result.HTTP.StatusCode)
	default:
		c.JSON(result.HTTP.StatusCode, body)
	}
}
