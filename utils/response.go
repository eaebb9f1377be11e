package utils

import "github.com/gin-gonic/gin"

// Success writes the payload as-is with the given status.
func Success(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// Error writes the standard error envelope.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"detail": message})
}

// ErrorWithData writes the structured error envelope used by validation
// failures that carry per-attribute messages.
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, gin.H{"detail": gin.H{"messages": []string{message}, "attrs": data}})
}
