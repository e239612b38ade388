package logger

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const ginLoggerKey = "logger"

// Attaches a request-scoped sublogger, handlers get it back through LOG
func SetGinLogger(c *gin.Context, entry *logrus.Entry) {
	c.Set(ginLoggerKey, entry)
}

func LOG(c *gin.Context) *logrus.Entry {
	v, exists := c.Get(ginLoggerKey)
	if exists {
		entry, ok := v.(*logrus.Entry)
		if ok {
			return entry
		}
	}
	return NewSublogger("gin")
}

// LOGE aborts the request with the given status and returns a logger with
// the error attached
func LOGE(c *gin.Context, err error, status int) *logrus.Entry {
	if err != nil {
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
		return LOG(c).WithError(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
	return LOG(c)
}
