package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicEnrichmentMiddleware annotates the transaction nrgin starts for
// each request: the entity path parameter becomes a queryable attribute and
// handler errors are noticed on the transaction. nrgin owns the transaction
// lifecycle; this only decorates it.
func NewRelicEnrichmentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}

		if id := c.Param("id"); id != "" {
			txn.AddAttribute("entity.id", id)
		}
		for _, ginErr := range c.Errors {
			txn.NoticeError(ginErr.Err)
		}
	}
}
