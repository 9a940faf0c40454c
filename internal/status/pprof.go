package status

import (
	"net/http/pprof"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountPprof serves the runtime profiles behind one wildcard route; gin does
// not allow static siblings next to a catch-all.
func mountPprof(r *gin.Engine) {
	h := func(c *gin.Context) {
		switch strings.TrimPrefix(c.Param("name"), "/") {
		case "cmdline":
			pprof.Cmdline(c.Writer, c.Request)
		case "profile":
			pprof.Profile(c.Writer, c.Request)
		case "symbol":
			pprof.Symbol(c.Writer, c.Request)
		case "trace":
			pprof.Trace(c.Writer, c.Request)
		default:
			pprof.Index(c.Writer, c.Request)
		}
	}
	r.GET("/debug/pprof/*name", h)
	r.POST("/debug/pprof/*name", h)
}
