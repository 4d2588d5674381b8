package server

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/larvik/hostmon/webui"
)

// registerStatic mounts the embedded dashboard UI. API routes registered
// before this take precedence; every unmatched route falls back to
// index.html.
func registerStatic(r *gin.Engine) {
	webRoot, err := fs.Sub(webui.FS, "web")
	if err != nil {
		panic("embed: web sub-fs failed: " + err.Error())
	}
	staticFS := http.FS(webRoot)

	r.NoRoute(func(c *gin.Context) {
		p := strings.TrimPrefix(path.Clean(c.Request.URL.Path), "/")
		if p == "" || p == "." {
			p = "index.html"
		}
		f, err := staticFS.Open(p)
		if err != nil {
			p = "index.html"
			if f, err = staticFS.Open(p); err != nil {
				c.String(http.StatusNotFound, "dashboard assets missing")
				return
			}
		}
		defer f.Close()

		ctype := mime.TypeByExtension(path.Ext(p))
		if ctype == "" {
			ctype = "text/html; charset=utf-8"
		}
		stat, err := f.Stat()
		if err != nil || stat.IsDir() {
			c.String(http.StatusNotFound, "dashboard assets missing")
			return
		}
		c.DataFromReader(http.StatusOK, stat.Size(), ctype, f, nil)
	})
}
