package http

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// staticHandler serves the front end bundle for any unmatched GET. "/" maps to index.html
// and directories are never listed.
func staticHandler(dir string) gin.HandlerFunc {
	root := http.Dir(dir)
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			notFound(c)
			return
		}
		name := path.Clean("/" + c.Request.URL.Path)
		if name == "/" {
			name = "/index.html"
		}
		f, err := root.Open(name)
		if err != nil {
			notFound(c)
			return
		}
		defer f.Close()
		stat, err := f.Stat()
		if err != nil || stat.IsDir() {
			notFound(c)
			return
		}
		http.ServeContent(c.Writer, c.Request, stat.Name(), stat.ModTime(), f)
	}
}
