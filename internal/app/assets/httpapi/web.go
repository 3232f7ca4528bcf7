package httpapi

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"assethost.local/gee"
	"assethost.local/internal/app/assets/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed public
var publicFS embed.FS

// RegisterWebRoutes mounts the html views and the local asset directories.
// Local directories serve the same files the bucket holds under /public, so
// off-gateway requests keep working.
func RegisterWebRoutes(r *gee.Engine, helper *view.Helper) {
	publicRoot, err := fs.Sub(publicFS, "public")
	if err != nil {
		panic("failed to get public subdirectory: " + err.Error())
	}
	r.LoadHTMLFS(templateFS, "templates/*.html")

	r.GET("/", func(ctx *gee.Context) {
		ctx.HTML(http.StatusOK, "index.html", gee.H{
			"Title":  "assethost",
			"Host":   ctx.Req.Host,
			"Assets": helper.For(ctx),
		})
	})

	for _, dir := range []string{"javascripts", "stylesheets", "packs"} {
		r.GET("/"+dir+"/*filepath", serveAsset(publicRoot, dir))
	}

	// Avoid noisy 404s for favicon.ico
	r.GET("/favicon.ico", func(ctx *gee.Context) {
		ctx.Status(http.StatusNoContent)
	})
}

func serveAsset(root fs.FS, dir string) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		filepath := ctx.Param("filepath")
		if filepath == "" || strings.Contains(filepath, "..") {
			ctx.AbortWithError(http.StatusNotFound, "file not found")
			return
		}
		data, err := fs.ReadFile(root, dir+"/"+filepath)
		if err != nil {
			ctx.AbortWithError(http.StatusNotFound, "file not found")
			return
		}

		contentType := "application/octet-stream"
		if strings.HasSuffix(filepath, ".js") {
			contentType = "application/javascript; charset=utf-8"
		} else if strings.HasSuffix(filepath, ".css") {
			contentType = "text/css; charset=utf-8"
		}

		ctx.SetHeader("Cache-Control", "public, max-age=3600")
		ctx.SetHeader("Content-Type", contentType)
		ctx.Data(http.StatusOK, data)
	}
}
