package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"assethost.local/internal/app/assets"
)

type baseURLResponse struct {
	Stack   string `json:"stack"`
	BaseURL string `json:"base_url,omitempty"`
	Cached  bool   `json:"cached"`
	Error   string `json:"error,omitempty"`
}

// RegisterAdminRoutes mounts base url inspection on the admin mux (仅本机/内网):
//
//	GET  /assets/base-url            memoized value, ?resolve=1 resolves it
//	POST /assets/base-url/reset      forget it (and the shared copy)
func RegisterAdminRoutes(mux *http.ServeMux, resolver *assets.Resolver) {
	mux.HandleFunc("GET /assets/base-url", func(w http.ResponseWriter, r *http.Request) {
		resp := baseURLResponse{Stack: resolver.StackName()}
		resp.BaseURL, resp.Cached = resolver.Cached()

		if !resp.Cached && r.URL.Query().Get("resolve") == "1" {
			baseURL, err := resolver.Resolve(r.Context())
			if err != nil {
				resp.Error = err.Error()
				writeJSON(w, http.StatusBadGateway, resp)
				return
			}
			resp.BaseURL = baseURL
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("POST /assets/base-url/reset", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		// 本进程的值已清掉；共享缓存删失败只影响其他实例，等 TTL 过期
		if err := resolver.Reset(ctx); err != nil {
			writeJSON(w, http.StatusAccepted, baseURLResponse{Stack: resolver.StackName(), Error: err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
