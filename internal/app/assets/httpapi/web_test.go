package httpapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"assethost.local/gee"
	"assethost.local/internal/app/assets"
	"assethost.local/internal/app/assets/httpapi"
	"assethost.local/internal/app/assets/view"
)

const (
	gatewayHost = "abc123.execute-api.us-west-2.amazonaws.com"
	bucketBase  = "https://us-west-2-s3.aws.amazon.com/demo-dev-s3bucket-1jg5o076egkk4/public"
)

type fakeDescriber struct {
	outputs map[string]string
	err     error
	calls   atomic.Int32
}

func (f *fakeDescriber) DescribeStackOutputs(context.Context, string) (map[string]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.outputs, nil
}

func newResolver(d assets.StackDescriber) *assets.Resolver {
	return assets.NewResolver(d, assets.ResolverOptions{StackName: "demo-dev", Region: "us-west-2"})
}

func newEngine(d assets.StackDescriber) *gee.Engine {
	r := gee.New()
	r.Use(gee.Recovery())
	rw := assets.NewRewriter(newResolver(d), "amazonaws.com")
	httpapi.RegisterWebRoutes(r, view.NewHelper(rw))
	return r
}

func okDescriber() *fakeDescriber {
	return &fakeDescriber{outputs: map[string]string{"S3Bucket": "demo-dev-s3bucket-1jg5o076egkk4"}}
}

func get(h http.Handler, host, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Host = host
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndexBehindGateway(t *testing.T) {
	d := okDescriber()
	r := newEngine(d)

	for i := 0; i < 3; i++ {
		rec := get(r, gatewayHost, "/")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
		body := rec.Body.String()
		for _, want := range []string{
			`href="` + bucketBase + `/stylesheets/application.css"`,
			`src="` + bucketBase + `/javascripts/application.js"`,
			`src="` + bucketBase + `/packs/vendor.js"`,
		} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %s\n%s", want, body)
			}
		}
	}
	if n := d.calls.Load(); n != 1 {
		t.Errorf("describe calls = %d, want 1", n)
	}
}

func TestIndexLocal(t *testing.T) {
	d := &fakeDescriber{err: assets.ErrStackNotFound}
	rec := get(newEngine(d), "localhost:9999", "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`href="/stylesheets/application.css"`,
		`src="/javascripts/application.js"`,
		`src="/packs/vendor.js"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s", want)
		}
	}
	if n := d.calls.Load(); n != 0 {
		t.Errorf("describe calls = %d, want 0 for local requests", n)
	}
}

func TestIndexFailsWhenBaseURLUnresolvable(t *testing.T) {
	d := &fakeDescriber{outputs: map[string]string{"ApiGatewayRestApi": "abc123"}}
	rec := get(newEngine(d), gatewayHost, "/")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<script") {
		t.Errorf("partial page leaked: %s", rec.Body)
	}
}

func TestServeLocalAssets(t *testing.T) {
	r := newEngine(okDescriber())

	tests := []struct {
		target      string
		code        int
		contentType string
	}{
		{"/javascripts/application.js", http.StatusOK, "application/javascript; charset=utf-8"},
		{"/stylesheets/application.css", http.StatusOK, "text/css; charset=utf-8"},
		{"/packs/vendor.js", http.StatusOK, "application/javascript; charset=utf-8"},
		{"/javascripts/missing.js", http.StatusNotFound, ""},
		{"/javascripts/../templates/index.html", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(r, "localhost", tt.target)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.contentType != "" && rec.Header().Get("Content-Type") != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", rec.Header().Get("Content-Type"), tt.contentType)
			}
		})
	}
}

func TestFavicon(t *testing.T) {
	if rec := get(newEngine(okDescriber()), "localhost", "/favicon.ico"); rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
