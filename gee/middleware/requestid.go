package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"assethost.local/gee"
)

const (
	requestIDHeader = "X-Request-ID"
	// API Gateway 转发的请求带这个头，没有 X-Request-ID 时沿用它，方便和网关日志对上
	amznTraceHeader = "X-Amzn-Trace-Id"
	maxRequestIDLen = 128
)

// ReqID makes sure every request carries X-Request-ID, both on the request
// (for logs further down the chain) and on the response.
func ReqID() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id := validRequestID(ctx.Req.Header.Get(requestIDHeader))
		if id == "" {
			id = validRequestID(ctx.Req.Header.Get(amznTraceHeader))
		}
		if id == "" {
			id = GenerateReqID()
			if id == "" {
				id = strconv.FormatInt(time.Now().UnixNano(), 10)
			}
		}
		ctx.Req.Header.Set(requestIDHeader, id)
		ctx.SetHeader(requestIDHeader, id)

		ctx.Next()
	}
}

// validRequestID drops ids that are too long or carry characters that do
// not belong in a log field or a header.
func validRequestID(id string) string {
	if id == "" || len(id) > maxRequestIDLen {
		return ""
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == '=', c == ';', c == ':':
		default:
			return ""
		}
	}
	return id
}

func GenerateReqID() string {
	src := make([]byte, 16)
	if _, err := rand.Read(src); err != nil {
		return ""
	}

	return hex.EncodeToString(src) // 32 个十六进制字符
}
