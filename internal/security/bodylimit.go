package security

import (
	"net/http"

	"github.com/noah-isme/ticket-checkout/internal/common"
)

// BodyLimit caps request payload size. Requests declaring a larger Content-Length are
// rejected up front; streamed bodies are cut off by http.MaxBytesReader and surface as
// *http.MaxBytesError to the handler's decoder.
type BodyLimit struct {
	Max int64
}

// Middleware implements chi middleware.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	if b.Max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		}
		next.ServeHTTP(w, r)
	})
}
