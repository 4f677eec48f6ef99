package middleware

import (
	"bytes"
	_ "embed"
	"net/http"
	"strconv"
	"strings"
)

// The injected sequence is exactly scriptOpen + agent + scriptClose. The
// data attribute is a stable marker; tooling may detect double injection by
// its presence.
var (
	scriptOpen  = []byte(`<script data-snapfire-reload="true">`)
	scriptClose = []byte(`</script>`)
	bodyTag     = []byte(`</body>`)
)

//go:embed client.js
var clientAgent []byte

// Inject returns the response rewriter: for responses whose Content-Type
// contains text/html, the body is buffered and the client agent is spliced
// immediately before the first case-insensitive </body>, or appended when
// the tag is absent. Non-HTML responses pass through byte-identical.
//
// Buffering forfeits streaming for HTML responses. That is a development
// trade-off; in release builds this middleware is never mounted.
func Inject() Middleware {
	return InjectPath("")
}

// InjectPath is Inject with the session endpoint path pinned inside the
// injected script, for servers that mount the endpoint away from the default
// path. An empty path keeps the agent's built-in default.
func InjectPath(wsPath string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Protocol upgrades hijack the connection; a buffered writer
			// cannot carry them.
			if r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}

			buf := &bufferedResponse{rw: w, header: make(http.Header), status: http.StatusOK}

			next.ServeHTTP(buf, r)

			body := buf.body.Bytes()
			if isHTML(buf.header.Get("Content-Type")) {
				body = injectAgent(body, wsPath)
			}

			copyHeader(w.Header(), buf.header)
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(buf.status)
			w.Write(body)
		})
	}
}

// InjectAgent splices the script element into an HTML document.
func InjectAgent(body []byte) []byte {
	return injectAgent(body, "")
}

func injectAgent(body []byte, wsPath string) []byte {
	var preamble []byte
	if wsPath != "" {
		preamble = []byte("window.__snapfireWsPath=" + strconv.Quote(wsPath) + ";")
	}

	out := make([]byte, 0, len(body)+len(scriptOpen)+len(preamble)+len(clientAgent)+len(scriptClose))

	idx := indexFold(body, bodyTag)
	if idx < 0 {
		idx = len(body)
	}

	out = append(out, body[:idx]...)
	out = append(out, scriptOpen...)
	out = append(out, preamble...)
	out = append(out, clientAgent...)
	out = append(out, scriptClose...)
	out = append(out, body[idx:]...)

	return out
}

// Agent returns the embedded client script bytes.
func Agent() []byte {
	return clientAgent
}

func isHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}

// indexFold returns the offset of the first ASCII case-insensitive match of
// needle in haystack, or -1.
func indexFold(haystack, needle []byte) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if bytes.EqualFold(haystack[i:i+len(needle)], needle) {
			return i
		}
	}

	return -1
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

// bufferedResponse captures the downstream response in full so the body can
// be rewritten before anything reaches the wire.
type bufferedResponse struct {
	rw          http.ResponseWriter
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

// Unwrap exposes the real writer so http.ResponseController can reach
// flushing and hijacking on it.
func (b *bufferedResponse) Unwrap() http.ResponseWriter {
	return b.rw
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.status = status
	b.wroteHeader = true
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if !b.wroteHeader {
		b.WriteHeader(http.StatusOK)
	}

	return b.body.Write(p)
}
