package gateway

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
)

// RoundTripper returns a transport that answers /api requests from the
// gateway without touching the network. Other requests go to next, or to
// http.DefaultTransport when next is nil.
func (g *Gateway) RoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &interceptor{handler: g.engine, next: next}
}

type interceptor struct {
	handler http.Handler
	next    http.RoundTripper
}

func (t *interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL == nil || !isAPIPath(req.URL.Path) {
		return t.next.RoundTrip(req)
	}

	in := req.Clone(req.Context())
	in.RequestURI = in.URL.RequestURI()
	if in.Body == nil {
		in.Body = http.NoBody
	}
	if in.RemoteAddr == "" {
		in.RemoteAddr = "127.0.0.1:0"
	}
	if req.Body != nil {
		defer req.Body.Close()
	}

	w := newBufferedWriter()
	t.handler.ServeHTTP(w, in)
	return w.response(req), nil
}

// bufferedWriter collects a handler's response in memory.
type bufferedWriter struct {
	header      http.Header
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header), status: http.StatusOK}
}

func (w *bufferedWriter) Header() http.Header { return w.header }

func (w *bufferedWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	return w.body.Write(p)
}

func (w *bufferedWriter) response(req *http.Request) *http.Response {
	header := w.header.Clone()
	header.Set("Content-Length", strconv.Itoa(w.body.Len()))
	return &http.Response{
		Status:        strconv.Itoa(w.status) + " " + http.StatusText(w.status),
		StatusCode:    w.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(w.body.Bytes())),
		ContentLength: int64(w.body.Len()),
		Request:       req,
	}
}
