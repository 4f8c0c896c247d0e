package httpx

import (
	"bytes"
	"net/http"
)

// ResponseBuffer captures a handler's response so the caller can inspect
// the status before deciding whether to forward it.
type ResponseBuffer interface {
	http.ResponseWriter
	Status() int
	Body() []byte
	Flush(w http.ResponseWriter) error
}

type responseBuffer struct {
	body   bytes.Buffer
	status int
	header http.Header
}

func NewResponseBuffer() ResponseBuffer {
	return &responseBuffer{header: http.Header{}}
}

func (b *responseBuffer) Header() http.Header { return b.header }

// WriteHeader keeps the first status, as net/http does.
func (b *responseBuffer) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	b.WriteHeader(http.StatusOK)
	return b.body.Write(p)
}

// Status is 0 while nothing has been written.
func (b *responseBuffer) Status() int { return b.status }

func (b *responseBuffer) Body() []byte { return b.body.Bytes() }

// Flush copies headers, status and body to w.
func (b *responseBuffer) Flush(w http.ResponseWriter) error {
	for key, values := range b.header {
		w.Header()[key] = values
	}
	if b.status != 0 {
		w.WriteHeader(b.status)
	}
	_, err := w.Write(b.body.Bytes())
	return err
}
