package cache

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// Entry is a fully materialized HTTP response held by the cache.
// Entries are never mutated once stored; Clone before changing one.
type Entry struct {
	Status int
	Header http.Header
	Body   []byte
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	return &Entry{
		Status: e.Status,
		Header: e.Header.Clone(),
		Body:   bytes.Clone(e.Body),
	}
}

// MarshalBinary encodes the entry in HTTP/1.1 wire format.
func (e *Entry) MarshalBinary() ([]byte, error) {
	res := &http.Response{
		StatusCode:    e.Status,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.Header.Clone(),
		ContentLength: int64(len(e.Body)),
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
	}
	if res.Header == nil {
		res.Header = make(http.Header)
	}
	res.Header.Del("Content-Length")

	buf := &bytes.Buffer{}
	if err := res.Write(buf); err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes an entry written by MarshalBinary.
// The Content-Length header is dropped; it is derived from Body when served.
func (e *Entry) UnmarshalBinary(b []byte) error {
	res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), nil)
	if err != nil {
		return fmt.Errorf("unmarshal entry: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("unmarshal entry: read body: %w", err)
	}

	res.Header.Del("Content-Length")

	e.Status = res.StatusCode
	e.Header = res.Header
	e.Body = body
	return nil
}
