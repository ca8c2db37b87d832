package generator

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"time"
)

// mockHTTPClient は HTTPClient のテスト用モックなのだ。
// 発行されたリクエストを記録して、呼び出し回数や内容を検証できるようにするのだ。
type mockHTTPClient struct {
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
	doFunc    func(req *http.Request) ([]byte, error)

	fetchedURLs []string
	requests    []*http.Request
	bodies      []string
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.fetchedURLs = append(m.fetchedURLs, url)
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, url)
	}
	return nil, nil
}

func (m *mockHTTPClient) DoRequest(req *http.Request) ([]byte, error) {
	m.requests = append(m.requests, req)
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		m.bodies = append(m.bodies, string(data))
	} else {
		m.bodies = append(m.bodies, "")
	}
	if m.doFunc != nil {
		return m.doFunc(req)
	}
	return nil, nil
}

// mockCache は ReferenceCacher のテスト用モックなのだ。
type mockCache struct {
	data map[string]any
}

func (m *mockCache) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	if m.data == nil {
		m.data = make(map[string]any)
	}
	m.data[key] = value
}

// mockOpener は ReferenceOpener のテスト用モックなのだ。
type mockOpener struct {
	files  map[string][]byte
	opened []string
}

func (m *mockOpener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	m.opened = append(m.opened, path)
	data, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// mockWriter は OutputWriter のテスト用モックなのだ。
type mockWriter struct {
	writes map[string][]byte
	err    error
}

func (m *mockWriter) Write(ctx context.Context, path string, data io.Reader, mimeType string) error {
	if m.err != nil {
		return m.err
	}
	if m.writes == nil {
		m.writes = make(map[string][]byte)
	}
	b, _ := io.ReadAll(data)
	m.writes[path] = b
	return nil
}
