package server

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startTestServer はループバックでサーバーを起動しアドレスを返す
func startTestServer(t *testing.T) string {
	t.Helper()

	srv := New(newTestConfig(newTestRoot(t)), zap.NewNop())
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-errCh
	})

	return srv.Addr().String()
}

// rawRoundTrip はリクエストをそのままソケットに書き込み、レスポンスを解析する
func rawRoundTrip(t *testing.T, addr, raw string) *http.Response {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(3*time.Second)))

	_, err = io.WriteString(conn, raw)
	require.NoError(t, err)

	data, err := io.ReadAll(conn)
	require.NoError(t, err)

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), nil)
	require.NoError(t, err, "レスポンスを解析できません: %q", data)
	return resp
}

// TestProtocolErrorsCarryIsolationHeaders はハンドラー到達前のエラー応答にもヘッダーが付くことをテストする
func TestProtocolErrorsCarryIsolationHeaders(t *testing.T) {
	addr := startTestServer(t)

	testCases := []struct {
		name           string
		raw            string
		expectedStatus int
	}{
		{"不正なリクエスト行", "GARBAGE\r\n\r\n", http.StatusBadRequest},
		{"未対応のHTTPバージョン", "GET / HTTP/9.9\r\nHost: localhost\r\n\r\n", http.StatusHTTPVersionNotSupported},
		{"Hostヘッダーなし", "GET / HTTP/1.1\r\n\r\n", http.StatusBadRequest},
		{"正常なリクエスト", "GET /js/app.js HTTP/1.1\r\nHost: localhost\r\nConnection: close\r\n\r\n", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := rawRoundTrip(t, addr, tc.raw)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
			assertIsolationHeaders(t, resp.Header)
		})
	}
}

func TestInjectIsolationHeaders(t *testing.T) {
	const errorResponse = "HTTP/1.1 400 Bad Request\r\nContent-Type: text/plain; charset=utf-8\r\nConnection: close\r\n\r\n400 Bad Request"

	out, ok := injectIsolationHeaders([]byte(errorResponse))
	require.True(t, ok)
	assert.Equal(t, "HTTP/1.1 400 Bad Request\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"Connection: close\r\n"+
		"Cross-Origin-Embedder-Policy: require-corp\r\n"+
		"Cross-Origin-Opener-Policy: same-origin\r\n"+
		"\r\n400 Bad Request", string(out))

	unchanged := []struct {
		name string
		in   string
	}{
		{"ヘッダー付与済み", "HTTP/1.1 200 OK\r\nContent-Length: 2\r\nCross-Origin-Embedder-Policy: require-corp\r\nCross-Origin-Opener-Policy: same-origin\r\n\r\nok"},
		{"中間応答", "HTTP/1.1 100 Continue\r\n\r\n"},
		{"本文の続き", "console.log('HTTP/1.1 200 OK');\r\n\r\n"},
		{"ヘッダーブロックが未完", "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n"},
		{"短い書き込み", "HTTP/1.1"},
	}
	for _, tc := range unchanged {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := injectIsolationHeaders([]byte(tc.in))
			assert.False(t, ok)
		})
	}
}

func TestIsolationConnWrite(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	conn := &isolationConn{Conn: server}
	const errorResponse = "HTTP/1.1 431 Request Header Fields Too Large\r\nContent-Type: text/plain; charset=utf-8\r\nConnection: close\r\n\r\n431 Request Header Fields Too Large"

	go func() {
		n, err := conn.Write([]byte(errorResponse))
		assert.NoError(t, err)
		// 呼び出し側には元の長さを返す
		assert.Equal(t, len(errorResponse), n)
		_ = conn.Close()
	}()

	data, err := io.ReadAll(client)
	require.NoError(t, err)

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusRequestHeaderFieldsTooLarge, resp.StatusCode)
	assertIsolationHeaders(t, resp.Header)
}
