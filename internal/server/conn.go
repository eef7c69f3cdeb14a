package server

import (
	"bytes"
	"io"
	"net"
)

var (
	headerTerminator = []byte("\r\n\r\n")
	isolationLines   = []byte("\r\n" +
		HeaderEmbedderPolicy + ": " + EmbedderPolicyValue + "\r\n" +
		HeaderOpenerPolicy + ": " + OpenerPolicyValue)
	embedderPolicyKey = []byte("\r\n" + HeaderEmbedderPolicy + ":")
)

// isolationListener は受け付けた接続を isolationConn で包む
//
// 不正なリクエスト行や大きすぎるヘッダーへの応答はハンドラーを通らず
// net/http が接続へ直接書き込むため、ミドルウェアではヘッダーを付けられない
type isolationListener struct {
	net.Listener
}

func (l *isolationListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &isolationConn{Conn: conn}, nil
}

// isolationConn はCOEP/COOPヘッダーのないレスポンスヘッダーに両ヘッダーを追加する
type isolationConn struct {
	net.Conn
}

func (c *isolationConn) Write(p []byte) (int, error) {
	out, ok := injectIsolationHeaders(p)
	if !ok {
		return c.Conn.Write(p)
	}
	if _, err := c.Conn.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ReadFrom はファイル本文の sendfile を維持するため下位の接続へ委譲する
func (c *isolationConn) ReadFrom(r io.Reader) (int64, error) {
	if rf, ok := c.Conn.(io.ReaderFrom); ok {
		return rf.ReadFrom(r)
	}
	return io.Copy(struct{ io.Writer }{c.Conn}, r)
}

// CloseWrite はエラー応答後のハーフクローズを下位の接続へ委譲する
func (c *isolationConn) CloseWrite() error {
	if cw, ok := c.Conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}

// injectIsolationHeaders はステータス行で始まりヘッダーブロックが完結している書き込みのうち
// COEPヘッダーを含まないものに、空行の直前で両ヘッダーを追加する
// 1xx の中間応答は対象外
func injectIsolationHeaders(p []byte) ([]byte, bool) {
	if !isStatusLine(p) || p[len("HTTP/1.x ")] == '1' {
		return nil, false
	}
	end := bytes.Index(p, headerTerminator)
	if end < 0 {
		return nil, false
	}
	if containsFold(p[:end+2], embedderPolicyKey) {
		return nil, false
	}

	out := make([]byte, 0, len(p)+len(isolationLines))
	out = append(out, p[:end]...)
	out = append(out, isolationLines...)
	out = append(out, p[end:]...)
	return out, true
}

// isStatusLine は "HTTP/1.x NNN " で始まるかを判定する
func isStatusLine(p []byte) bool {
	const prefix = "HTTP/1."
	if len(p) < len(prefix)+6 || string(p[:len(prefix)]) != prefix {
		return false
	}
	rest := p[len(prefix):]
	if !isDigit(rest[0]) || rest[1] != ' ' {
		return false
	}
	return isDigit(rest[2]) && isDigit(rest[3]) && isDigit(rest[4]) && rest[5] == ' '
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

func containsFold(s, substr []byte) bool {
	return bytes.Contains(bytes.ToLower(s), bytes.ToLower(substr))
}
