package server

import "fmt"

// BindError はリスナーのバインドに失敗したことを表す
// ポート使用中や権限不足の場合に返され、再試行はしない
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("ポート %s をバインドできません: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}
