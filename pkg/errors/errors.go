package errors

import "errors"

// ── 错误类别 ──
//
// 业务错误统一归入以下三类之一，Handler 层据此映射 HTTP 状态码：
//   - ErrValidation     → 400
//   - ErrNotFound       → 404
//   - ErrOptimisticLock → 409（可重试）

var (
	// ErrValidation 参数校验失败
	ErrValidation = errors.New("参数校验失败")
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("资源不存在")
	// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
	ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
)

// Error 带类别的业务错误
type Error struct {
	kind error
	msg  string
}

// New 创建归属于 kind 类别的业务错误
func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Validation 创建校验类错误
func Validation(msg string) *Error {
	return New(ErrValidation, msg)
}

func (e *Error) Error() string { return e.msg }

// Unwrap 使 errors.Is(err, ErrNotFound) 等类别判断成立
func (e *Error) Unwrap() error { return e.kind }

// Kind 返回错误所属类别，非业务错误返回 nil
func Kind(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return ErrValidation
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrOptimisticLock):
		return ErrOptimisticLock
	default:
		return nil
	}
}
