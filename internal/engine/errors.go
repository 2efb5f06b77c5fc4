package engine

import (
	"errors"
	"fmt"
)

// 引擎错误分类体系
// 所有对外暴露的失败最终归入三个哨兵错误之一，便于调用方用 errors.Is 分流
var (
	// ErrValidation 请求输入不合法（缺字段、极性非法、权重越界等）
	ErrValidation = errors.New("validation error")
	// ErrUpstreamUnavailable 外部依赖（分类器/向量化服务/存储）不可用
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrDataIntegrity 内部数据违反不变量（计数为负、权重和不为1等）
	ErrDataIntegrity = errors.New("data integrity error")
)

// EngineError 结构化引擎错误，携带操作名与细节，包装底层哨兵错误
type EngineError struct {
	// Op 发生错误的操作，如 "predictor.Predict"
	Op string
	// BaseErr 底层哨兵错误，决定错误类别
	BaseErr error
	// Detail 人类可读的细节描述
	Detail string
}

// Error 实现 error 接口
func (e *EngineError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.BaseErr)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.BaseErr, e.Detail)
}

// Unwrap 支持 errors.Is / errors.As 链式匹配
func (e *EngineError) Unwrap() error {
	return e.BaseErr
}

// newValidationError 构造输入校验错误
func newValidationError(op, detail string) error {
	return &EngineError{Op: op, BaseErr: ErrValidation, Detail: detail}
}

// newUpstreamError 构造上游不可用错误，cause 附加在细节中
func newUpstreamError(op string, cause error) error {
	return &EngineError{Op: op, BaseErr: ErrUpstreamUnavailable, Detail: cause.Error()}
}

// newIntegrityError 构造数据完整性错误
func newIntegrityError(op, detail string) error {
	return &EngineError{Op: op, BaseErr: ErrDataIntegrity, Detail: detail}
}
