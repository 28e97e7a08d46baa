package feasibility

import "fmt"

// InvalidInputError 请求参数非法（负面积、几何格式错误、缺少分区与几何）
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ErrorCode 映射为 400
func (e *InvalidInputError) ErrorCode() int { return 400 }
