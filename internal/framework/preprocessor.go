package framework

import (
	"context"
	"fmt"
)

// Step 处理链中的一个具名步骤
type Step struct {
	Name string
	Run  ProcessorFunc
}

// PreProcessor 按顺序执行任务步骤
// 任一步骤失败或 ctx 结束（处理超时）即停止，错误带上步骤名
type PreProcessor struct {
	steps []Step
}

// NewPreProcessor 创建处理链
func NewPreProcessor(steps ...Step) *PreProcessor {
	return &PreProcessor{steps: steps}
}

// Run 执行处理链
func (p *PreProcessor) Run(ctx context.Context) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("step %s not started: %w", step.Name, err)
		}
		if err := step.Run(ctx); err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
	}
	return nil
}
