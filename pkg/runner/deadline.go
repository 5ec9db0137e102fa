package runner

import (
	"context"
	"io"
)

// CloseOnDone 执行 task,ctx 结束时关闭 c 以打断其中阻塞的读写
// ctx 先于 task 结束时返回 ctx 的错误,task 的输出作废
func CloseOnDone(ctx context.Context, c io.Closer, task func() string) (string, error) {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	out := task()
	if !stop() && ctx.Err() != nil {
		return "", ctx.Err()
	}
	return out, nil
}
