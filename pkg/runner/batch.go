package runner

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/wentf9/vmguests/pkg/utils"
)

// TaskFunc 针对单个节点执行任务,返回该节点的输出
type TaskFunc func(node string) (string, error)

type Result struct {
	Node   string
	Output string
	Error  error
}

// RunParallel 以 concurrency 的并发度在所有节点上执行 task
// 结果按完成顺序写入通道,全部完成后关闭通道
func RunParallel(nodes []string, concurrency uint, task TaskFunc) <-chan Result {
	wp := utils.NewWorkerPool(concurrency)
	// 缓冲区大小设为节点数量，防止阻塞 worker
	results := make(chan Result, len(nodes))
	go func() {
		for _, node := range nodes {
			wp.Execute(func() {
				res := Result{Node: node}
				defer func() {
					if r := recover(); r != nil {
						res.Output, res.Error = "", fmt.Errorf("panic: %v", r)
					}
					results <- res
				}()
				res.Output, res.Error = task(node)
			})
		}
		wp.Wait()
		close(results)
	}()
	return results
}

// Collect 等待全部结果,按 nodes 的顺序返回
func Collect(nodes []string, results <-chan Result) []Result {
	byNode := make(map[string]Result, len(nodes))
	for r := range results {
		byNode[r.Node] = r
	}
	return lo.FilterMap(nodes, func(n string, _ int) (Result, bool) {
		r, ok := byNode[n]
		return r, ok
	})
}
