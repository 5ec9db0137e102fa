package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/wentf9/vmguests/global"
	"github.com/wentf9/vmguests/pkg/config"
	"github.com/wentf9/vmguests/pkg/logger"
	"github.com/wentf9/vmguests/pkg/runner"
	"github.com/wentf9/vmguests/pkg/sftp"
	"github.com/wentf9/vmguests/pkg/ssh"
)

type RemoteOptions struct {
	*GuestsOptions
	Tag       string
	TaskCount uint
	Timeout   time.Duration
	Progress  bool

	nodes []string
}

func NewCmdRemote(g *GuestsOptions) *cobra.Command {
	o := &RemoteOptions{GuestsOptions: g}
	cmd := &cobra.Command{
		Use:   "remote [node...]",
		Short: "通过 SFTP 读取一台或多台宿主机上的 virsh list 缓存",
		Long: `通过 SFTP 读取宿主机上由 cron 生成的 virsh list 缓存,每个节点输出一行:
<节点名>: <客户机列表 | None | 错误提示>

节点需要先用 vmguests node add 加入配置文件。
不指定节点和标签时读取全部节点。
用法示例:
vmguests remote kvm01 kvm02
vmguests remote -t dc1 --task 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			return o.Run(cmd)
		},
	}

	cmd.Flags().StringVarP(&o.Tag, "tag", "t", "", "按分组(标签)读取")
	cmd.Flags().UintVar(&o.TaskCount, "task", 5, "并行读取的节点数")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", 30*time.Second, "整体超时时间")
	cmd.Flags().BoolVar(&o.Progress, "progress", global.StderrIsTerminal, "在 stderr 显示进度条")
	return cmd
}

func (o *RemoteOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GuestsOptions.CompleteInventory(cmd); err != nil {
		return err
	}
	provider := config.NewProvider(o.cfg)
	switch {
	case len(args) > 0 && o.Tag != "":
		return fmt.Errorf("不能同时指定节点和标签")
	case len(args) > 0:
		o.nodes = nil
		for _, arg := range args {
			name := provider.Find(arg)
			if name == "" {
				return fmt.Errorf("节点 %s 不存在", arg)
			}
			o.nodes = append(o.nodes, name)
		}
	case o.Tag != "":
		o.nodes = provider.GetNodesByTag(o.Tag)
		if len(o.nodes) == 0 {
			return fmt.Errorf("标签组 %s 为空或不存在", o.Tag)
		}
	default:
		o.nodes = provider.ListNodes()
		if len(o.nodes) == 0 {
			return fmt.Errorf("配置文件中没有任何节点,请先使用 node add 添加")
		}
	}
	return nil
}

func (o *RemoteOptions) Run(cmd *cobra.Command) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.Timeout)
	defer cancel()

	connector := ssh.NewConnector(config.NewProvider(o.cfg))
	defer connector.CloseAll()

	var bar *progressbar.ProgressBar
	if o.Progress {
		bar = progressbar.NewOptions(len(o.nodes),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("读取节点"),
			progressbar.OptionClearOnFinish(),
		)
	} else {
		bar = progressbar.DefaultSilent(int64(len(o.nodes)))
	}

	results := runner.Collect(o.nodes, runner.RunParallel(o.nodes, o.TaskCount, func(name string) (string, error) {
		defer bar.Add(1)
		return o.readNode(ctx, connector, name)
	}))
	bar.Finish()

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			logger.Logger.Error("read node failed", "node", r.Node, "error", r.Error)
			fmt.Fprintf(out, "%s: ERROR: %v\n", r.Node, r.Error)
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", r.Node, r.Output)
	}
	if failed > 0 {
		return fmt.Errorf("%d/%d 个节点读取失败", failed, len(results))
	}
	return nil
}

// readNode 节点上的缓存文件缺失不算错误,与本机一样输出固定提示
func (o *RemoteOptions) readNode(ctx context.Context, connector *ssh.Connector, name string) (string, error) {
	cli, err := connector.Connect(ctx, name)
	if err != nil {
		return "", err
	}
	sc, err := sftp.NewClient(cli)
	if err != nil {
		return "", err
	}
	defer sc.Close()

	path := cli.Node().GuestFile
	if path == "" {
		path = o.File
	}
	// --timeout 同时约束打开和读取,超时后关闭 sftp 会话使阻塞的读取返回
	return runner.CloseOnDone(ctx, sc, func() string {
		return o.extractor.Report(sc.Opener(path))
	})
}
