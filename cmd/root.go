package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wentf9/vmguests/cmd/utils"
	"github.com/wentf9/vmguests/cmd/version"
	"github.com/wentf9/vmguests/pkg/config"
	"github.com/wentf9/vmguests/pkg/guests"
	"github.com/wentf9/vmguests/pkg/logger"
)

// GuestsOptions 是所有子命令共享的全局参数
type GuestsOptions struct {
	ConfigFile string
	File       string
	Suffixes   []string
	StripMode  string
	Debug      bool

	store     config.Store
	cfg       *config.Configuration
	extractor *guests.Extractor
}

func NewGuestsOptions() *GuestsOptions {
	return &GuestsOptions{
		File:      guests.DefaultGuestFile,
		Suffixes:  guests.DefaultSuffixes,
		StripMode: guests.StripExact.String(),
	}
}

// Complete 只加载本机读取需要的配置;优先级: 命令行参数 > VMGUESTS_* 环境变量 > 配置文件 > 默认值
// 节点清单 (密钥、引用) 出错不影响本机输出
func (o *GuestsOptions) Complete(cmd *cobra.Command) error {
	return o.complete(cmd, false)
}

// CompleteInventory 额外校验节点清单并解密密码,供 node 和 remote 使用
func (o *GuestsOptions) CompleteInventory(cmd *cobra.Command) error {
	return o.complete(cmd, true)
}

func (o *GuestsOptions) complete(cmd *cobra.Command, inventory bool) error {
	if o.ConfigFile == "" {
		o.ConfigFile, _ = utils.GetConfigFilePath()
	}
	o.store = config.NewDefaultStore(o.ConfigFile, utils.KeyPathFor(o.ConfigFile))
	load := o.store.LoadSettings
	if inventory {
		load = o.store.Load
	}
	cfg, err := load()
	if err != nil {
		return fmt.Errorf("加载配置文件失败: %w", err)
	}
	o.cfg = cfg

	env, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("读取环境变量失败: %w", err)
	}
	if env.LogLevel != "" && !o.Debug {
		logger.SetLogLevel(env.LogLevel)
	}
	// 环境变量只影响本次运行,不写回配置文件
	eff := *cfg
	eff.ApplyEnv(env)

	flags := cmd.Flags()
	if !flags.Changed("file") && eff.GuestFile != "" {
		o.File = eff.GuestFile
	}
	if !flags.Changed("suffix") && len(eff.Suffixes) > 0 {
		o.Suffixes = eff.Suffixes
	}
	if !flags.Changed("strip-mode") && eff.StripMode != "" {
		o.StripMode = eff.StripMode
	}

	mode, err := guests.ParseStripMode(o.StripMode)
	if err != nil {
		return err
	}
	o.extractor = guests.New(guests.WithSuffixes(o.Suffixes...), guests.WithStripMode(mode))
	logger.Logger.Debug("options resolved", "config", o.ConfigFile, "file", o.File, "suffixes", o.Suffixes, "strip_mode", mode.String())
	return nil
}

// Run 读取本机的 virsh list 缓存并输出一行结果,文件缺失也按正常结束处理
func (o *GuestsOptions) Run(cmd *cobra.Command) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), o.extractor.Report(guests.LocalOpener(o.File)))
	return err
}

func NewCmdRoot() *cobra.Command {
	o := NewGuestsOptions()
	cmd := &cobra.Command{
		Use:   "vmguests [flags]",
		Short: "输出本机 KVM 客户机的主机名列表,供 zabbix 采集",
		Long: `vmguests 读取 cron 定期写入的 virsh list 输出缓存,
去掉 Id 列和状态列后,只保留以指定后缀结尾的主机名,用空格拼接后输出一行。

没有任何客户机时输出 None,缓存文件不存在时输出固定的错误提示。
用法示例:
vmguests
vmguests -f /tmp/vm_guests.txt --suffix .com --suffix .net
vmguests remote -t dc1`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if o.Debug {
				logger.SetLogLevel("debug")
				logger.Logger.Debug("调试模式已开启")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "vmguests version %s\n", version.Version)
				return nil
			}
			if err := o.Complete(cmd); err != nil {
				return err
			}
			return o.Run(cmd)
		},
	}

	cmd.Flags().BoolP("version", "v", false, "显示版本信息")
	cmd.PersistentFlags().BoolVar(&o.Debug, "debug", false, "开启调试模式,日志输出到 stderr")
	cmd.PersistentFlags().StringVar(&o.ConfigFile, "config", "", "配置文件路径 (默认 ~/.vmguests/config.yaml)")
	cmd.PersistentFlags().StringVarP(&o.File, "file", "f", o.File, "virsh list 输出缓存文件")
	cmd.PersistentFlags().StringSliceVar(&o.Suffixes, "suffix", o.Suffixes, "主机名后缀,可重复指定")
	cmd.PersistentFlags().StringVar(&o.StripMode, "strip-mode", o.StripMode, "状态列去除方式: exact 或 legacy")

	cmd.AddCommand(NewCmdRemote(o))
	cmd.AddCommand(NewCmdNode(o))
	cmd.AddCommand(NewCmdMCP(o))
	cmd.AddCommand(NewCmdVersion())
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewCmdRoot().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
