package cmd

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/wentf9/vmguests/cmd/utils"
	"github.com/wentf9/vmguests/pkg/config"
	"github.com/wentf9/vmguests/pkg/models"
)

func NewCmdNode(g *GuestsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "node",
		Aliases: []string{"nodes", "inventory"},
		Short:   "管理配置文件中的宿主机节点",
		Long:    `管理 remote 子命令使用的宿主机节点。支持列出、添加和删除操作。`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	cmd.AddCommand(NewCmdNodeList(g))
	cmd.AddCommand(NewCmdNodeAdd(g))
	cmd.AddCommand(NewCmdNodeRemove(g))
	return cmd
}

func NewCmdNodeList(g *GuestsOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "列出所有节点",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.CompleteInventory(cmd); err != nil {
				return err
			}
			provider := config.NewProvider(g.cfg)
			names := provider.ListNodes()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "没有任何节点")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Name", "Address", "User", "Auth", "Jump", "Tags", "Guest File"})
			table.SetAutoWrapText(false)
			table.SetAutoFormatHeaders(true)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetCenterSeparator("")
			table.SetColumnSeparator("")
			table.SetRowSeparator("")
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetTablePadding("\t")
			table.SetNoWhiteSpace(true)
			for _, name := range names {
				node, _ := provider.GetNode(name)
				host, _ := provider.GetHost(name)
				id, _ := provider.GetIdentity(name)
				table.Append([]string{
					name,
					fmt.Sprintf("%s:%d", host.Address, host.PortOrDefault()),
					id.User,
					id.AuthType,
					orDash(node.ProxyJump),
					orDash(strings.Join(node.Tags, ",")),
					orDash(node.GuestFile),
				})
			}
			table.Render()
			return nil
		},
	}
}

type NodeAddOptions struct {
	*GuestsOptions
	Password  string
	KeyFile   string
	KeyPass   string
	JumpHost  string
	Tags      []string
	Alias     []string
	GuestFile string

	name string
	user string
	host string
	port uint16
}

func NewCmdNodeAdd(g *GuestsOptions) *cobra.Command {
	o := &NodeAddOptions{GuestsOptions: g}
	cmd := &cobra.Command{
		Use:   "add <name> [user@]host[:port]",
		Short: "添加一个宿主机节点",
		Long: `添加一个宿主机节点,密码和私钥密码会加密后写入配置文件。
未指定 --password 和 --key 时会从终端读取密码。
用法示例:
vmguests node add kvm01 zabbix@10.0.0.1 -t dc1
vmguests node add kvm02 root@10.0.0.2:2222 -i ~/.ssh/id_ed25519 -j kvm01 --guest-file /srv/vm_guests.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run(cmd)
		},
	}

	cmd.Flags().StringVarP(&o.Password, "password", "P", "", "SSH密码")
	cmd.Flags().StringVarP(&o.KeyFile, "key", "i", "", "SSH私钥文件路径")
	cmd.Flags().StringVarP(&o.KeyPass, "key-pass", "w", "", "SSH私钥密码")
	cmd.Flags().StringVarP(&o.JumpHost, "jump", "j", "", "跳板机节点名称或别名")
	cmd.Flags().StringSliceVarP(&o.Tags, "tag", "t", nil, "节点标签,可重复指定")
	cmd.Flags().StringSliceVarP(&o.Alias, "alias", "a", nil, "节点别名,可重复指定")
	cmd.Flags().StringVar(&o.GuestFile, "guest-file", "", "该节点上 virsh list 缓存的路径 (默认使用全局配置)")
	cmd.MarkFlagsMutuallyExclusive("password", "key")
	return cmd
}

func (o *NodeAddOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GuestsOptions.CompleteInventory(cmd); err != nil {
		return err
	}
	o.name = strings.TrimSpace(args[0])
	o.user, o.host, o.port = utils.ParseAddr(args[1])
	if o.user == "" {
		o.user = utils.GetCurrentUser()
	}
	if o.port == 0 {
		o.port = models.DefaultSSHPort
	}
	return nil
}

func (o *NodeAddOptions) Validate() error {
	if o.name == "" {
		return fmt.Errorf("节点名称不能为空")
	}
	if err := config.ValidateAddress(o.host); err != nil {
		return err
	}
	if o.user == "" {
		return fmt.Errorf("无法确定 SSH 用户名,请使用 user@host 格式")
	}
	return nil
}

func (o *NodeAddOptions) Run(cmd *cobra.Command) error {
	provider := config.NewProvider(o.cfg)
	if _, exists := provider.GetNode(o.name); exists {
		return fmt.Errorf("节点 %s 已存在", o.name)
	}

	node := models.Node{
		HostRef:     o.name,
		IdentityRef: o.name,
		Alias:       o.Alias,
		Tags:        o.Tags,
		GuestFile:   o.GuestFile,
	}
	if o.JumpHost != "" {
		jump := provider.Find(o.JumpHost)
		if jump == "" {
			return fmt.Errorf("跳板机 %s 信息不存在", o.JumpHost)
		}
		node.ProxyJump = jump
	}

	identity := models.Identity{User: o.user}
	if o.KeyFile != "" {
		identity.AuthType = "key"
		identity.KeyPath = o.KeyFile
		identity.Passphrase = o.KeyPass
	} else {
		password := o.Password
		if password == "" {
			pass, err := utils.ReadPasswordFromTerminal(fmt.Sprintf("请输入 %s@%s 的密码: ", o.user, o.host))
			if err != nil {
				return err
			}
			password = pass
		}
		identity.AuthType = "password"
		identity.Password = password
	}

	provider.AddHost(node.HostRef, models.Host{Address: o.host, Port: o.port})
	provider.AddIdentity(node.IdentityRef, identity)
	provider.AddNode(o.name, node)

	if err := o.store.Save(o.cfg); err != nil {
		return fmt.Errorf("保存配置文件失败: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "成功添加节点 %s (%s@%s:%d)\n", o.name, o.user, o.host, o.port)
	return nil
}

func NewCmdNodeRemove(g *GuestsOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>...",
		Aliases: []string{"rm", "delete"},
		Short:   "删除一个或多个节点",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.CompleteInventory(cmd); err != nil {
				return err
			}
			provider := config.NewProvider(g.cfg)
			removed := 0
			for _, arg := range args {
				name := provider.Find(strings.TrimSpace(arg))
				if name == "" || !provider.DeleteNode(name) {
					fmt.Fprintln(cmd.ErrOrStderr(), color.Yellow.Sprintf("警告: 节点 %s 不存在，跳过", arg))
					continue
				}
				removed++
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "未对任何节点进行更改")
				return nil
			}
			if err := g.store.Save(g.cfg); err != nil {
				return fmt.Errorf("保存配置文件失败: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "成功删除 %d 个节点\n", removed)
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
