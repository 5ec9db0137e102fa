package cmd

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/wentf9/vmguests/cmd/version"
	"github.com/wentf9/vmguests/pkg/guests"
	"github.com/wentf9/vmguests/pkg/logger"
)

const listGuestsTool = "list_vm_guests"

type listGuestsInput struct {
	File string `json:"file,omitempty" jsonschema:"path of the cached virsh list output, defaults to the configured guest file"`
}

type listGuestsOutput struct {
	Guests []string `json:"guests" jsonschema:"guest hostnames in input order"`
	Output string   `json:"output" jsonschema:"the line vmguests prints: hostnames joined by spaces, None, or the missing file message"`
}

func NewCmdMCP(g *GuestsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "以 MCP stdio 服务的方式提供客户机列表查询",
		Long: `启动一个 MCP (Model Context Protocol) 服务,通过 stdin/stdout 通信。
提供的工具:
  list_vm_guests  读取 virsh list 缓存并返回客户机主机名列表`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.Complete(cmd); err != nil {
				return err
			}
			logger.Logger.Debug("mcp server starting", "tool", listGuestsTool)
			return newMCPServer(g).Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

func newMCPServer(g *GuestsOptions) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "vmguests", Version: version.Version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        listGuestsTool,
		Description: "List the KVM guest hostnames found in the cached virsh list output on this host",
	}, g.listGuests)
	return server
}

func (o *GuestsOptions) listGuests(ctx context.Context, req *mcp.CallToolRequest, in listGuestsInput) (*mcp.CallToolResult, listGuestsOutput, error) {
	path := in.File
	if path == "" {
		path = o.File
	}
	names, err := o.extractor.ExtractFile(path)
	if err != nil {
		logger.Logger.Error("guest file unavailable", "file", path, "error", err)
		return nil, listGuestsOutput{Guests: []string{}, Output: guests.NoGuestFileMessage}, nil
	}
	if names == nil {
		names = []string{}
	}
	return nil, listGuestsOutput{Guests: names, Output: guests.Format(names)}, nil
}
