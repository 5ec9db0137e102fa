package guests

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/wentf9/vmguests/pkg/logger"
)

const (
	// DefaultGuestFile 是 cron 写入 virsh list 输出的位置
	DefaultGuestFile = "/var/log/zabbix/vm_guests.txt"
	// NoGuestFileMessage 文件不可用时输出给 zabbix 的固定提示
	NoGuestFileMessage = "ERROR: No vm guest file on host!"
	// NoneSentinel 没有任何客户机时的输出
	NoneSentinel = "None"
)

// DefaultSuffixes 只认 .com 结尾的主机名
var DefaultSuffixes = []string{".com"}

var (
	ErrNoGuestFile   = errors.New("no vm guest file")
	ErrReadGuestFile = errors.New("read vm guest file failed")
)

// Opener 打开一份 virsh list 的缓存,本地文件或远程 sftp 文件都可以
type Opener func() (io.ReadCloser, error)

// LocalOpener 返回打开本地文件的 Opener,目录同样视为不可用
func LocalOpener(path string) Opener {
	return func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		if info.IsDir() {
			f.Close()
			return nil, fmt.Errorf("%s is a directory", path)
		}
		return f, nil
	}
}

// Extractor 从 virsh list 的输出中提取客户机主机名
type Extractor struct {
	suffixes []string
	mode     StripMode
	log      *slog.Logger
}

// Option 定义配置函数的类型
type Option func(*Extractor)

// WithSuffixes 设置允许的主机名后缀,为空时保持默认值
func WithSuffixes(suffixes ...string) Option {
	return func(e *Extractor) {
		var kept []string
		for _, s := range suffixes {
			if s = strings.TrimSpace(s); s != "" {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			e.suffixes = kept
		}
	}
}

func WithStripMode(mode StripMode) Option {
	return func(e *Extractor) {
		e.mode = mode
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		suffixes: DefaultSuffixes,
		mode:     StripExact,
		log:      logger.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CleanLine 清洗一行记录,返回清洗后的主机名以及它是否通过了后缀过滤
func (e *Extractor) CleanLine(line string) (string, bool) {
	var token string
	switch e.mode {
	case StripLegacy:
		token = stripLegacy(line)
	default:
		token = stripExact(line)
	}
	for _, suffix := range e.suffixes {
		if strings.HasSuffix(token, suffix) {
			return token, true
		}
	}
	return token, false
}

// Extract 逐行读取并保留输入顺序,重复的主机名不去重
func (e *Extractor) Extract(r io.Reader) ([]string, error) {
	var names []string
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if name, ok := e.CleanLine(line); ok {
				names = append(names, name)
			} else {
				e.log.Debug("skip line", "line", strings.TrimRight(line, "\n"), "token", name)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadGuestFile, err)
		}
	}
	return names, nil
}

// ExtractFrom 打开、解析并保证关闭 open 返回的文件
func (e *Extractor) ExtractFrom(open Opener) ([]string, error) {
	rc, err := open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoGuestFile, err)
	}
	defer rc.Close()
	return e.Extract(rc)
}

func (e *Extractor) ExtractFile(path string) ([]string, error) {
	return e.ExtractFrom(LocalOpener(path))
}

// Report 返回最终输出给 zabbix 的一行内容
// 任何 I/O 错误都输出 NoGuestFileMessage,具体原因只写日志
func (e *Extractor) Report(open Opener) string {
	names, err := e.ExtractFrom(open)
	if err != nil {
		e.log.Error("guest file unavailable", "error", err)
		return NoGuestFileMessage
	}
	e.log.Debug("guests extracted", "count", len(names), "mode", e.mode.String())
	return Format(names)
}

// Format 用空格拼接主机名,每个主机名后都带一个空格;没有主机名时返回 None
func Format(names []string) string {
	if len(names) == 0 {
		return NoneSentinel
	}
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(' ')
	}
	return b.String()
}
