package guests

import (
	"fmt"
	"regexp"
	"strings"
)

// StripMode 决定如何从 virsh list 的一行中去掉状态列
type StripMode int

const (
	// StripExact 按完整的单词去掉状态列和 Id 列 (默认)
	StripExact StripMode = iota
	// StripLegacy 与 cron 时代的脚本完全一致: 按字符集从两端 Trim
	// 注意: 以 i/n/s 等字符开头且没有 Id 列的主机名会被误删首字母
	StripLegacy
)

func (m StripMode) String() string {
	switch m {
	case StripExact:
		return "exact"
	case StripLegacy:
		return "legacy"
	}
	return fmt.Sprintf("StripMode(%d)", int(m))
}

// ParseStripMode 解析 --strip-mode 参数,空字符串视为 exact
func ParseStripMode(s string) (StripMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return StripExact, nil
	case "legacy":
		return StripLegacy, nil
	}
	return StripExact, fmt.Errorf("unknown strip mode %q (want exact or legacy)", s)
}

// noiseStates 会被当作噪音去掉的状态,顺序即 legacy 模式的 Trim 顺序
var noiseStates = []string{"running", "idle", "no state"}

var leadingDigits = regexp.MustCompile(`^[0-9]+`)

// stripLegacy 去空格 -> 去换行 -> 依次按字符集 Trim -> 去掉开头的数字
func stripLegacy(line string) string {
	s := strings.ReplaceAll(line, " ", "")
	s = strings.Trim(s, "\n")
	for _, cutset := range noiseStates {
		s = strings.Trim(s, cutset)
	}
	return leadingDigits.ReplaceAllString(s, "")
}

// stripExact 按空白切分后,从两端去掉完整的状态词,再去掉纯数字的 Id 列
func stripExact(line string) string {
	fields := strings.Fields(line)
	fields = trimStates(fields)
	if len(fields) > 0 && isDigits(fields[0]) {
		fields = fields[1:]
	}
	return strings.Join(fields, "")
}

func trimStates(fields []string) []string {
	for {
		n := len(fields)
		for _, state := range noiseStates {
			words := strings.Fields(state)
			if hasTokens(fields, words, true) {
				fields = fields[len(words):]
			}
			if hasTokens(fields, words, false) {
				fields = fields[:len(fields)-len(words)]
			}
		}
		if len(fields) == n {
			return fields
		}
	}
}

// hasTokens 判断 fields 是否以 words 开头 (prefix=true) 或结尾
func hasTokens(fields, words []string, prefix bool) bool {
	if len(fields) < len(words) {
		return false
	}
	off := 0
	if !prefix {
		off = len(fields) - len(words)
	}
	for i, w := range words {
		if fields[off+i] != w {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
