// Package skip 实现目录与文件的跳过策略。
// 策略对象在启动时一次性构建，运行期间只读，
// 对同一名字的判定结果不随调用次数与词条顺序变化。
package skip

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"cgrep/internal/model"
)

// Policy 是跳过策略对象。
type Policy struct {
	disabled   bool
	dirNames   []string
	fileGlobs  []string
	suffixes   []string
	substrings []string
	patterns   []tokenPattern
}

// tokenPattern 表示一条 /re/ 形式的排除词条。
// raw 保留原始文本，用于跳过警告里提示命中原因。
type tokenPattern struct {
	re  *regexp.Regexp
	raw string
}

// NewPolicy 根据跳过词条集合与额外排除词条构建策略。
//
// extra 中的词条按三种语法分派，语义必须严格保持：
// - 以 . 开头：后缀匹配（如 .bak 排除所有 *.bak）
// - 被 /.../ 包裹：按正则从名字开头匹配
// - 其余：对目录名与文件名做子串匹配
// 非法正则词条属于用法错误，构建直接失败。
func NewPolicy(spec model.SkipSpec, extra []string, disabled bool) (*Policy, error) {
	policy := &Policy{
		disabled:  disabled,
		dirNames:  append([]string(nil), spec.Dirs...),
		fileGlobs: append([]string(nil), spec.Files...),
	}

	for _, token := range extra {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		switch {
		case strings.HasPrefix(token, "."):
			policy.suffixes = append(policy.suffixes, token)
		case len(token) >= 2 && strings.HasPrefix(token, "/") && strings.HasSuffix(token, "/"):
			raw := token[1 : len(token)-1]
			re, err := regexp.Compile("^(?:" + raw + ")")
			if err != nil {
				return nil, fmt.Errorf("bad exclude regex %q: %w", raw, err)
			}
			policy.patterns = append(policy.patterns, tokenPattern{re: re, raw: raw})
		default:
			policy.substrings = append(policy.substrings, token)
		}
	}

	return policy, nil
}

// ShouldSkipDir 判断目录是否应当被整体裁剪。
// 返回的 reason 非空时表示命中了用户词条，遍历层可据此输出警告；
// 命中内置目录名时 reason 为空，不产生警告。
func (p *Policy) ShouldSkipDir(name string) (bool, string) {
	if p.disabled {
		return false, ""
	}

	for _, dir := range p.dirNames {
		if name == dir {
			return true, ""
		}
	}

	for _, sub := range p.substrings {
		if strings.Contains(name, sub) {
			return true, sub
		}
	}

	for _, pattern := range p.patterns {
		if pattern.re.MatchString(name) {
			return true, pattern.raw
		}
	}

	return false, ""
}

// ShouldSkipFile 判断文件是否应当跳过扫描。
func (p *Policy) ShouldSkipFile(name string) bool {
	if p.disabled {
		return false
	}

	for _, glob := range p.fileGlobs {
		if ok, err := filepath.Match(glob, name); err == nil && ok {
			return true
		}
	}

	for _, suffix := range p.suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}

	for _, sub := range p.substrings {
		if strings.Contains(name, sub) {
			return true
		}
	}

	for _, pattern := range p.patterns {
		if pattern.re.MatchString(name) {
			return true
		}
	}

	return false
}

// DirNames 返回生效的目录跳过名单，供 skiplist 命令展示。
func (p *Policy) DirNames() []string {
	return append([]string(nil), p.dirNames...)
}

// FileGlobs 返回生效的文件跳过模式，供 skiplist 命令展示。
func (p *Policy) FileGlobs() []string {
	return append([]string(nil), p.fileGlobs...)
}

// ExtraTokens 返回解析后的额外词条描述，供 skiplist 命令展示。
func (p *Policy) ExtraTokens() []string {
	tokens := make([]string, 0, len(p.suffixes)+len(p.substrings)+len(p.patterns))
	for _, suffix := range p.suffixes {
		tokens = append(tokens, "suffix "+suffix)
	}
	for _, sub := range p.substrings {
		tokens = append(tokens, "substr "+sub)
	}
	for _, pattern := range p.patterns {
		tokens = append(tokens, "regex /"+pattern.raw+"/")
	}
	return tokens
}
