// Package model 定义 cgrep 的核心数据模型。
// 这些结构会被扫描器、遍历器、输出层和命令层共同使用。
package model

// MatchRecord 表示单行命中结果。
//
// 注意：
//   - Line 从 1 开始计数
//   - Prefix 是命中点之前的文本，Matched 是命中片段本身
//   - Suffix 是命中点之后的文本（不含行尾换行符）
//   - Matched 与 Suffix 同时为空时，该记录表示一条纯上下文行，
//     输出层只打印 Prefix，不做高亮
type MatchRecord struct {
	Line    int    `json:"line"`
	Prefix  string `json:"prefix"`
	Matched string `json:"matched"`
	Suffix  string `json:"suffix"`
}

// IsContext 判断记录是否为纯上下文行。
func (r MatchRecord) IsContext() bool {
	return r.Matched == "" && r.Suffix == ""
}

// FileMatches 表示单文件的全部命中记录。
// 输出层先打印一次文件头，再逐条打印 Records。
type FileMatches struct {
	Path    string        `json:"path"`
	Records []MatchRecord `json:"records"`
}

// ScanError 记录单文件或单条目处理失败信息。
// 设计为“错误不阻断全量搜索”，便于大仓库检索时容错。
type ScanError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// SkipSpec 表示跳过规则的原始词条集合。
// Dirs 针对目录名，Files 针对文件名（shell glob 语法）。
// 集合由内置默认值、配置文件与命令行 -x 词条并集而来，
// 对同一集合重复求值必须得到相同的裁剪决策。
type SkipSpec struct {
	Dirs  []string `yaml:"skip_dirs"`
	Files []string `yaml:"skip_files"`
}

// Merge 将另一组词条并入当前集合并返回新值。
// 原集合不被修改，保持配置不可变的约定。
func (s SkipSpec) Merge(other SkipSpec) SkipSpec {
	merged := SkipSpec{
		Dirs:  make([]string, 0, len(s.Dirs)+len(other.Dirs)),
		Files: make([]string, 0, len(s.Files)+len(other.Files)),
	}
	merged.Dirs = append(merged.Dirs, s.Dirs...)
	merged.Dirs = append(merged.Dirs, other.Dirs...)
	merged.Files = append(merged.Files, s.Files...)
	merged.Files = append(merged.Files, other.Files...)
	return merged
}
