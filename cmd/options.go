package cmd

import (
	"github.com/spf13/pflag"
)

// globalOptions 存放所有模式共享的可配置参数。
// 各子命令只读取与自己相关的字段。
type globalOptions struct {
	ignoreCase    bool
	context       bool
	output        string
	fileOnly      bool
	colorMode     string
	noSkip        bool
	noDefaultSkip bool
	excludes      []string
	warnSkip      bool
	verbose       bool
	workers       int
	showCount     bool
}

// newGlobalOptions 返回带默认值的共享选项。
func newGlobalOptions() *globalOptions {
	return &globalOptions{
		colorMode: "auto",
		warnSkip:  true,
	}
}

// register 把共享选项注册为持久化 flag，对全部子命令生效。
func (o *globalOptions) register(flags *pflag.FlagSet) {
	flags.BoolVarP(&o.ignoreCase, "ignore-case", "i", o.ignoreCase, "匹配时忽略大小写")
	flags.BoolVarP(&o.context, "context", "u", o.context, "额外显示命中行前后各一行上下文")
	flags.StringVarP(&o.output, "output", "o", o.output, "把结果镜像写入指定文件")
	flags.BoolVar(&o.fileOnly, "file-only", o.fileOnly, "只写输出文件，不再打印到控制台")
	flags.StringVar(&o.colorMode, "color", o.colorMode, "彩色输出: auto、on 或 off")
	flags.BoolVarP(&o.noSkip, "no-skip", "S", o.noSkip, "禁用全部跳过规则")
	flags.BoolVar(&o.noDefaultSkip, "no-default-skip", o.noDefaultSkip, "丢弃内置跳过名单，只用配置与 -x 词条")
	flags.StringArrayVarP(&o.excludes, "exclude", "x", nil, "额外排除词条，可用冒号分隔多个（.ext、/re/ 或子串）")
	flags.BoolVarP(&o.warnSkip, "warn-skip", "w", o.warnSkip, "对命中用户词条的目录裁剪输出警告")
	flags.BoolVarP(&o.verbose, "verbose", "v", o.verbose, "输出调试信息")
	flags.IntVar(&o.workers, "workers", o.workers, "grep 模式的并发扫描数，0 表示取配置或串行")
	flags.BoolVar(&o.showCount, "count", o.showCount, "结束时打印命中总数")
}
