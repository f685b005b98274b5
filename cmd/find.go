package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"cgrep/internal/walker"
)

// findOptions 存放 find 子命令特有的参数。
type findOptions struct {
	useRegex bool
	dirsOnly bool
}

// newFindCmd 创建 find 子命令（按名字搜索文件与目录）。
// 示例：
//
//	cgrep find "*.proto" src
//	cgrep find -r "/^test_/" .
//	cgrep find -d build .
func newFindCmd(global *globalOptions) *cobra.Command {
	options := findOptions{}

	findCmd := &cobra.Command{
		Use:   "find [flags] NAMEPATTERN [DIR...]",
		Short: "递归搜索文件名与目录名",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, global, options, args)
		},
	}

	findCmd.Flags().BoolVarP(&options.useRegex, "regex", "r", options.useRegex, "把名字模式按正则解释而非 shell glob")
	findCmd.Flags().BoolVarP(&options.dirsOnly, "dirs", "d", options.dirsOnly, "只报告命中的目录名")

	return findCmd
}

// runFind 执行名字搜索模式。
// 模式默认按 shell glob 整名匹配；被 /…/ 包裹或指定 -r 时
// 按正则做子串搜索，-i 对两种解释都生效。
func runFind(cmd *cobra.Command, global *globalOptions, options findOptions, args []string) error {
	namePattern := args[0]
	useRegex := options.useRegex
	if len(namePattern) >= 2 && strings.HasPrefix(namePattern, "/") && strings.HasSuffix(namePattern, "/") {
		namePattern = namePattern[1 : len(namePattern)-1]
		useRegex = true
	}

	var matchName walker.NameMatcher
	if useRegex {
		re, err := compilePattern(namePattern, global.ignoreCase)
		if err != nil {
			return err
		}
		matchName = walker.RegexMatcher(re)
	} else if global.ignoreCase {
		matchName = walker.GlobMatcherFold(namePattern)
	} else {
		matchName = walker.GlobMatcher(namePattern)
	}

	roots := args[1:]
	if len(roots) == 0 {
		roots = []string{"."}
	}

	env, err := newRuntime(cmd, global)
	if err != nil {
		return err
	}
	defer env.close()

	total := 0
	for _, root := range roots {
		count, walkErr := env.walker.Glob(root, matchName, options.dirsOnly)
		if walkErr != nil {
			return walkErr
		}
		total += count
	}

	env.finish(total)
	return nil
}
