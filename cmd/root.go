// Package cmd 提供 cgrep 的命令行入口与子命令编排。
// 根命令即默认的内容搜索（grep）模式，find/tag 作为子命令存在，
// 三种模式在启动时确定其一，彼此互斥。
package cmd

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

// exitUsage 是用法错误的专用退出码，沿用历史约定。
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 7
)

// usageError 标记应按用法错误处理的失败。
// 这类错误在任何遍历开始之前发生，退出码为 exitUsage。
type usageError struct {
	err error
}

func (e usageError) Error() string {
	return e.err.Error()
}

func (e usageError) Unwrap() error {
	return e.err
}

// usagef 构造一个用法错误。
func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// usageArgs 把 cobra 的参数校验失败归类为用法错误。
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

// Execute 组装根命令并执行，返回进程退出码。
// version 参数由 main 包注入，便于在 CI/CD 中打包不同版本。
func Execute(version string) int {
	rootCmd := newRootCmd(version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cgrep: %v\n", err)
		var usage usageError
		if errors.As(err, &usage) {
			return exitUsage
		}
		return exitFailure
	}
	return exitOK
}

// newRootCmd 创建根命令并注册全部子命令。
// 根命令本身承载 grep 模式：cgrep PATTERN [FILEGLOB...] [DIR...]。
func newRootCmd(version string) *cobra.Command {
	options := newGlobalOptions()

	rootCmd := &cobra.Command{
		Use:   "cgrep [flags] PATTERN [FILEGLOB...] [DIR...]",
		Short: "递归搜索文件内容、文件名与 ctags 作用域",
		Long: "cgrep 是一个递归搜索工具，默认在目录树中按正则搜索文件内容，\n" +
			"find 子命令按名字搜索文件与目录，tag 子命令基于 ctags 索引\n" +
			"做作用域限定的标识符检索。内置与用户配置的跳过名单\n" +
			"会在下潜之前裁剪整个子树。",
		Args:          usageArgs(cobra.MinimumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrep(cmd, options, args)
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	options.register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newFindCmd(options))
	rootCmd.AddCommand(newTagCmd(options))
	rootCmd.AddCommand(newSkiplistCmd(options))
	rootCmd.AddCommand(newVersionCmd(version))

	return rootCmd
}

// runGrep 执行内容搜索模式。
//
// 位置参数的补全规则与历史版本一致：
// PATTERN 之后，已存在的目录视为搜索根目录，其余视为文件范围 glob；
// 两者缺省分别是当前目录与 *。
func runGrep(cmd *cobra.Command, options *globalOptions, args []string) error {
	pattern, err := compilePattern(args[0], options.ignoreCase)
	if err != nil {
		return err
	}

	var fileGlobs []string
	var roots []string
	for _, arg := range args[1:] {
		if isDirectory(arg) {
			roots = append(roots, arg)
		} else {
			fileGlobs = append(fileGlobs, arg)
		}
	}
	if len(fileGlobs) == 0 {
		fileGlobs = []string{"*"}
	}
	if len(roots) == 0 {
		roots = []string{"."}
	}

	env, err := newRuntime(cmd, options)
	if err != nil {
		return err
	}
	defer env.close()

	total := 0
	for _, root := range roots {
		count, walkErr := env.walker.Grep(root, fileGlobs, pattern, options.context)
		if walkErr != nil {
			return walkErr
		}
		total += count
	}

	env.finish(total)
	return nil
}

// compilePattern 编译主搜索模式。
// 编译失败属于用法错误，在任何遍历之前终止。
func compilePattern(expr string, ignoreCase bool) (*regexp.Regexp, error) {
	if ignoreCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, usagef("bad search pattern: %v", err)
	}
	return re, nil
}

// isDirectory 判断路径是否为已存在目录。
func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// splitExcludeTokens 展开命令行 -x 词条。
// 每个词条内部还允许用冒号一次携带多个排除项。
func splitExcludeTokens(values []string) []string {
	var tokens []string
	for _, value := range values {
		for _, token := range strings.Split(value, ":") {
			token = strings.TrimSpace(token)
			if token != "" {
				tokens = append(tokens, token)
			}
		}
	}
	return tokens
}
