package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cgrep/internal/tags"
)

// newTagCmd 创建 tag 子命令（ctags 作用域检索）。
// 示例：
//
//	cgrep tag f:main
//	cgrep tag --tag-file build/.tags "c:Parser.*"
//
// 配套索引可用 ctags -R --excmd=pattern -f .tags 生成。
func newTagCmd(global *globalOptions) *cobra.Command {
	tagFile := ".tags"

	tagCmd := &cobra.Command{
		Use:   "tag [flags] SCOPE:IDENT",
		Short: "基于 ctags 索引按作用域检索标识符",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTag(cmd, global, tagFile, args[0])
		},
	}

	tagCmd.Flags().StringVarP(&tagFile, "tag-file", "t", tagFile, "ctags 索引文件路径")

	return tagCmd
}

// runTag 执行作用域检索。
// 查询串格式错误与未知作用域属于用法错误；
// 索引中的坏行只产生诊断，结果按 (文件, 行号) 排序输出。
func runTag(cmd *cobra.Command, global *globalOptions, tagFile string, query string) error {
	scope, identPattern, err := tags.ParseQuery(query, global.ignoreCase)
	if err != nil {
		return usagef("%v", err)
	}

	env, err := newRuntime(cmd, global)
	if err != nil {
		return err
	}
	defer env.close()

	results, diags, err := tags.Lookup(tagFile, scope, identPattern)
	if err != nil {
		return err
	}

	for _, diag := range diags {
		env.reporter.Diag(fmt.Sprintf("%s (%s)", diag.Path, diag.Message))
	}

	total := 0
	for _, fileMatches := range results {
		env.reporter.File(fileMatches)
		total += len(fileMatches.Records)
	}

	env.finish(total)
	return nil
}
