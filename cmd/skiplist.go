package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cgrep/internal/config"
	"cgrep/internal/skip"
)

// newSkiplistCmd 创建 skiplist 子命令。
// 命令用于展示合并配置与 -x 词条之后实际生效的跳过规则，
// 便于排查“为什么这个文件没被搜到”。
func newSkiplistCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "skiplist",
		Short: "展示生效的跳过规则",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources, err := config.Load()
			if err != nil {
				return err
			}

			tokens := append(append([]string(nil), sources.Tokens...), splitExcludeTokens(global.excludes)...)
			policy, err := skip.NewPolicy(sources.EffectiveSpec(global.noDefaultSkip), tokens, global.noSkip)
			if err != nil {
				return usagef("%v", err)
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			if _, err := fmt.Fprintln(writer, "KIND\tPATTERN"); err != nil {
				return err
			}
			for _, name := range policy.DirNames() {
				if _, err := fmt.Fprintf(writer, "dir\t%s\n", name); err != nil {
					return err
				}
			}
			for _, glob := range policy.FileGlobs() {
				if _, err := fmt.Fprintf(writer, "file\t%s\n", glob); err != nil {
					return err
				}
			}
			for _, token := range policy.ExtraTokens() {
				if _, err := fmt.Fprintf(writer, "extra\t%s\n", token); err != nil {
					return err
				}
			}

			return writer.Flush()
		},
	}
}
