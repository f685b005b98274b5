package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"cgrep/internal/config"
	"cgrep/internal/report"
	"cgrep/internal/skip"
	"cgrep/internal/walker"
)

// runtime 是一次运行的全部已装配组件。
// 在任何遍历开始之前一次性构建完成，此后只读。
type runtime struct {
	reporter *report.Reporter
	policy   *skip.Policy
	walker   *walker.Walker
	options  *globalOptions
	fileSink *report.File
	stopSigs func()
}

// newRuntime 装载配置并装配输出、跳过策略与遍历器。
// 配置文件损坏、非法排除词条等问题都在这里暴露，
// 保证出错时不会产生任何部分结果。
func newRuntime(cmd *cobra.Command, options *globalOptions) (*runtime, error) {
	sources, err := config.Load()
	if err != nil {
		return nil, err
	}

	tokens := append(append([]string(nil), sources.Tokens...), splitExcludeTokens(options.excludes)...)
	policy, err := skip.NewPolicy(sources.EffectiveSpec(options.noDefaultSkip), tokens, options.noSkip)
	if err != nil {
		return nil, usagef("%v", err)
	}

	console := report.NewTerminal(cmd.OutOrStdout(), colorEnabled(cmd, options, sources))

	var sink report.Sink = console
	var fileSink *report.File
	excludePath := ""
	if options.output != "" {
		fileSink, err = report.NewFile(options.output)
		if err != nil {
			return nil, err
		}
		if abs, absErr := filepath.Abs(options.output); absErr == nil {
			excludePath = abs
		}
		if options.fileOnly {
			sink = fileSink
		} else {
			sink = report.NewMulti(console, fileSink)
		}
	} else if options.fileOnly {
		return nil, usagef("--file-only requires --output")
	}

	reporter := report.NewReporter(sink)

	workers := options.workers
	if workers <= 0 {
		workers = sources.Workers
	}
	if workers < 1 {
		workers = 1
	}

	if options.verbose {
		reporter.Diag(fmt.Sprintf("config: %d skip dirs, %d file globs, %d exclude tokens, workers=%d",
			len(policy.DirNames()), len(policy.FileGlobs()), len(tokens), workers))
	}

	env := &runtime{
		reporter: reporter,
		policy:   policy,
		walker:   walker.New(policy, reporter, options.warnSkip, workers, excludePath),
		options:  options,
		fileSink: fileSink,
	}
	env.stopSigs = watchInterrupt(reporter)
	return env, nil
}

// colorEnabled 决定是否启用彩色输出。
// 命令行显式 on/off 优先，其次是 YAML 配置，
// auto 模式下只有写终端时才着色。
func colorEnabled(cmd *cobra.Command, options *globalOptions, sources config.Sources) bool {
	switch options.colorMode {
	case "on":
		return true
	case "off":
		return false
	}
	if sources.Color != nil {
		return *sources.Color
	}
	return report.ColorAuto(cmd.OutOrStdout())
}

// finish 在一次搜索正常结束时输出统计信息。
func (r *runtime) finish(total int) {
	if r.options.showCount {
		r.reporter.Info(fmt.Sprintf("Total matches: %d", total))
	}
}

// close 释放运行期资源：停掉信号监听、刷新并关闭输出文件。
func (r *runtime) close() {
	if r.stopSigs != nil {
		r.stopSigs()
	}
	r.reporter.Flush()
	if r.fileSink != nil {
		r.fileSink.Close()
	}
}

// watchInterrupt 安装中断信号处理。
// 收到 SIGINT/SIGTERM 时打印提示、刷新挂起输出后立即退出，
// 不保证部分结果的清理，与同步执行模型保持一致。
func watchInterrupt(reporter *report.Reporter) func() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		if _, ok := <-signals; !ok {
			return
		}
		fmt.Fprint(os.Stderr, "\nInterrupted. Exiting ...\n")
		reporter.Flush()
		os.Exit(exitFailure)
	}()

	return func() {
		signal.Stop(signals)
		close(signals)
	}
}
