// Package walker 提供带裁剪的目录遍历与搜索调度。
// 该层负责深度优先遍历、跳过策略套用、文件名过滤和任务分发，
// 单文件的匹配细节交给 scanner，结果展示交给 report。
package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"cgrep/internal/model"
	"cgrep/internal/report"
	"cgrep/internal/scanner"
	"cgrep/internal/skip"
)

// NameMatcher 是名字匹配谓词，供文件名与目录名过滤使用。
type NameMatcher func(name string) bool

// GlobMatcher 返回按 shell glob 整名匹配的谓词。
func GlobMatcher(pattern string) NameMatcher {
	return func(name string) bool {
		ok, err := filepath.Match(pattern, name)
		return err == nil && ok
	}
}

// GlobMatcherFold 返回忽略大小写的 shell glob 匹配谓词。
func GlobMatcherFold(pattern string) NameMatcher {
	pattern = strings.ToLower(pattern)
	return func(name string) bool {
		ok, err := filepath.Match(pattern, strings.ToLower(name))
		return err == nil && ok
	}
}

// RegexMatcher 返回按正则子串搜索的谓词。
func RegexMatcher(re *regexp.Regexp) NameMatcher {
	return func(name string) bool {
		return re.MatchString(name)
	}
}

// Walker 是遍历调度对象。
type Walker struct {
	policy      *skip.Policy
	reporter    *report.Reporter
	warnSkip    bool
	workers     int
	excludePath string
}

// New 创建遍历调度器。
// workers 大于 1 时 grep 模式对文件扫描做有界并发，
// 输出顺序仍与串行遍历完全一致。
// excludePath 是 -o 输出文件的绝对路径，遍历时永远跳过它。
func New(policy *skip.Policy, reporter *report.Reporter, warnSkip bool, workers int, excludePath string) *Walker {
	if workers < 1 {
		workers = 1
	}
	return &Walker{
		policy:      policy,
		reporter:    reporter,
		warnSkip:    warnSkip,
		workers:     workers,
		excludePath: excludePath,
	}
}

// grepTask 表示一个待扫描文件，Index 记录发现顺序。
type grepTask struct {
	index int
	path  string
}

// Grep 在 root 下递归搜索文件内容。
// 文件名命中任意一个 fileGlobs 且通过跳过策略才会被扫描；
// 返回命中总数（不含上下文行）。
func (w *Walker) Grep(root string, fileGlobs []string, pattern *regexp.Regexp, withContext bool) (int, error) {
	matchers := make([]NameMatcher, 0, len(fileGlobs))
	for _, glob := range fileGlobs {
		matchers = append(matchers, GlobMatcher(glob))
	}
	matchFile := func(name string) bool {
		for _, match := range matchers {
			if match(name) {
				return true
			}
		}
		return false
	}

	var tasks []grepTask
	w.walkFiles(root, func(path string, name string) {
		if !matchFile(name) {
			return
		}
		tasks = append(tasks, grepTask{index: len(tasks), path: path})
	})

	results := make([][]model.MatchRecord, len(tasks))
	failures := make([]*model.ScanError, len(tasks))

	var group errgroup.Group
	group.SetLimit(w.workers)
	for _, task := range tasks {
		task := task
		group.Go(func() error {
			records, err := scanner.Scan(task.path, pattern, withContext)
			if err != nil {
				failures[task.index] = &model.ScanError{Path: task.path, Message: err.Error()}
				return nil
			}
			results[task.index] = records
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for i, task := range tasks {
		if failure := failures[i]; failure != nil {
			w.reporter.Diag(fmt.Sprintf("%s (%s)", failure.Path, failure.Message))
			continue
		}
		w.reporter.File(model.FileMatches{Path: task.path, Records: results[i]})
		total += countMatches(results[i])
	}
	return total, nil
}

// Glob 在 root 下递归搜索文件名与目录名。
// dirsOnly 为真时只报告目录名，整层跳过文件匹配阶段。
func (w *Walker) Glob(root string, matchName NameMatcher, dirsOnly bool) (int, error) {
	total := 0
	w.walkGlob(root, matchName, dirsOnly, &total)
	return total, nil
}

// walkFiles 深度优先遍历目录，对每个存活文件回调。
// 子目录在下潜之前按跳过策略裁剪，被裁剪的子树不产生任何输出。
func (w *Walker) walkFiles(dir string, visit func(path string, name string)) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.reporter.Diag(fmt.Sprintf("%s (%v)", dir, err))
		return
	}

	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			if skipDir, reason := w.policy.ShouldSkipDir(name); skipDir {
				w.warnSkipped(reason, path)
				continue
			}
			subdirs = append(subdirs, path)
			continue
		}

		if w.policy.ShouldSkipFile(name) || w.isExcludedPath(path) {
			continue
		}
		visit(path, name)
	}

	for _, subdir := range subdirs {
		w.walkFiles(subdir, visit)
	}
}

// walkGlob 是 find 模式的遍历实现。
// 目录名在裁剪判定之后立即参与匹配，文件名匹配受 dirsOnly 控制。
func (w *Walker) walkGlob(dir string, matchName NameMatcher, dirsOnly bool, total *int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.reporter.Diag(fmt.Sprintf("%s (%v)", dir, err))
		return
	}

	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			if skipDir, reason := w.policy.ShouldSkipDir(name); skipDir {
				w.warnSkipped(reason, path)
				continue
			}
			if matchName(name) {
				w.reporter.DirName(path)
				*total++
			}
			subdirs = append(subdirs, path)
			continue
		}

		if dirsOnly {
			continue
		}
		if matchName(name) && !w.policy.ShouldSkipFile(name) && !w.isExcludedPath(path) {
			w.reporter.FileName(path)
			*total++
		}
	}

	for _, subdir := range subdirs {
		w.walkGlob(subdir, matchName, dirsOnly, total)
	}
}

// warnSkipped 对命中用户词条的裁剪输出一行警告。
// 内置名单的裁剪是预期行为，不提示。
func (w *Walker) warnSkipped(reason string, path string) {
	if reason == "" || !w.warnSkip {
		return
	}
	w.reporter.Diag(fmt.Sprintf("Skipped (%s) %s", reason, path))
}

// isExcludedPath 判断是否为输出文件本身，避免搜索结果包含自己。
func (w *Walker) isExcludedPath(path string) bool {
	if w.excludePath == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == w.excludePath
}

// countMatches 统计真实命中条数，上下文行不计入。
func countMatches(records []model.MatchRecord) int {
	count := 0
	for _, record := range records {
		if !record.IsContext() {
			count++
		}
	}
	return count
}
