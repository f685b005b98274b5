// Package tags 实现 ctags 索引驱动的作用域搜索。
// 索引文件逐行解析，合法条目立即触发对源文件的探测扫描，
// 全量结果按 (文件, 行号) 去重并排序后返回。
package tags

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"cgrep/internal/model"
	"cgrep/internal/scanner"
)

// KnownScopes 是支持的作用域单字符代码：
// p 原型、f 函数、c 类、s 结构体、m 成员、t 类型、e 枚举、d 宏定义。
const KnownScopes = "pfcsmted"

// ParseQuery 解析 scope:ident 查询串。
// ident 部分是一个从头锚定匹配的正则表达式。
func ParseQuery(query string, ignoreCase bool) (byte, *regexp.Regexp, error) {
	scope, ident, found := strings.Cut(query, ":")
	if !found || len(scope) != 1 || ident == "" {
		return 0, nil, fmt.Errorf("query must look like scope:identifier, got %q", query)
	}
	if !strings.ContainsRune(KnownScopes, rune(scope[0])) {
		return 0, nil, fmt.Errorf("unknown scope %q, known scopes: %s", scope, KnownScopes)
	}

	expr := "^(?:" + ident + ")"
	if ignoreCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return 0, nil, fmt.Errorf("bad identifier pattern %q: %w", ident, err)
	}
	return scope[0], re, nil
}

// Lookup 在 ctags 索引中检索指定作用域下的标识符。
//
// 每个合法条目立即对其源文件执行一次探测扫描：
// excommand 为行号时直接按行取出，为 /…/ 或 ?…? 包裹的模式时
// 重新编译后做内容匹配。同一物理行被多个条目命中时只保留一条，
// 结果按源文件路径、行号排序返回。
// 格式错误的索引行与不可读的源文件都只产生诊断，不中断解析。
func Lookup(tagPath string, scope byte, identPattern *regexp.Regexp) ([]model.FileMatches, []model.ScanError, error) {
	file, err := os.Open(tagPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open tag file: %w", err)
	}
	defer file.Close()

	found := make(map[string]map[int]model.MatchRecord)
	var diags []model.ScanError

	reader := bufio.NewScanner(file)
	reader.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNumber := 0
	for reader.Scan() {
		lineNumber++
		line := reader.Text()
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}

		entry, diag := parseTagLine(line, scope, identPattern)
		if diag != "" {
			diags = append(diags, model.ScanError{
				Path:    fmt.Sprintf("%s:%d", tagPath, lineNumber),
				Message: diag,
			})
			continue
		}
		if entry == nil {
			continue
		}

		records, scanErr := entry.probe()
		if scanErr != nil {
			diags = append(diags, model.ScanError{
				Path:    entry.sourceFile,
				Message: scanErr.Error(),
			})
			continue
		}

		byLine, ok := found[entry.sourceFile]
		if !ok {
			byLine = make(map[int]model.MatchRecord)
			found[entry.sourceFile] = byLine
		}
		for _, record := range records {
			if _, dup := byLine[record.Line]; !dup {
				byLine[record.Line] = record
			}
		}
	}
	if err := reader.Err(); err != nil {
		return nil, diags, fmt.Errorf("read tag file: %w", err)
	}

	return sortFound(found), diags, nil
}

// tagEntry 是一条已通过作用域与标识符过滤的索引条目。
// pattern 与 lineNumber 二选一。
type tagEntry struct {
	identifier string
	sourceFile string
	pattern    *regexp.Regexp
	lineNumber int
}

// probe 对源文件执行该条目约定的扫描。
func (e *tagEntry) probe() ([]model.MatchRecord, error) {
	if e.pattern == nil {
		return scanner.ScanAtLine(e.sourceFile, e.lineNumber)
	}
	return scanner.Scan(e.sourceFile, e.pattern, false)
}

// parseTagLine 解析一行 ctags 记录。
// 返回 (nil, "") 表示条目合法但不属于本次查询；
// 返回非空 diag 表示该行格式错误，应提示并继续下一行。
func parseTagLine(line string, scope byte, identPattern *regexp.Regexp) (*tagEntry, string) {
	fields := strings.SplitN(line, "\t", 4)
	if len(fields) < 4 {
		return nil, fmt.Sprintf("tag line format error: %q", line)
	}
	identifier, sourceFile, excommand, scopeField := fields[0], fields[1], fields[2], fields[3]

	if scopeField == "" || scopeField[0] != scope {
		return nil, ""
	}
	if !identPattern.MatchString(identifier) {
		return nil, ""
	}

	entry := &tagEntry{identifier: identifier, sourceFile: sourceFile}

	if isAllDigits(excommand) {
		entry.lineNumber = parseInt(excommand)
		if entry.lineNumber < 1 {
			return nil, fmt.Sprintf("bad line number excommand: %q", excommand)
		}
		return entry, ""
	}

	pattern, ok := extractSearchPattern(excommand)
	if !ok {
		return nil, fmt.Sprintf("bad excommand: %q", excommand)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Sprintf("tag pattern compile error: %q", pattern)
	}
	entry.pattern = re
	return entry, ""
}

// extractSearchPattern 从 excommand 中提取搜索模式。
// 支持 /…/ 与 ?…? 两种定界符，结尾的 ;" 标记需要剥掉；
// 模式中的圆括号按字面量转义，避免被当作正则分组。
func extractSearchPattern(excommand string) (string, bool) {
	excommand = strings.TrimSuffix(excommand, `;"`)
	if len(excommand) < 2 {
		return "", false
	}

	delimiter := excommand[0]
	if delimiter != '/' && delimiter != '?' {
		return "", false
	}
	if excommand[len(excommand)-1] != delimiter {
		return "", false
	}

	pattern := excommand[1 : len(excommand)-1]
	pattern = strings.ReplaceAll(pattern, "(", `\(`)
	pattern = strings.ReplaceAll(pattern, ")", `\)`)
	return pattern, true
}

// sortFound 把去重映射整理为按 (文件, 行号) 排序的切片。
func sortFound(found map[string]map[int]model.MatchRecord) []model.FileMatches {
	files := make([]string, 0, len(found))
	for file := range found {
		files = append(files, file)
	}
	sort.Strings(files)

	result := make([]model.FileMatches, 0, len(files))
	for _, file := range files {
		byLine := found[file]
		lines := make([]int, 0, len(byLine))
		for line := range byLine {
			lines = append(lines, line)
		}
		sort.Ints(lines)

		records := make([]model.MatchRecord, 0, len(lines))
		for _, line := range lines {
			records = append(records, byLine[line])
		}
		result = append(result, model.FileMatches{Path: file, Records: records})
	}
	return result
}

// isAllDigits 判断字符串是否为纯十进制数字。
func isAllDigits(text string) bool {
	if text == "" {
		return false
	}
	for _, ch := range text {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// parseInt 解析已验证为纯数字的字符串。
func parseInt(text string) int {
	value := 0
	for _, ch := range text {
		value = value*10 + int(ch-'0')
		if value > 1<<30 {
			return -1
		}
	}
	return value
}
