// Package scanner 实现单文件的逐行匹配扫描。
// 该层只负责一个文件内的命中定位、前后缀切分与上下文输出，
// 目录遍历与结果展示分别由 walker 与 report 承担。
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"cgrep/internal/model"
)

// maxLinePart 是前缀与后缀的展示截断上限（按字符计）。
const maxLinePart = 40

// utf8BOM 是 UTF-8 带签名文件的起始字节序列。
const utf8BOM = "\xef\xbb\xbf"

// Scan 对单个文件执行逐行匹配。
//
// 行号从 1 开始。每行只报告最左侧的第一处命中，
// 命中行被切分为前缀、命中片段与后缀三段，行尾换行符不计入后缀。
// withContext 为真时额外输出上下文行，规则如下：
// - 命中行之前的一行作为前置上下文（首行命中时没有）
// - 命中行之后的一行作为后置上下文（文件末尾输出一条空记录）
// - 相邻命中共享的上下文行只输出一次；本身命中的行只按命中输出
// 非法字节序列被替换后继续扫描，不会中断整个文件。
func Scan(path string, pattern *regexp.Regexp, withContext bool) ([]model.MatchRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return scanReader(file, pattern, withContext)
}

// scanReader 是 Scan 的核心实现，独立出来便于测试。
func scanReader(r io.Reader, pattern *regexp.Regexp, withContext bool) ([]model.MatchRecord, error) {
	reader := bufio.NewReader(r)
	records := make([]model.MatchRecord, 0)

	lineNumber := 0
	previousLine := ""
	lastEmitted := 0
	pendingAfter := false

	for {
		raw, readErr := reader.ReadString('\n')
		if raw == "" && readErr != nil {
			if readErr == io.EOF {
				break
			}
			return records, readErr
		}

		lineNumber++
		line := normalizeLine(raw)
		if lineNumber == 1 {
			line = strings.TrimPrefix(line, utf8BOM)
		}
		line = strings.ToValidUTF8(line, "�")

		if location := pattern.FindStringIndex(line); location != nil {
			if withContext && lineNumber > 1 && lastEmitted < lineNumber-1 {
				records = append(records, model.MatchRecord{
					Line:   lineNumber - 1,
					Prefix: previousLine,
				})
			}
			records = append(records, buildMatchRecord(lineNumber, line, location))
			lastEmitted = lineNumber
			pendingAfter = withContext
		} else if pendingAfter {
			records = append(records, model.MatchRecord{
				Line:   lineNumber,
				Prefix: line,
			})
			lastEmitted = lineNumber
			pendingAfter = false
		}

		previousLine = line

		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return records, readErr
		}
	}

	if pendingAfter {
		records = append(records, model.MatchRecord{Line: lineNumber + 1})
	}

	return records, nil
}

// ScanAtLine 按行号直接取出一行，用于 excmd 为行号的 ctags 条目。
// 整行作为命中片段返回，不做模式匹配。
func ScanAtLine(path string, target int) ([]model.MatchRecord, error) {
	if target < 1 {
		return nil, fmt.Errorf("invalid line number %d", target)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	lineNumber := 0
	for {
		raw, readErr := reader.ReadString('\n')
		if raw == "" && readErr != nil {
			break
		}

		lineNumber++
		if lineNumber == target {
			line := normalizeLine(raw)
			if lineNumber == 1 {
				line = strings.TrimPrefix(line, utf8BOM)
			}
			return []model.MatchRecord{{
				Line:    target,
				Matched: strings.ToValidUTF8(line, "�"),
			}}, nil
		}

		if readErr != nil {
			break
		}
	}

	return nil, fmt.Errorf("line %d beyond end of file (%d lines)", target, lineNumber)
}

// buildMatchRecord 把一条命中行切分为三段并应用展示截断。
func buildMatchRecord(lineNumber int, line string, location []int) model.MatchRecord {
	return model.MatchRecord{
		Line:    lineNumber,
		Prefix:  truncatePrefix(line[:location[0]]),
		Matched: line[location[0]:location[1]],
		Suffix:  truncateSuffix(line[location[1]:]),
	}
}

// truncatePrefix 保留前缀的末尾部分，超长时前置省略号。
func truncatePrefix(text string) string {
	runes := []rune(text)
	if len(runes) <= maxLinePart {
		return text
	}
	return "..." + string(runes[len(runes)-maxLinePart:])
}

// truncateSuffix 保留后缀的起始部分，超长时追加省略号。
func truncateSuffix(text string) string {
	runes := []rune(text)
	if len(runes) <= maxLinePart {
		return text
	}
	return string(runes[:maxLinePart]) + "..."
}

// normalizeLine 去除行尾换行符，兼容 \r\n 与 \n。
func normalizeLine(line string) string {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line
}
