// Package report 提供 cgrep 的输出能力。
// 输出目标抽象为 Sink 接口，支持终端彩色输出、纯文本文件输出
// 以及两者同时写入的镜像模式；上层组件只依赖接口本身。
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"cgrep/internal/model"
)

// Style 是输出样式枚举。
type Style int

const (
	// StyleDefault 用于普通文本与上下文行。
	StyleDefault Style = iota
	// StyleMatch 用于命中片段的高亮。
	StyleMatch
	// StyleHeader 用于文件头与目录名。
	StyleHeader
	// StyleDiag 用于非致命诊断信息。
	StyleDiag
	// StyleError 用于致命错误提示。
	StyleError
)

// Sink 是最小输出接口。
// Print 输出一行（带换行），Printn 输出片段（不带换行）。
type Sink interface {
	Print(style Style, msg string)
	Printn(style Style, msg string)
	Flush() error
}

// ColorAuto 判断该 writer 是否应默认启用彩色输出。
// 仅当写入目标是真实终端时返回真。
func ColorAuto(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// Terminal 是面向控制台的 Sink 实现。
type Terminal struct {
	writer io.Writer
	styles map[Style]*color.Color
}

// NewTerminal 创建终端 Sink。
// enableColor 为假时所有样式退化为纯文本，
// 颜色开关保存在对象内部，不依赖包级全局状态。
func NewTerminal(w io.Writer, enableColor bool) *Terminal {
	styles := map[Style]*color.Color{
		StyleDefault: color.New(color.Reset),
		StyleMatch:   color.New(color.FgGreen),
		StyleHeader:  color.New(color.FgYellow),
		StyleDiag:    color.New(color.FgMagenta),
		StyleError:   color.New(color.FgRed),
	}
	for _, style := range styles {
		if enableColor {
			style.EnableColor()
		} else {
			style.DisableColor()
		}
	}
	return &Terminal{writer: w, styles: styles}
}

// Print 输出一行带样式文本。
func (t *Terminal) Print(style Style, msg string) {
	fmt.Fprintln(t.writer, t.styles[style].Sprint(msg))
}

// Printn 输出不带换行的带样式片段。
func (t *Terminal) Printn(style Style, msg string) {
	fmt.Fprint(t.writer, t.styles[style].Sprint(msg))
}

// Flush 对终端输出是空操作。
func (t *Terminal) Flush() error {
	return nil
}

// File 是纯文本文件 Sink，忽略样式信息。
type File struct {
	file *os.File
}

// NewFile 创建文件 Sink，输出文件被截断重写。
func NewFile(path string) (*File, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &File{file: file}, nil
}

// Print 写入一行纯文本。
func (f *File) Print(_ Style, msg string) {
	fmt.Fprintln(f.file, msg)
}

// Printn 写入纯文本片段。
func (f *File) Printn(_ Style, msg string) {
	fmt.Fprint(f.file, msg)
}

// Flush 把缓冲内容落盘。
func (f *File) Flush() error {
	return f.file.Sync()
}

// Close 关闭底层文件。
func (f *File) Close() error {
	return f.file.Close()
}

// Multi 把同一份输出同时写入多个 Sink，用于 -o 的镜像模式。
type Multi struct {
	sinks []Sink
}

// NewMulti 创建镜像 Sink。
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Print 逐个转发整行输出。
func (m *Multi) Print(style Style, msg string) {
	for _, sink := range m.sinks {
		sink.Print(style, msg)
	}
}

// Printn 逐个转发片段输出。
func (m *Multi) Printn(style Style, msg string) {
	for _, sink := range m.sinks {
		sink.Printn(style, msg)
	}
}

// Flush 逐个刷新，返回遇到的第一个错误。
func (m *Multi) Flush() error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Reporter 基于 Sink 组装 cgrep 的具体输出格式。
type Reporter struct {
	sink Sink
}

// NewReporter 创建输出组装器。
func NewReporter(sink Sink) *Reporter {
	return &Reporter{sink: sink}
}

// FileHeader 打印命中文件头，一个文件只打印一次。
func (r *Reporter) FileHeader(path string) {
	r.sink.Print(StyleHeader, path)
}

// Match 打印一条命中或上下文记录。
// 命中记录按 前缀/命中/后缀 三段拼接，命中片段高亮；
// 记录在进入 Sink 前已完整成形，不存在写了一半的记录。
func (r *Reporter) Match(record model.MatchRecord) {
	head := fmt.Sprintf("%4d: %s", record.Line, record.Prefix)
	if record.IsContext() {
		r.sink.Print(StyleDefault, head)
		return
	}
	r.sink.Printn(StyleDefault, head)
	r.sink.Printn(StyleMatch, record.Matched)
	r.sink.Print(StyleDefault, record.Suffix)
}

// File 打印一个文件的文件头与全部记录。
func (r *Reporter) File(matches model.FileMatches) {
	if len(matches.Records) == 0 {
		return
	}
	r.FileHeader(matches.Path)
	for _, record := range matches.Records {
		r.Match(record)
	}
}

// DirName 打印 find 模式下命中的目录路径。
func (r *Reporter) DirName(path string) {
	r.sink.Print(StyleHeader, path)
}

// FileName 打印 find 模式下命中的文件路径。
func (r *Reporter) FileName(path string) {
	r.sink.Print(StyleDefault, path)
}

// Diag 打印非致命诊断，例如单文件读取失败或跳过警告。
func (r *Reporter) Diag(msg string) {
	r.sink.Print(StyleDiag, msg)
}

// Info 打印普通提示文本。
func (r *Reporter) Info(msg string) {
	r.sink.Print(StyleDefault, msg)
}

// Flush 刷新底层 Sink。
func (r *Reporter) Flush() error {
	return r.sink.Flush()
}
