// Package config 负责 cgrep 的配置装载。
// 配置来源有三类：内置默认值、逐行词条的 .cgrepignore 点文件、
// XDG 路径下的 YAML 配置。三者与命令行 -x 词条取并集后
// 构成一次运行的不可变配置，进程内没有全局可变状态。
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"cgrep/internal/model"
)

// ignoreFileName 是点文件名称，当前目录与 HOME 下各找一次。
const ignoreFileName = ".cgrepignore"

// FileConfig 是 YAML 配置文件的结构。
// 示例（~/.config/cgrep/config.yaml）：
//
//	skip_dirs: [node_modules, target]
//	skip_files: ["*.min.js"]
//	exclude: [".bak", "/^tmp/"]
//	override: false
//	workers: 4
type FileConfig struct {
	SkipDirs  []string `yaml:"skip_dirs"`
	SkipFiles []string `yaml:"skip_files"`
	Exclude   []string `yaml:"exclude"`
	Override  bool     `yaml:"override"`
	Color     *bool    `yaml:"color"`
	Workers   int      `yaml:"workers"`
}

// Sources 汇总文件来源配置的装载结果。
// Defaults 与 FileSpec 分开保存，便于命令行要求丢弃内置名单。
type Sources struct {
	Defaults model.SkipSpec
	FileSpec model.SkipSpec
	Tokens   []string
	Override bool
	Color    *bool
	Workers  int
}

// EffectiveSpec 计算生效的跳过名单。
// 默认是内置名单与文件配置的并集；
// YAML 的 override 或命令行的 noDefaults 会丢弃内置部分。
func (s Sources) EffectiveSpec(noDefaults bool) model.SkipSpec {
	if s.Override || noDefaults {
		return s.FileSpec
	}
	return s.Defaults.Merge(s.FileSpec)
}

// DefaultSkipSpec 返回内置跳过名单。
// 目录按精确名匹配，文件按 shell glob 匹配。
func DefaultSkipSpec() model.SkipSpec {
	return model.SkipSpec{
		Dirs: []string{".hg", ".git", ".svn", "CVS", "RCS", "SCCS"},
		Files: []string{
			"*.exe", "*.bin", "*.so", "*.dynlib", "*.dll", "*.a",
			"*.o", "*.obj", "*.class",
			"*.zip", "*.jar", "*.gz",
			"*.gch", "*.pch", "*.pdb", "*.swp", "*.icu",
			"*.jpg", "*.ttf", "*.gif", "*.png", "*.tiff", "*.ico",
		},
	}
}

// Load 装载全部文件来源的配置。
// 点文件与 YAML 文件都允许不存在；存在但内容非法的 YAML 视为错误，
// 因为静默忽略坏配置会让用户误以为排除规则在生效。
func Load() (Sources, error) {
	sources := Sources{Defaults: DefaultSkipSpec()}

	for _, path := range ignoreFilePaths() {
		tokens, err := readIgnoreFile(path)
		if err != nil {
			return sources, err
		}
		sources.Tokens = append(sources.Tokens, tokens...)
	}

	fileConfig, found, err := readYAMLConfig(yamlConfigPath())
	if err != nil {
		return sources, err
	}
	if found {
		sources.Override = fileConfig.Override
		sources.FileSpec = model.SkipSpec{
			Dirs:  fileConfig.SkipDirs,
			Files: fileConfig.SkipFiles,
		}
		sources.Tokens = append(sources.Tokens, fileConfig.Exclude...)
		sources.Color = fileConfig.Color
		sources.Workers = fileConfig.Workers
	}

	return sources, nil
}

// ignoreFilePaths 返回点文件候选路径，全部存在则全部读取（并集）。
func ignoreFilePaths() []string {
	paths := []string{ignoreFileName}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ignoreFileName))
	}
	return paths
}

// yamlConfigPath 返回 YAML 配置路径，优先 XDG_CONFIG_HOME。
func yamlConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "cgrep", "config.yaml")
}

// readIgnoreFile 读取逐行词条文件。
// 每行一个排除词条，空行与 # 注释行跳过；文件不存在不算错误。
func readIgnoreFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ignore file %s: %w", path, err)
	}
	defer file.Close()

	var tokens []string
	reader := bufio.NewScanner(file)
	for reader.Scan() {
		line := strings.TrimSpace(reader.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", path, err)
	}
	return tokens, nil
}

// readYAMLConfig 读取并解析 YAML 配置。
func readYAMLConfig(path string) (FileConfig, bool, error) {
	var fileConfig FileConfig
	if path == "" {
		return fileConfig, false, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileConfig, false, nil
		}
		return fileConfig, false, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &fileConfig); err != nil {
		return fileConfig, false, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fileConfig, true, nil
}
