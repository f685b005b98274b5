package tags

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cgrep/internal/model"
)

// writeFixtureFile 是测试辅助函数，用于在临时目录快速落地测试文件。
func writeFixtureFile(t *testing.T, path string, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// TestParseQuery 验证 scope:ident 查询串的解析与校验。
func TestParseQuery(t *testing.T) {
	scope, re, err := ParseQuery("f:main", false)
	require.NoError(t, err)
	assert.Equal(t, byte('f'), scope)
	assert.True(t, re.MatchString("main"))
	assert.True(t, re.MatchString("mainloop"), "identifier pattern is anchored at start only")
	assert.False(t, re.MatchString("do_main"))

	_, caseRe, err := ParseQuery("c:parser", true)
	require.NoError(t, err)
	assert.True(t, caseRe.MatchString("Parser"))
}

// TestParseQueryErrors 验证非法查询串全部在启动期拒绝。
func TestParseQueryErrors(t *testing.T) {
	for _, query := range []string{"main", "x:main", "ff:main", "f:", ":main", "f:("} {
		_, _, err := ParseQuery(query, false)
		assert.Error(t, err, "query %q should be rejected", query)
	}
}

// TestLookupPatternEntry 验证带括号的模式条目：
// f:main 查询应对 main.c 按字面量 ^int main(void)$ 扫描。
func TestLookupPatternEntry(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	writeFixtureFile(t, filepath.Join(tempDir, "main.c"),
		"#include <stdio.h>\n"+
			"int main(void)\n"+
			"{\n"+
			"    return 0;\n"+
			"}\n")
	writeFixtureFile(t, filepath.Join(tempDir, ".tags"),
		"!_TAG_FILE_FORMAT\t2\t/extended/\n"+
			"main\tmain.c\t/^int main(void)$/;\"\tf\n")

	scope, identPattern, err := ParseQuery("f:main", false)
	require.NoError(t, err)

	results, diags, err := Lookup(".tags", scope, identPattern)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, results, 1)
	assert.Equal(t, "main.c", results[0].Path)
	require.Len(t, results[0].Records, 1)

	record := results[0].Records[0]
	assert.Equal(t, 2, record.Line)
	assert.Equal(t, "int main(void)", record.Matched)
}

// TestLookupScopeFilter 验证只有请求作用域的条目被处理。
func TestLookupScopeFilter(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	writeFixtureFile(t, filepath.Join(tempDir, "src.c"), "int work(void);\nint work(void) { return 1; }\n")
	writeFixtureFile(t, filepath.Join(tempDir, ".tags"),
		"work\tsrc.c\t/^int work(void);$/;\"\tp\n"+
			"work\tsrc.c\t/^int work(void) { return 1; }$/;\"\tf\n")

	scope, identPattern, err := ParseQuery("p:work", false)
	require.NoError(t, err)

	results, diags, err := Lookup(".tags", scope, identPattern)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, results, 1)
	require.Len(t, results[0].Records, 1)
	assert.Equal(t, 1, results[0].Records[0].Line)
}

// TestLookupDedupAndSort 验证结果按 (文件, 行号) 去重排序，
// 与索引文件里的条目顺序无关。
func TestLookupDedupAndSort(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	writeFixtureFile(t, filepath.Join(tempDir, "zz.c"), "void alpha(void) {}\n")
	writeFixtureFile(t, filepath.Join(tempDir, "aa.c"), "void alpha(void) {}\nvoid alpha_two(void) {}\n")
	writeFixtureFile(t, filepath.Join(tempDir, ".tags"),
		"alpha\tzz.c\t/^void alpha(void) {}$/;\"\tf\n"+
			"alpha_two\taa.c\t/^void alpha_two(void) {}$/;\"\tf\n"+
			"alpha\taa.c\t/^void alpha(void) {}$/;\"\tf\n"+
			"alpha\taa.c\t1\tf\n")

	scope, identPattern, err := ParseQuery("f:alpha", false)
	require.NoError(t, err)

	results, diags, err := Lookup(".tags", scope, identPattern)
	require.NoError(t, err)
	assert.Empty(t, diags)

	require.Len(t, results, 2)
	assert.Equal(t, "aa.c", results[0].Path)
	assert.Equal(t, "zz.c", results[1].Path)

	// aa.c 的第 1 行被模式条目与行号条目同时命中，只保留一条
	lines := make([]int, 0, len(results[0].Records))
	for _, record := range results[0].Records {
		lines = append(lines, record.Line)
	}
	assert.Equal(t, []int{1, 2}, lines)
}

// TestLookupMalformedLines 验证坏行只产生诊断，解析继续。
func TestLookupMalformedLines(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	writeFixtureFile(t, filepath.Join(tempDir, "ok.c"), "int fine(void) {}\n")
	writeFixtureFile(t, filepath.Join(tempDir, ".tags"),
		"broken line without tabs\n"+
			"bad\tok.c\tnot-a-pattern\tf\n"+
			"worse\tok.c\t/([invalid/;\"\tf\n"+
			"fine\tok.c\t/^int fine(void) {}$/;\"\tf\n")

	scope, identPattern, err := ParseQuery("f:.*", false)
	require.NoError(t, err)

	results, diags, err := Lookup(".tags", scope, identPattern)
	require.NoError(t, err)

	assert.Len(t, diags, 3)
	for _, diag := range diags {
		assert.True(t, strings.HasPrefix(diag.Path, ".tags:"), "diag should name the tag file line: %+v", diag)
	}

	require.Len(t, results, 1)
	require.Len(t, results[0].Records, 1)
	assert.Equal(t, "int fine(void) {}", results[0].Records[0].Matched)
}

// TestLookupMissingSourceFile 验证源文件不可读只产生条目级诊断。
func TestLookupMissingSourceFile(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	writeFixtureFile(t, filepath.Join(tempDir, ".tags"),
		"ghost\tgone.c\t/^void ghost(void)$/;\"\tf\n")

	scope, identPattern, err := ParseQuery("f:ghost", false)
	require.NoError(t, err)

	results, diags, err := Lookup(".tags", scope, identPattern)
	require.NoError(t, err)
	assert.Empty(t, results)
	require.Len(t, diags, 1)
	assert.Equal(t, "gone.c", diags[0].Path)
}

// TestLookupMissingTagFile 验证索引文件本身打不开是致命错误。
func TestLookupMissingTagFile(t *testing.T) {
	scope, identPattern, err := ParseQuery("f:x", false)
	require.NoError(t, err)

	_, _, err = Lookup(filepath.Join(t.TempDir(), "absent.tags"), scope, identPattern)
	assert.Error(t, err)
}

// TestExtractSearchPattern 验证 excommand 定界符与括号转义处理。
func TestExtractSearchPattern(t *testing.T) {
	pattern, ok := extractSearchPattern(`/^int main(void)$/;"`)
	require.True(t, ok)
	assert.Equal(t, `^int main\(void\)$`, pattern)

	pattern, ok = extractSearchPattern(`?^void tail(void)$?`)
	require.True(t, ok)
	assert.Equal(t, `^void tail\(void\)$`, pattern)

	for _, bad := range []string{"", "x", "/unterminated", "|wrong|"} {
		_, ok := extractSearchPattern(bad)
		assert.False(t, ok, "excommand %q should be rejected", bad)
	}
}

// TestLookupLineNumberEntry 验证行号 excommand 直接取行。
func TestLookupLineNumberEntry(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	writeFixtureFile(t, filepath.Join(tempDir, "num.c"), "one\ntwo\nthree\n")
	writeFixtureFile(t, filepath.Join(tempDir, ".tags"), "two\tnum.c\t2\tm\n")

	scope, identPattern, err := ParseQuery("m:two", false)
	require.NoError(t, err)

	results, diags, err := Lookup(".tags", scope, identPattern)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, results, 1)
	assert.Equal(t, model.MatchRecord{Line: 2, Matched: "two"}, results[0].Records[0])
}
