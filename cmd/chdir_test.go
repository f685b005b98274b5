package cmd

import (
	"os"
	"testing"
)

// chdir 在测试期间切换工作目录，测试结束后恢复原目录，
// 等价于新版 Go 中的 (*testing.T).Chdir。
func chdir(t *testing.T, dir string) {
	t.Helper()

	previous, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(previous); err != nil {
			t.Errorf("restore working directory failed: %v", err)
		}
	})
}
