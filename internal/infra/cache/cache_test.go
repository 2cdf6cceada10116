package cache

import (
	"errors"
	"os"
	"testing"
)

func TestStore_ReadWriteSnapshot(t *testing.T) {
	root := t.TempDir()

	s := New(root, false)
	if err := s.WriteSnapshot("imdb_chart", []byte("<html/>")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, err := s.ReadSnapshot("IMDB_CHART")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if string(b) != "<html/>" {
		t.Fatalf("内容不一致：%q", string(b))
	}
}

func TestStore_ReadOnlyRejectWrite(t *testing.T) {
	root := t.TempDir()

	s := New(root, true)
	if err := s.WriteSnapshot("imdb_chart", []byte("x")); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("期望 ErrReadOnly，实际：%v", err)
	}

	path, err := s.SnapshotPath("imdb_chart")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("期望文件不存在，但 Stat err=%v", err)
	}
}

func TestStore_MissingSnapshot(t *testing.T) {
	_, err := New(t.TempDir(), true).ReadSnapshot("imdb_chart")
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("期望 ErrNoSnapshot，实际：%v", err)
	}
}

func TestStore_RejectsPathTraversal(t *testing.T) {
	if _, err := New(t.TempDir(), false).SnapshotPath("../x"); err == nil {
		t.Fatalf("期望非法 layout 报错")
	}
}
