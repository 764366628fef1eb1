package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var ErrOutsideRoot = errors.New("path escapes storage root")

// 处理函数使用的文件系统
type Storage interface {
	Exists(name string) bool
	ReadAll(name string) ([]byte, error)
	Append(name string, data []byte) error
}

/*
以 root 为根目录的文件存储
name 是相对 root 的路径，跳出 root 的路径一律视为不存在
*/
type Dir struct {
	root string
}

func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "storage root %q", root)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "storage root %q", root)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("storage root %q is not a directory", root)
	}
	return &Dir{root: abs}, nil
}

func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) path(name string) (string, error) {
	p := filepath.Join(d.root, filepath.FromSlash(name))
	if p != d.root && !strings.HasPrefix(p, d.root+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrOutsideRoot, "%q", name)
	}
	return p, nil
}

func (d *Dir) Exists(name string) bool {
	p, err := d.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func (d *Dir) ReadAll(name string) ([]byte, error) {
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	return data, errors.WithStack(err)
}

func (d *Dir) Append(name string, data []byte) error {
	p, err := d.path(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(f.Close())
}
