package lsm_tree

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// mmapFile maps the whole file read-only.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %s", f.Name())
	}
	return data, nil
}

func munmap(data []byte) error {
	return errors.Wrap(unix.Munmap(data), "munmap")
}
