//go:build darwin || linux

package mmapcache

import (
	"golang.org/x/sys/unix"
)

// mapFile memory-maps the first size bytes of the file at path read-only.
func mapFile(path string, size int64) ([]byte, error) {
	f, err := openForMmap(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func unmap(data []byte) {
	_ = unix.Munmap(data)
}
