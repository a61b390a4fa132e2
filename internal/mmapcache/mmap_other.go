//go:build !darwin && !linux

package mmapcache

import "os"

// mapFile has no mmap implementation on this platform; it reads the file
// directly so the cache still serves correct contents, just without the
// zero-copy benefit.
func mapFile(path string, size int64) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func unmap(data []byte) {}
