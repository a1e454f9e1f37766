//go:build !unix && !windows

package serialization

import (
	"errors"
	"os"
)

func mmapFile(*os.File, int64) ([]byte, error) {
	return nil, errors.ErrUnsupported
}

func munmapFile([]byte) error {
	return nil
}
