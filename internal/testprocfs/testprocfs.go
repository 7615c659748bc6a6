// Package testprocfs builds a throwaway directory tree shaped like /proc,
// for control plane tests that poll process comm names without a real
// kernel's /proc available.
package testprocfs

import (
	"os"
	"path/filepath"
	"strconv"
)

// Build creates dir/<pid>/comm for each entry in procs and returns dir
// (which the caller is expected to have created via t.TempDir()).
func Build(dir string, procs map[int]string) error {
	for pid, comm := range procs {
		pdir := filepath.Join(dir, strconv.Itoa(pid))
		if err := os.MkdirAll(pdir, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(pdir, "comm"), []byte(comm+"\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}
