package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ParamFiles lists the parameter file names searched for, in order.
var ParamFiles = []string{"bagger.yaml", "bagger.yml", "bagger.json", "bagger.jsonc"}

// FindParams looks upwards from startDir for a parameter file and returns its
// absolute path.
func FindParams(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, name := range ParamFiles {
			if hasFile(dir, name) {
				return filepath.Join(dir, name), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no parameter file found from %s", abs)
}

func hasFile(dir, name string) bool {
	fi, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !fi.IsDir()
}
