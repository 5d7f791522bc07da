package params

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/emberops/burnoutctl/internal/application"
)

var (
	once       sync.Once
	AppdataDir string
)

func init() {
	once.Do(getAppDataDir)
}

func getAppDataDir() {
	if dir := os.Getenv("BURNOUTCTL_DATA_DIR"); dir != "" {
		AppdataDir = dir

		_ = os.MkdirAll(AppdataDir, 0o700)

		return
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}

	AppdataDir = filepath.Join(dir, application.AppName)

	if err := os.MkdirAll(AppdataDir, 0o700); err != nil {
		panic(err)
	}
}
