package loader

import (
	"fmt"
	"os"

	appErr "github.com/quarind/docqa/internal/pkg/errors"
)

type textLoader struct{}

func init() {
	Register("txt", textLoader{})
	Register("text", textLoader{})
}

func (textLoader) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", appErr.ErrIO, path, err)
	}
	return string(data), nil
}
