package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

func WriteJSON(fn string, data interface{}) error {
	out, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		return errors.Wrap(err, "problem writing data")
	}

	return errors.WithStack(WriteString(fn, string(out)))
}

func WriteYAML(fn string, data interface{}) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "problem writing data")
	}

	return errors.WithStack(WriteString(fn, strings.TrimSuffix(string(out), "\n")))
}

// WriteReport writes data as YAML when fn has a .yaml or .yml extension and
// as JSON otherwise.
func WriteReport(fn string, data interface{}) error {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".yaml", ".yml":
		return WriteYAML(fn, data)
	default:
		return WriteJSON(fn, data)
	}
}

func PrintJSON(data interface{}) error {
	out, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		return errors.Wrap(err, "problem writing data")
	}

	fmt.Println(string(out))
	return nil
}

func WriteString(fn string, data string) error {
	f, err := os.Create(fn)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	return errors.WithStack(writeBytes(f, []byte(data)))
}

func writeBytes(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		return errors.WithStack(err)
	}

	if _, err := f.WriteString("\n"); err != nil {
		return errors.WithStack(err)
	}

	if err := f.Sync(); err != nil {
		return err
	}

	return nil
}
