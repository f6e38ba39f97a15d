package am

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/medf/errors"
)

// backupCount is how many rotated copies SetValue keeps (.back1 newest).
const backupCount = 3

// Marshal renders a configuration as TOML.
func Marshal(c *Config) ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// ProjectConfigTarget returns the file `medf config set` writes to: the
// nearest existing medf.toml, or medf.toml in the working directory.
func ProjectConfigTarget() (string, error) {
	if found := FindProjectConfig(); found != "" {
		return found, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to determine working directory")
	}
	return filepath.Join(wd, ProjectConfigName), nil
}

// SetValue sets a dotted key in the TOML file at path, creating the file if
// needed and rotating backups of the previous content. The raw value is
// typed by the key's default (bool, int or string). The resulting file must
// still produce a valid configuration.
func SetValue(path, key, raw string) error {
	value, err := parseValue(key, raw)
	if err != nil {
		return err
	}

	doc := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &doc); err != nil {
			return errors.Wrapf(err, "failed to parse %s", path)
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to read %s", path)
	}

	section, field, _ := strings.Cut(key, ".")
	table, ok := doc[section].(map[string]any)
	if !ok {
		table = map[string]any{}
	}
	table[field] = value
	doc[section] = table

	data, err := toml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	checkPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".check")
	if err := os.WriteFile(checkPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", checkPath)
	}
	defer os.Remove(checkPath)
	if _, err := LoadFromFile(checkPath); err != nil {
		Reset()
		return errors.Wrapf(err, "refusing to write %s", key)
	}
	Reset()

	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// parseValue converts raw to the type of key's default.
func parseValue(key, raw string) (any, error) {
	section, field, ok := strings.Cut(key, ".")
	if !ok || section == "" || field == "" || strings.Contains(field, ".") {
		return nil, errors.Newf("config key %q must have the form section.name", key)
	}

	v := GetViper()
	if !v.IsSet(key) {
		return nil, errors.WithHint(
			errors.Newf("unknown config key %q", key),
			"run 'medf config show' to list keys")
	}

	switch v.Get(key).(type) {
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "%s expects true or false", key)
		}
		return b, nil
	case int, int64:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "%s expects an integer", key)
		}
		return n, nil
	default:
		return raw, nil
	}
}

// createBackup rotates path.back1..back3 and copies the current file to
// path.back1. A missing file has nothing to back up.
func createBackup(path string) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	oldest := fmt.Sprintf("%s.back%d", path, backupCount)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete %s", oldest)
	}
	for i := backupCount - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.back%d", path, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, fmt.Sprintf("%s.back%d", path, i+1)); err != nil {
			return errors.Wrapf(err, "failed to rotate %s", from)
		}
	}

	return os.WriteFile(path+".back1", content, DefaultFilePermissions)
}
