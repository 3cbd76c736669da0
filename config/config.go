// Package config is used for storing persistent per-instance state. There
// should be, at most, a single instance of the config that is passed around
// between components.
package config

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDirName  = ".mirror"
	DefaultFileName = "config.json"
)

// Config stores the instance ID used to tag stats and events
type Config struct {
	MirrorID  string    `json:"mirror_id"`
	CreatedAt time.Time `json:"created_at"`

	dir string
}

// New reads the config stored in dir, creating dir and a fresh config (with
// a newly generated MirrorID) when none exists yet. An empty dir means
// ~/.mirror.
func New(dir string) (*Config, error) {
	if dir == "" {
		var err error

		dir, err = defaultDir()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create config dir '%s'", dir)
	}

	cfg, err := ReadConfig(dir, DefaultFileName)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config")
	}

	if cfg.MirrorID != "" {
		return cfg, nil
	}

	cfg.MirrorID = uuid.NewV4().String()
	cfg.CreatedAt = time.Now().UTC()

	logrus.WithField("pkg", "config").Debugf("generated new mirror id '%s'", cfg.MirrorID)

	if err := cfg.Save(); err != nil {
		return nil, errors.Wrap(err, "unable to save new config")
	}

	return cfg, nil
}

// Save is a convenience method of persisting the config to disk via a single call
func (c *Config) Save() error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "unable to marshal config to JSON")
	}

	return WriteConfig(c.dir, DefaultFileName, data)
}

// Dir is the directory the config is persisted in
func (c *Config) Dir() string {
	return c.dir
}

// ReadConfig reads a config JSON file into a Config struct. A missing file
// yields an empty config.
func ReadConfig(dir, fileName string) (*Config, error) {
	cfg := &Config{dir: dir}

	configPath := path.Join(dir, fileName)

	data, err := ioutil.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return nil, errors.Wrapf(err, "could not read %s", configPath)
	}

	if len(data) == 0 {
		return cfg, nil
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "could not unmarshal %s", configPath)
	}

	return cfg, nil
}

// Exists determines if a config file exists yet
func Exists(dir, fileName string) bool {
	if _, err := os.Stat(path.Join(dir, fileName)); os.IsNotExist(err) {
		return false
	}

	return true
}

// WriteConfig writes data into dir/fileName, replacing any previous content
func WriteConfig(dir, fileName string, data []byte) error {
	configPath := path.Join(dir, fileName)

	f, err := os.OpenFile(configPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", configPath)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return errors.Wrapf(err, "unable to write %s", configPath)
	}

	return nil
}

// defaultDir returns a directory where the config will be stored
func defaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to locate user's home directory")
	}

	return path.Join(homeDir, DefaultDirName), nil
}
