// Package config loads and saves the application's on-disk
// configuration: default pipeline options, upload/download platform
// credentials, logger settings, and the job-history database location.
// The file itself is optionally encrypted with the ambient
// cryptography.Encrypt/Decrypt helpers (the same ones util.Logger uses
// for an encrypted log file), not with the pipeline's envelope format.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"rvs/cryptography"
	"rvs/pipeline"
	"rvs/util"
)

// PlatformConfig holds credentials for one upload/download backend.
// Name selects which backend they apply to ("vk" or "rutube").
type PlatformConfig struct {
	Name        string `yaml:"name"`
	AccessToken string `yaml:"access_token"`
	GroupID     string `yaml:"group_id,omitempty"`
}

// HistoryConfig controls the encrypted run-history log.
type HistoryConfig struct {
	File      string `yaml:"file"`
	Password  string `yaml:"password"`
	RowsLimit uint   `yaml:"rows_limit"`
}

// FullConfig is everything the CLI reads before running an encode,
// decode, upload, or download.
type FullConfig struct {
	Pipeline  pipeline.Options  `yaml:"pipeline"`
	Logger    util.LoggerInfo   `yaml:"logger"`
	History   HistoryConfig     `yaml:"history"`
	Platforms []PlatformConfig  `yaml:"platforms"`
}

// DefaultConfig returns a config with the pipeline's default options
// and a 10000-row history cap, everything else left for the user to
// fill in.
func DefaultConfig() FullConfig {
	return FullConfig{
		Pipeline: pipeline.DefaultOptions(),
		Logger: util.LoggerInfo{
			Filename:    "log.log",
			IsEncrypted: false,
			IsColored:   true,
			SaveTime:    true,
			Mode:        util.Error | util.Info,
		},
		History: HistoryConfig{File: "history.db", RowsLimit: 10000},
	}
}

// Platform looks up a configured platform by name ("vk" or "rutube").
func (c FullConfig) Platform(name string) (PlatformConfig, bool) {
	for _, p := range c.Platforms {
		if p.Name == name {
			return p, true
		}
	}
	return PlatformConfig{}, false
}

// LoadConfig reads and, if key is non-nil, decrypts the configuration
// at filename.
func LoadConfig(filename string, key []byte) (*FullConfig, error) {
	data, err := LoadEncrypted(filename, key)
	if err != nil {
		return nil, err
	}

	var conf FullConfig
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// SaveConfig serializes c to YAML and, if key is non-nil, encrypts it
// before writing to filename.
func SaveConfig(filename string, key []byte, c *FullConfig) error {
	data, err := yaml.Marshal(*c)
	if err != nil {
		return err
	}
	return SaveEncrypted(filename, key, data)
}

// LoadEncrypted reads filename and decrypts it under key if key has
// the right size; otherwise the file is assumed to be plaintext. The
// content is checked against the SHA-512 hash SaveEncrypted stored
// alongside it, independent of whatever authentication the encryption
// layer itself provides, so a corrupted plaintext file is caught too.
func LoadEncrypted(filename string, key []byte) ([]byte, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if len(key) == cryptography.SymKeySize {
		raw, err = cryptography.Decrypt(raw, key)
		if err != nil {
			return nil, err
		}
	}

	sep := bytes.IndexByte(raw, '\n')
	if sep < 0 {
		return nil, fmt.Errorf("config: missing integrity hash header")
	}
	hash := string(raw[:sep])
	data := raw[sep+1:]
	if !cryptography.VerifyHash(data, hash) {
		return nil, fmt.Errorf("config: integrity hash mismatch, file may be corrupted")
	}
	return data, nil
}

// SaveEncrypted writes data to filename, prefixed with its SHA-512
// hash so LoadEncrypted can detect corruption, then encrypts the
// whole thing under key first if key has the right size.
func SaveEncrypted(filename string, key, data []byte) error {
	framed := append([]byte(cryptography.Hash(data)+"\n"), data...)

	var err error
	out := framed
	if len(key) == cryptography.SymKeySize {
		out, err = cryptography.Encrypt(framed, key)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(filename, out, 0600)
}

// DeriveConfigKey derives the key LoadConfig/SaveConfig expect from a
// password, using the same "<base64-salt>:<password>" format
// util.Logger reads for an encrypted log file.
func DeriveConfigKey(passwordAndSalt string) ([]byte, error) {
	password, salt, err := cryptography.SplitWithSalt(passwordAndSalt)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cryptography.DeriveKey(password, salt), nil
}
