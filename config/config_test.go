package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadConfig(t *testing.T) {
	conf := DefaultConfig()
	conf.History.File = "test.db"
	conf.History.Password = "test-password"
	conf.Platforms = []PlatformConfig{{Name: "vk", AccessToken: "tok"}}

	key := make([]byte, 32) // a dummy key
	filename := filepath.Join(t.TempDir(), "config.enc")
	if err := SaveConfig(filename, key, &conf); err != nil {
		t.Fatalf("save: %v", err)
	}

	conf2, err := LoadConfig(filename, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if conf2.History.File != conf.History.File || conf2.History.Password != conf.History.Password {
		t.Fatalf("round trip changed history config: got %+v", conf2.History)
	}
	if len(conf2.Platforms) != 1 || conf2.Platforms[0].AccessToken != "tok" {
		t.Fatalf("round trip changed platforms: got %+v", conf2.Platforms)
	}
}

func TestLoadConfigPlaintextWithoutKey(t *testing.T) {
	conf := DefaultConfig()
	filename := filepath.Join(t.TempDir(), "config.yaml")
	if err := SaveConfig(filename, nil, &conf); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := LoadConfig(filename, nil); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadEncryptedRejectsCorruptedFile(t *testing.T) {
	conf := DefaultConfig()
	filename := filepath.Join(t.TempDir(), "config.yaml")
	if err := SaveConfig(filename, nil, &conf); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF
	if err := os.WriteFile(filename, raw, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadConfig(filename, nil); err == nil {
		t.Fatalf("expected integrity hash mismatch error, got nil")
	}
}

func TestPlatformLookup(t *testing.T) {
	conf := DefaultConfig()
	conf.Platforms = []PlatformConfig{{Name: "rutube", AccessToken: "a"}}

	if _, ok := conf.Platform("vk"); ok {
		t.Fatalf("expected vk to be absent")
	}
	p, ok := conf.Platform("rutube")
	if !ok || p.AccessToken != "a" {
		t.Fatalf("unexpected lookup result: %+v, %v", p, ok)
	}
}
