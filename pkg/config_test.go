package dupfind

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config")

	// Missing file falls back to defaults
	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	all := config.GetAllConfig()
	if all.Hash.Default != "md5" {
		t.Errorf("Expected default hash algorithm 'md5', got '%s'", all.Hash.Default)
	}
	if all.Performance.HashWorkers != 1 {
		t.Errorf("Expected 1 hash worker, got %d", all.Performance.HashWorkers)
	}
	if all.Symlink.Mode != "files" {
		t.Errorf("Expected symlink mode 'files', got '%s'", all.Symlink.Mode)
	}
	if all.Output.Format != "human" {
		t.Errorf("Expected output format 'human', got '%s'", all.Output.Format)
	}
	if len(all.Scan.Ignore) != 0 {
		t.Errorf("Expected no ignore patterns, got %v", all.Scan.Ignore)
	}

	// Config file must not be created
	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		t.Error("Config file was created by LoadConfig")
	}

	opts, err := config.ScanOptions()
	if err != nil {
		t.Fatalf("ScanOptions failed: %v", err)
	}
	if opts.BufferSize != DefaultBufferSize {
		t.Errorf("Expected buffer %d, got %d", DefaultBufferSize, opts.BufferSize)
	}
	if opts.Algorithm != "md5" || opts.Workers != 1 || opts.Symlinks != SymlinkFiles || opts.MinSize != 0 {
		t.Errorf("Unexpected default options: %+v", opts)
	}
}

func TestInitConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config")

	if _, err := InitConfig(configPath); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Config file not written: %v", err)
	}
	for _, want := range []string{"[filehash]", "[performance]", "hash_buffer", "[scan]", "min_size"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Config file missing %q:\n%s", want, data)
		}
	}

	if _, err := InitConfig(configPath); err == nil {
		t.Error("Expected error when config already exists")
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Written defaults do not validate: %v", err)
	}
}

func TestConfigFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config")
	content := `[filehash]
default = sha256

[performance]
hash_workers = 4
hash_buffer = 64KiB

[symlink]
mode = none

[scan]
min_size = 1k
ignore = \.git$, ^node_modules$
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	opts, err := config.ScanOptions()
	if err != nil {
		t.Fatalf("ScanOptions failed: %v", err)
	}
	if opts.Algorithm != "sha256" {
		t.Errorf("Expected sha256, got %s", opts.Algorithm)
	}
	if opts.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", opts.Workers)
	}
	if opts.BufferSize != 64*1024 {
		t.Errorf("Expected 65536 byte buffer, got %d", opts.BufferSize)
	}
	if opts.Symlinks != SymlinkNone {
		t.Errorf("Expected symlink mode none, got %s", opts.Symlinks)
	}
	if opts.MinSize != 1000 {
		t.Errorf("Expected min size 1000, got %d", opts.MinSize)
	}
	if opts.Ignore.Len() != 2 {
		t.Errorf("Expected 2 ignore patterns, got %v", opts.Ignore.Patterns())
	}
	if !opts.Ignore.ShouldIgnore("src/.git") || !opts.Ignore.ShouldIgnore("node_modules") {
		t.Error("Ignore patterns not applied")
	}
}

func TestConfigOverrides(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "config"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	err = config.ApplyOverrides([]string{
		"default:sha1",
		"format:json",
		"level:2",
		"debug:walk,hash",
		"hash_workers:8",
		"hash_buffer:1MiB",
		"mode:contained",
		"min_size:10",
	})
	if err != nil {
		t.Fatalf("Failed to apply overrides: %v", err)
	}

	allConfig := config.GetAllConfig()

	if allConfig.Hash.Default != "sha1" {
		t.Errorf("Expected hash algorithm 'sha1' after override, got '%s'", allConfig.Hash.Default)
	}
	if allConfig.Output.Format != "json" {
		t.Errorf("Expected output format 'json' after override, got '%s'", allConfig.Output.Format)
	}
	if allConfig.Verbose.Level != 2 {
		t.Errorf("Expected verbose level 2 after override, got %d", allConfig.Verbose.Level)
	}
	if allConfig.Verbose.Debug != "walk,hash" {
		t.Errorf("Expected debug flags 'walk,hash' after override, got '%s'", allConfig.Verbose.Debug)
	}
	if allConfig.Performance.HashWorkers != 8 {
		t.Errorf("Expected 8 hash workers after override, got %d", allConfig.Performance.HashWorkers)
	}
	if allConfig.Symlink.Mode != "contained" {
		t.Errorf("Expected symlink mode 'contained' after override, got '%s'", allConfig.Symlink.Mode)
	}

	opts, err := config.ScanOptions()
	if err != nil {
		t.Fatalf("ScanOptions failed: %v", err)
	}
	if opts.BufferSize != 1<<20 || opts.MinSize != 10 {
		t.Errorf("Unexpected options after override: %+v", opts)
	}
}

func TestConfigOverrideErrors(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "config"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	for _, override := range []string{"no-colon", "colour:blue"} {
		if err := config.ApplyOverrides([]string{override}); err == nil {
			t.Errorf("Expected error for override %q", override)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		override string
		valid    bool
	}{
		{"default:sha512", true},
		{"default:crc32", false},
		{"format:fdupes", true},
		{"format:xml", false},
		{"level:3", true},
		{"level:9", false},
		{"mode:sometimes", false},
		{"hash_workers:0", false},
		{"hash_workers:65", false},
		{"hash_buffer:16", false},
		{"hash_buffer:lots", false},
		{"min_size:-5", false},
		{"ignore:[unclosed", false},
		{"hash_workers:abc", false},
		{"level:loud", false},
		{"keep:shortest", true},
		{"keep:newest", false},
		{"trash_dir:/tmp/trash", true},
	}

	for _, tc := range testCases {
		config, err := LoadConfig(filepath.Join(t.TempDir(), "config"))
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if err := config.ApplyOverrides([]string{tc.override}); err != nil {
			t.Fatalf("ApplyOverrides(%q) failed: %v", tc.override, err)
		}

		err = config.Validate()
		if tc.valid && err != nil {
			t.Errorf("Expected %q to be valid, got error: %v", tc.override, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("Expected %q to be invalid", tc.override)
		}
	}
}

func TestConfigRejectsNonIntegerValues(t *testing.T) {
	testCases := []struct {
		content string
		want    string
	}{
		{"[performance]\nhash_workers = abc\n", "hash_workers"},
		{"[verbose]\nlevel = loud\n", "level"},
	}

	for _, tc := range testCases {
		configPath := filepath.Join(t.TempDir(), "config")
		if err := os.WriteFile(configPath, []byte(tc.content), 0644); err != nil {
			t.Fatal(err)
		}
		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}

		err = config.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("Expected error naming %s, got %v", tc.want, err)
		}
		if _, err := config.ScanOptions(); err == nil {
			t.Errorf("ScanOptions accepted %q", tc.content)
		}
	}
}

func TestConfigTrashDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "config"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	trash := config.GetTrashConfig()
	if trash.Dir != SystemTrash || trash.Keep != "first" {
		t.Errorf("Unexpected trash defaults: %+v", trash)
	}

	if err := config.ApplyOverrides([]string{"trash_dir:/tmp/t", "keep:last"}); err != nil {
		t.Fatalf("Failed to apply overrides: %v", err)
	}
	trash = config.GetTrashConfig()
	if trash.Dir != "/tmp/t" || trash.Keep != "last" {
		t.Errorf("Unexpected trash config after override: %+v", trash)
	}
}

func TestConfigWriteTo(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "config"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	var buf bytes.Buffer
	if _, err := config.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if !strings.Contains(buf.String(), "default") || !strings.Contains(buf.String(), "md5") {
		t.Errorf("Unexpected rendering:\n%s", buf.String())
	}
}

func TestHashAlgorithmValidation(t *testing.T) {
	testCases := []struct {
		algorithm string
		valid     bool
	}{
		{"md5", true},
		{"sha1", true},
		{"sha256", true},
		{"sha512", true},
		{"SHA1", true},   // case insensitive
		{"SHA256", true}, // case insensitive
		{"crc32", false},
		{"invalid", false},
		{"", false},
	}

	for _, tc := range testCases {
		err := ValidateHashAlgorithm(tc.algorithm)
		if tc.valid && err != nil {
			t.Errorf("Expected %s to be valid, got error: %v", tc.algorithm, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("Expected %s to be invalid, but got no error", tc.algorithm)
		}
	}
}

func TestParseBufferSize(t *testing.T) {
	testCases := []struct {
		input    string
		expected int
		valid    bool
	}{
		{"4KiB", 4096, true},
		{"4 KiB", 4096, true},
		{"4k", 4000, true},
		{"1MiB", 1 << 20, true},
		{"512", 512, true},
		{"511", 0, false},
		{"65MiB", 0, false},
		{"", 0, false},
	}

	for _, tc := range testCases {
		got, err := ParseBufferSize(tc.input)
		if tc.valid && err != nil {
			t.Errorf("ParseBufferSize(%q) unexpected error: %v", tc.input, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("ParseBufferSize(%q) expected error", tc.input)
		}
		if got != tc.expected {
			t.Errorf("ParseBufferSize(%q) = %d, expected %d", tc.input, got, tc.expected)
		}
	}
}
