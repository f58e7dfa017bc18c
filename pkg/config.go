package dupfind

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-ini/ini"
)

// DefaultConfigPath is where the command looks for its config when none is given.
func DefaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dupfind", "config")
	}
	return ".dupfind.conf"
}

// Config represents the dupfind configuration
type Config struct {
	configPath string
	ini        *ini.File
}

// HashConfig represents hash algorithm configuration
type HashConfig struct {
	Default string // Default hash algorithm
}

// OutputConfig represents output format configuration
type OutputConfig struct {
	Format string // human, json or fdupes
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int    // 0=warnings, 1=info, 2=debug, 3=trace
	Debug string // comma-separated debug flags
}

// SymlinkConfig represents symlink handling configuration
type SymlinkConfig struct {
	Mode string // none, files, contained, all
}

// PerformanceConfig represents performance-related configuration
type PerformanceConfig struct {
	HashWorkers int    // Number of concurrent hash workers (default: 1)
	HashBuffer  string // Read chunk size, humanized (default: "4KiB")
}

// ScanConfig controls which files are considered
type ScanConfig struct {
	MinSize string   // smallest file size considered, humanized
	Ignore  []string // regular expressions on root-relative paths
}

// TrashConfig controls where redundant copies go and which copy stays
type TrashConfig struct {
	Dir  string // trash directory, or "system" for the desktop trash
	Keep string // first, last, shortest, longest
}

// AllConfig represents all configuration options
type AllConfig struct {
	Hash        *HashConfig
	Output      *OutputConfig
	Verbose     *VerboseConfig
	Symlink     *SymlinkConfig
	Performance *PerformanceConfig
	Scan        *ScanConfig
	Trash       *TrashConfig
}

// LoadConfig loads configuration from path. A missing file yields the defaults
// in memory; nothing is written.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		configPath: path,
	}

	iniFile, err := ini.Load(path)
	switch {
	case err == nil:
		cfg.ini = iniFile
	case errors.Is(err, fs.ErrNotExist):
		cfg.ini = ini.Empty()
		if err := cfg.setDefaults(); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	return cfg, nil
}

// InitConfig writes a config file holding the defaults. An existing file is
// left untouched and reported as an error.
func InitConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("config file already exists: %s", path)
	}

	cfg := &Config{configPath: path, ini: ini.Empty()}
	if err := cfg.setDefaults(); err != nil {
		return nil, fmt.Errorf("failed to set default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}
	return cfg, nil
}

// Path returns the file this config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() error {
	defaults := []struct {
		section, key, value string
	}{
		{"filehash", "default", DefaultHashAlgorithm},
		{"performance", "hash_workers", fmt.Sprintf("%d", DefaultHashWorkers)},
		{"performance", "hash_buffer", humanize.IBytes(DefaultBufferSize)},
		{"symlink", "mode", string(SymlinkFiles)},
		{"output", "format", "human"},
		{"verbose", "level", "0"},
		{"verbose", "debug", ""},
		{"scan", "min_size", "0"},
		{"scan", "ignore", ""},
		{"trash", "trash_dir", SystemTrash},
		{"trash", "keep", string(KeepFirst)},
	}

	for _, d := range defaults {
		section := c.ini.Section(d.section)
		if _, err := section.NewKey(d.key, d.value); err != nil {
			return fmt.Errorf("failed to set default %s.%s: %w", d.section, d.key, err)
		}
	}
	return nil
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	hashConfig := &HashConfig{
		Default: DefaultHashAlgorithm,
	}

	if c.ini.HasSection("filehash") {
		section := c.ini.Section("filehash")
		if section.HasKey("default") {
			hashConfig.Default = section.Key("default").String()
		}
	}

	return hashConfig
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	outputConfig := &OutputConfig{
		Format: "human",
	}

	if c.ini.HasSection("output") {
		section := c.ini.Section("output")
		if section.HasKey("format") {
			outputConfig.Format = section.Key("format").String()
		}
	}

	return outputConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{}

	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
		if section.HasKey("debug") {
			verboseConfig.Debug = section.Key("debug").String()
		}
	}

	return verboseConfig
}

// GetSymlinkConfig returns the symlink configuration
func (c *Config) GetSymlinkConfig() *SymlinkConfig {
	symlinkConfig := &SymlinkConfig{
		Mode: string(SymlinkFiles),
	}

	if c.ini.HasSection("symlink") {
		section := c.ini.Section("symlink")
		if section.HasKey("mode") {
			symlinkConfig.Mode = section.Key("mode").String()
		}
	}

	return symlinkConfig
}

// GetPerformanceConfig returns the performance configuration
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	performanceConfig := &PerformanceConfig{
		HashWorkers: DefaultHashWorkers,
		HashBuffer:  humanize.IBytes(DefaultBufferSize),
	}

	if c.ini.HasSection("performance") {
		section := c.ini.Section("performance")
		if section.HasKey("hash_workers") {
			if workers, err := section.Key("hash_workers").Int(); err == nil {
				performanceConfig.HashWorkers = workers
			}
		}
		if section.HasKey("hash_buffer") {
			if bufferSize := section.Key("hash_buffer").String(); bufferSize != "" {
				performanceConfig.HashBuffer = bufferSize
			}
		}
	}

	return performanceConfig
}

// GetScanConfig returns the scan filter configuration
func (c *Config) GetScanConfig() *ScanConfig {
	scanConfig := &ScanConfig{
		MinSize: "0",
	}

	if c.ini.HasSection("scan") {
		section := c.ini.Section("scan")
		if section.HasKey("min_size") {
			if minSize := section.Key("min_size").String(); minSize != "" {
				scanConfig.MinSize = minSize
			}
		}
		if section.HasKey("ignore") {
			for _, pattern := range section.Key("ignore").Strings(",") {
				if pattern != "" {
					scanConfig.Ignore = append(scanConfig.Ignore, pattern)
				}
			}
		}
	}

	return scanConfig
}

// GetTrashConfig returns the trash configuration
func (c *Config) GetTrashConfig() *TrashConfig {
	trashConfig := &TrashConfig{
		Dir:  SystemTrash,
		Keep: string(KeepFirst),
	}

	if c.ini.HasSection("trash") {
		section := c.ini.Section("trash")
		if section.HasKey("trash_dir") {
			if dir := section.Key("trash_dir").String(); dir != "" {
				trashConfig.Dir = dir
			}
		}
		if section.HasKey("keep") {
			trashConfig.Keep = section.Key("keep").String()
		}
	}

	return trashConfig
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Hash:        c.GetHashConfig(),
		Output:      c.GetOutputConfig(),
		Verbose:     c.GetVerboseConfig(),
		Symlink:     c.GetSymlinkConfig(),
		Performance: c.GetPerformanceConfig(),
		Scan:        c.GetScanConfig(),
		Trash:       c.GetTrashConfig(),
	}
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	return c.ini.SaveTo(c.configPath)
}

// WriteTo renders the configuration in INI form.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	return c.ini.WriteTo(w)
}

// overrideKeys maps override keys onto their section
var overrideKeys = map[string]string{
	"default":      "filehash",
	"format":       "output",
	"level":        "verbose",
	"debug":        "verbose",
	"mode":         "symlink",
	"hash_workers": "performance",
	"hash_buffer":  "performance",
	"min_size":     "scan",
	"ignore":       "scan",
	"trash_dir":    "trash",
	"keep":         "trash",
}

// ApplyOverrides applies command-line overrides to the configuration
// Accepts strings like "default:sha256", "format:json", "level:2", "debug:walk"
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		sectionName, ok := overrideKeys[key]
		if !ok {
			return fmt.Errorf("unsupported override key '%s' (supported: default, format, level, debug, mode, hash_workers, hash_buffer, min_size, ignore, trash_dir, keep)", key)
		}
		c.ini.Section(sectionName).Key(key).SetValue(value)
	}

	return nil
}

// integerKeys must parse as integers when present
var integerKeys = []struct{ section, key string }{
	{"verbose", "level"},
	{"performance", "hash_workers"},
}

// Validate checks every value in the configuration.
func (c *Config) Validate() error {
	for _, k := range integerKeys {
		if !c.ini.HasSection(k.section) || !c.ini.Section(k.section).HasKey(k.key) {
			continue
		}
		key := c.ini.Section(k.section).Key(k.key)
		if key.String() == "" {
			continue
		}
		if _, err := key.Int(); err != nil {
			return fmt.Errorf("invalid %s %q: must be an integer", k.key, key.String())
		}
	}

	all := c.GetAllConfig()

	if err := ValidateHashAlgorithm(all.Hash.Default); err != nil {
		return err
	}
	if err := ValidateOutputFormat(all.Output.Format); err != nil {
		return err
	}
	if err := ValidateVerboseLevel(all.Verbose.Level); err != nil {
		return err
	}
	if err := ValidateSymlinkMode(all.Symlink.Mode); err != nil {
		return err
	}
	if err := ValidateHashWorkers(all.Performance.HashWorkers); err != nil {
		return err
	}
	if _, err := ParseBufferSize(all.Performance.HashBuffer); err != nil {
		return err
	}
	if _, err := ParseSize(all.Scan.MinSize); err != nil {
		return err
	}
	if _, err := NewIgnoreList(all.Scan.Ignore); err != nil {
		return err
	}
	if _, err := ParseKeepPolicy(all.Trash.Keep); err != nil {
		return err
	}
	return nil
}

// ScanOptions builds scanner options from the configuration.
func (c *Config) ScanOptions() (Options, error) {
	if err := c.Validate(); err != nil {
		return Options{}, err
	}
	all := c.GetAllConfig()

	opts := DefaultOptions()
	opts.Algorithm = strings.ToLower(all.Hash.Default)
	opts.Workers = all.Performance.HashWorkers
	opts.BufferSize, _ = ParseBufferSize(all.Performance.HashBuffer)
	opts.Symlinks, _ = ParseSymlinkMode(all.Symlink.Mode)
	opts.MinSize, _ = ParseSize(all.Scan.MinSize)
	opts.Ignore, _ = NewIgnoreList(all.Scan.Ignore)
	return opts, nil
}

// ParseSize parses a humanized byte count such as "64KiB" or "1M".
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("size %q too large", s)
	}
	return int64(n), nil
}

// ParseBufferSize parses a hash buffer size, which must be at least 512 bytes
// and no more than 64MiB.
func ParseBufferSize(s string) (int, error) {
	n, err := ParseSize(s)
	if err != nil {
		return 0, err
	}
	if n < 512 || n > 64<<20 {
		return 0, fmt.Errorf("hash buffer %s out of range (512B-64MiB)", s)
	}
	return int(n), nil
}

// ValidateHashAlgorithm validates that a hash algorithm is supported
func ValidateHashAlgorithm(algorithm string) error {
	switch strings.ToLower(algorithm) {
	case "md5", "sha1", "sha256", "sha512":
		return nil
	default:
		return fmt.Errorf("unsupported hash algorithm: %s (supported: md5, sha1, sha256, sha512)", algorithm)
	}
}

// ValidateOutputFormat validates that an output format is supported
func ValidateOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case "human", "json", "fdupes":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (supported: human, json, fdupes)", format)
	}
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}

// ValidateSymlinkMode validates that a symlink mode is supported
func ValidateSymlinkMode(mode string) error {
	switch strings.ToLower(mode) {
	case "none", "files", "contained", "all":
		return nil
	default:
		return fmt.Errorf("unsupported symlink mode: %s (supported: none, files, contained, all)", mode)
	}
}

// ValidateHashWorkers validates that the hash worker count is reasonable
func ValidateHashWorkers(workers int) error {
	if workers < 1 {
		return fmt.Errorf("hash workers must be at least 1, got: %d", workers)
	}
	if workers > MaxHashWorkers {
		return fmt.Errorf("hash workers should not exceed %d, got: %d", MaxHashWorkers, workers)
	}
	return nil
}
