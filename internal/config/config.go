// Package config implements xvc's hierarchical configuration: defaults overridden by system,
// user, project, local-project, environment variable and command-line layers, in that order.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/xvc-dev/xvc/internal/xvcerr"
)

// TextOrBinary selects how file tracking decides whether to diff a file as text or binary.
type TextOrBinary string

const (
	Auto   TextOrBinary = "auto"
	Text   TextOrBinary = "text"
	Binary TextOrBinary = "binary"
)

// RecheckMethod selects how cached content is materialized into the workspace.
type RecheckMethod string

const (
	Copy     RecheckMethod = "copy"
	Hardlink RecheckMethod = "hardlink"
	Symlink  RecheckMethod = "symlink"
	Reflink  RecheckMethod = "reflink"
)

// Algorithm names a supported digest algorithm.
type Algorithm string

const (
	Blake3 Algorithm = "blake3"
	Blake2 Algorithm = "blake2"
	Sha2   Algorithm = "sha2"
	Sha3   Algorithm = "sha3"
)

// CoreConfig holds general behavior flags, mirroring
// original_source/config/src/configuration.rs's CoreConfig.
type CoreConfig struct {
	Verbosity string
	Quiet     bool
}

// GitConfig controls automatic git integration around tracked-file operations.
type GitConfig struct {
	UseGit     bool
	Command    string
	AutoCommit bool
	AutoStage  bool
}

// CacheConfig selects the digest algorithm used for content addressing.
type CacheConfig struct {
	Algorithm Algorithm
}

// FileTrackConfig holds defaults for `xvc file track`.
type FileTrackConfig struct {
	NoCommit        bool
	Force           bool
	TextOrBinary    TextOrBinary
	NoParallel      bool
	IncludeGitFiles bool
}

// FileListConfig holds defaults for `xvc file list`.
type FileListConfig struct {
	Format          string
	Sort            string
	ShowDotFiles    bool
	NoSummary       bool
	Recursive       bool
	IncludeGitFiles bool
}

// FileCarryInConfig holds defaults for `xvc file carry-in`.
type FileCarryInConfig struct {
	Force      bool
	NoParallel bool
}

// FileRecheckConfig holds defaults for `xvc file recheck`.
type FileRecheckConfig struct {
	Method RecheckMethod
}

// FileConfig groups the per-subcommand file defaults.
type FileConfig struct {
	Track   FileTrackConfig
	List    FileListConfig
	CarryIn FileCarryInConfig
	Recheck FileRecheckConfig
}

// PipelineConfig holds pipeline-wide defaults.
type PipelineConfig struct {
	CurrentPipeline         string
	Default                 string
	DefaultParamsFile       string
	ProcessPoolSize         int
	StepTimeoutSeconds      int
	ProcessPollMilliseconds int
	TerminateOnTimeout      bool
}

// CheckIgnoreConfig holds defaults for `xvc check-ignore`.
type CheckIgnoreConfig struct {
	Details bool
}

// Config is the fully-resolved, non-optional configuration used by every package. It mirrors
// the key list in spec.md section 6 exactly.
type Config struct {
	Core        CoreConfig
	Git         GitConfig
	Cache       CacheConfig
	File        FileConfig
	Pipeline    PipelineConfig
	CheckIgnore CheckIgnoreConfig
}

// Defaults returns the built-in configuration baseline, matching
// original_source/config/src/configuration.rs's initial_xvc_config template.
func Defaults() *Config {
	return &Config{
		Core: CoreConfig{Verbosity: "error", Quiet: false},
		Git:  GitConfig{UseGit: true, Command: "git", AutoCommit: true, AutoStage: false},
		Cache: CacheConfig{Algorithm: Blake3},
		File: FileConfig{
			Track: FileTrackConfig{
				NoCommit: false, Force: false, TextOrBinary: Auto,
				NoParallel: false, IncludeGitFiles: false,
			},
			List: FileListConfig{
				Format: "{{acd8}} {{size}} {{name}}", Sort: "name-desc",
				ShowDotFiles: false, NoSummary: false, Recursive: false, IncludeGitFiles: false,
			},
			CarryIn: FileCarryInConfig{Force: false, NoParallel: false},
			Recheck: FileRecheckConfig{Method: Copy},
		},
		Pipeline: PipelineConfig{
			CurrentPipeline: "default", Default: "default",
			DefaultParamsFile: "params.yaml", ProcessPoolSize: 4,
			StepTimeoutSeconds: 10000, ProcessPollMilliseconds: 10,
			TerminateOnTimeout: true,
		},
		CheckIgnore: CheckIgnoreConfig{Details: false},
	}
}

// Render produces the commented TOML template written by `xvc init`, matching the field
// ordering and key names of original_source/config/src/configuration.rs::initial_xvc_config.
func (c *Config) Render() string {
	var b strings.Builder
	b.WriteString("[core]\n")
	b.WriteString("# Default verbosity level. One of \"error\", \"warn\", \"info\", \"debug\", \"trace\"\n")
	b.WriteString("verbosity = \"" + c.Core.Verbosity + "\"\n")
	b.WriteString("# Suppress all output except errors\n")
	b.WriteString("quiet = " + strconv.FormatBool(c.Core.Quiet) + "\n\n")

	b.WriteString("[git]\n")
	b.WriteString("# Automate git operations\n")
	b.WriteString("use_git = " + strconv.FormatBool(c.Git.UseGit) + "\n")
	b.WriteString("command = \"" + c.Git.Command + "\"\n")
	b.WriteString("auto_commit = " + strconv.FormatBool(c.Git.AutoCommit) + "\n")
	b.WriteString("auto_stage = " + strconv.FormatBool(c.Git.AutoStage) + "\n\n")

	b.WriteString("[cache]\n")
	b.WriteString("# Algorithm used for content digests. One of \"blake3\", \"blake2\", \"sha2\", \"sha3\"\n")
	b.WriteString("algorithm = \"" + string(c.Cache.Algorithm) + "\"\n\n")

	b.WriteString("[file.track]\n")
	b.WriteString("no_commit = " + strconv.FormatBool(c.File.Track.NoCommit) + "\n")
	b.WriteString("force = " + strconv.FormatBool(c.File.Track.Force) + "\n")
	b.WriteString("text_or_binary = \"" + string(c.File.Track.TextOrBinary) + "\"\n")
	b.WriteString("no_parallel = " + strconv.FormatBool(c.File.Track.NoParallel) + "\n")
	b.WriteString("include_git_files = " + strconv.FormatBool(c.File.Track.IncludeGitFiles) + "\n\n")

	b.WriteString("[file.list]\n")
	b.WriteString("format = \"" + c.File.List.Format + "\"\n")
	b.WriteString("sort = \"" + c.File.List.Sort + "\"\n")
	b.WriteString("show_dot_files = " + strconv.FormatBool(c.File.List.ShowDotFiles) + "\n")
	b.WriteString("no_summary = " + strconv.FormatBool(c.File.List.NoSummary) + "\n")
	b.WriteString("recursive = " + strconv.FormatBool(c.File.List.Recursive) + "\n")
	b.WriteString("include_git_files = " + strconv.FormatBool(c.File.List.IncludeGitFiles) + "\n\n")

	b.WriteString("[file.carry-in]\n")
	b.WriteString("force = " + strconv.FormatBool(c.File.CarryIn.Force) + "\n")
	b.WriteString("no_parallel = " + strconv.FormatBool(c.File.CarryIn.NoParallel) + "\n\n")

	b.WriteString("[file.recheck]\n")
	b.WriteString("method = \"" + string(c.File.Recheck.Method) + "\"\n\n")

	b.WriteString("[pipeline]\n")
	b.WriteString("current_pipeline = \"" + c.Pipeline.CurrentPipeline + "\"\n")
	b.WriteString("default = \"" + c.Pipeline.Default + "\"\n")
	b.WriteString("default_params_file = \"" + c.Pipeline.DefaultParamsFile + "\"\n")
	b.WriteString("process_pool_size = " + strconv.Itoa(c.Pipeline.ProcessPoolSize) + "\n")
	b.WriteString("# Per-step command timeout, in seconds\n")
	b.WriteString("step_timeout_seconds = " + strconv.Itoa(c.Pipeline.StepTimeoutSeconds) + "\n")
	b.WriteString("# Interval steps poll a running process or dependency state at\n")
	b.WriteString("process_poll_milliseconds = " + strconv.Itoa(c.Pipeline.ProcessPollMilliseconds) + "\n")
	b.WriteString("terminate_on_timeout = " + strconv.FormatBool(c.Pipeline.TerminateOnTimeout) + "\n\n")

	b.WriteString("[check-ignore]\n")
	b.WriteString("details = " + strconv.FormatBool(c.CheckIgnore.Details) + "\n")
	return b.String()
}

// Option is a single `-c section.key=value` command-line override.
type Option struct {
	Key   string // e.g. "cache.algorithm"
	Value string
}

// Sources describes where each configuration layer should be read from, in ascending
// precedence. A zero Path means "not present"; Load skips it silently.
type Sources struct {
	SystemPath  string
	UserPath    string
	ProjectPath string   // <repo>/.xvc/config.toml
	LocalPath   string   // <repo>/.xvc/config.local.toml
	Environ     []string // os.Environ()-shaped, only XVC_-prefixed entries are used
	CLIOptions  []Option
}

// DefaultSources fills in the conventional system/user config paths and reads the project and
// local project configs relative to repoRoot, plus the current process environment.
func DefaultSources(repoRoot string, cliOptions []Option) Sources {
	s := Sources{
		ProjectPath: filepath.Join(repoRoot, ".xvc", "config.toml"),
		LocalPath:   filepath.Join(repoRoot, ".xvc", "config.local.toml"),
		Environ:     os.Environ(),
		CLIOptions:  cliOptions,
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		s.UserPath = filepath.Join(xdg, "xvc", "config.toml")
	} else if home, err := os.UserHomeDir(); err == nil {
		s.UserPath = filepath.Join(home, ".config", "xvc", "config.toml")
	}
	s.SystemPath = "/etc/xvc/config.toml"
	return s
}

// Load builds the final Config by merging defaults with each layer in Sources, lowest to
// highest precedence, exactly as described in spec.md section 6.
func Load(s Sources) (*Config, error) {
	cfg := Defaults()

	for _, path := range []string{s.SystemPath, s.UserPath, s.ProjectPath, s.LocalPath} {
		if path == "" {
			continue
		}
		opt, err := readOptionalLayer(path)
		if err != nil {
			return nil, err
		}
		if opt != nil {
			opt.mergeInto(cfg)
		}
	}

	if envOpt := optionalFromEnviron(s.Environ); envOpt != nil {
		envOpt.mergeInto(cfg)
	}

	for _, o := range s.CLIOptions {
		if err := applyCLIOption(cfg, o); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func readOptionalLayer(path string) (*optionalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, xvcerr.New(xvcerr.IO, "config.readLayer", path, err)
	}
	var opt optionalConfig
	if err := toml.Unmarshal(data, &opt); err != nil {
		return nil, xvcerr.New(xvcerr.Parse, "config.readLayer", path, err)
	}
	return &opt, nil
}
