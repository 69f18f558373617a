package config

import (
	"fmt"
	"strconv"
	"strings"
)

// optionalConfig mirrors Config but with every leaf a pointer, following the pattern of
// original_source/config/src/configuration.rs's XvcOptionalConfiguration: a layer only sets
// the fields present in its TOML document, and mergeInto copies only the non-nil ones.
type optionalConfig struct {
	Core        *optionalCore        `toml:"core"`
	Git         *optionalGit         `toml:"git"`
	Cache       *optionalCache       `toml:"cache"`
	File        *optionalFile        `toml:"file"`
	Pipeline    *optionalPipeline    `toml:"pipeline"`
	CheckIgnore *optionalCheckIgnore `toml:"check-ignore"`
}

type optionalCore struct {
	Verbosity *string `toml:"verbosity"`
	Quiet     *bool   `toml:"quiet"`
}

type optionalGit struct {
	UseGit     *bool   `toml:"use_git"`
	Command    *string `toml:"command"`
	AutoCommit *bool   `toml:"auto_commit"`
	AutoStage  *bool   `toml:"auto_stage"`
}

type optionalCache struct {
	Algorithm *string `toml:"algorithm"`
}

type optionalFileTrack struct {
	NoCommit        *bool   `toml:"no_commit"`
	Force           *bool   `toml:"force"`
	TextOrBinary    *string `toml:"text_or_binary"`
	NoParallel      *bool   `toml:"no_parallel"`
	IncludeGitFiles *bool   `toml:"include_git_files"`
}

type optionalFileList struct {
	Format          *string `toml:"format"`
	Sort            *string `toml:"sort"`
	ShowDotFiles    *bool   `toml:"show_dot_files"`
	NoSummary       *bool   `toml:"no_summary"`
	Recursive       *bool   `toml:"recursive"`
	IncludeGitFiles *bool   `toml:"include_git_files"`
}

type optionalFileCarryIn struct {
	Force      *bool `toml:"force"`
	NoParallel *bool `toml:"no_parallel"`
}

type optionalFileRecheck struct {
	Method *string `toml:"method"`
}

type optionalFile struct {
	Track   *optionalFileTrack   `toml:"track"`
	List    *optionalFileList    `toml:"list"`
	CarryIn *optionalFileCarryIn `toml:"carry-in"`
	Recheck *optionalFileRecheck `toml:"recheck"`
}

type optionalPipeline struct {
	CurrentPipeline   *string `toml:"current_pipeline"`
	Default           *string `toml:"default"`
	DefaultParamsFile *string `toml:"default_params_file"`
	ProcessPoolSize   *int    `toml:"process_pool_size"`

	StepTimeoutSeconds      *int  `toml:"step_timeout_seconds"`
	ProcessPollMilliseconds *int  `toml:"process_poll_milliseconds"`
	TerminateOnTimeout      *bool `toml:"terminate_on_timeout"`
}

type optionalCheckIgnore struct {
	Details *bool `toml:"details"`
}

func (o *optionalConfig) mergeInto(c *Config) {
	if o == nil {
		return
	}
	if core := o.Core; core != nil {
		if core.Verbosity != nil {
			c.Core.Verbosity = *core.Verbosity
		}
		if core.Quiet != nil {
			c.Core.Quiet = *core.Quiet
		}
	}
	if git := o.Git; git != nil {
		if git.UseGit != nil {
			c.Git.UseGit = *git.UseGit
		}
		if git.Command != nil {
			c.Git.Command = *git.Command
		}
		if git.AutoCommit != nil {
			c.Git.AutoCommit = *git.AutoCommit
		}
		if git.AutoStage != nil {
			c.Git.AutoStage = *git.AutoStage
		}
	}
	if cache := o.Cache; cache != nil && cache.Algorithm != nil {
		c.Cache.Algorithm = Algorithm(*cache.Algorithm)
	}
	if f := o.File; f != nil {
		if t := f.Track; t != nil {
			if t.NoCommit != nil {
				c.File.Track.NoCommit = *t.NoCommit
			}
			if t.Force != nil {
				c.File.Track.Force = *t.Force
			}
			if t.TextOrBinary != nil {
				c.File.Track.TextOrBinary = TextOrBinary(*t.TextOrBinary)
			}
			if t.NoParallel != nil {
				c.File.Track.NoParallel = *t.NoParallel
			}
			if t.IncludeGitFiles != nil {
				c.File.Track.IncludeGitFiles = *t.IncludeGitFiles
			}
		}
		if l := f.List; l != nil {
			if l.Format != nil {
				c.File.List.Format = *l.Format
			}
			if l.Sort != nil {
				c.File.List.Sort = *l.Sort
			}
			if l.ShowDotFiles != nil {
				c.File.List.ShowDotFiles = *l.ShowDotFiles
			}
			if l.NoSummary != nil {
				c.File.List.NoSummary = *l.NoSummary
			}
			if l.Recursive != nil {
				c.File.List.Recursive = *l.Recursive
			}
			if l.IncludeGitFiles != nil {
				c.File.List.IncludeGitFiles = *l.IncludeGitFiles
			}
		}
		if ci := f.CarryIn; ci != nil {
			if ci.Force != nil {
				c.File.CarryIn.Force = *ci.Force
			}
			if ci.NoParallel != nil {
				c.File.CarryIn.NoParallel = *ci.NoParallel
			}
		}
		if r := f.Recheck; r != nil && r.Method != nil {
			c.File.Recheck.Method = RecheckMethod(*r.Method)
		}
	}
	if p := o.Pipeline; p != nil {
		if p.CurrentPipeline != nil {
			c.Pipeline.CurrentPipeline = *p.CurrentPipeline
		}
		if p.Default != nil {
			c.Pipeline.Default = *p.Default
		}
		if p.DefaultParamsFile != nil {
			c.Pipeline.DefaultParamsFile = *p.DefaultParamsFile
		}
		if p.ProcessPoolSize != nil {
			c.Pipeline.ProcessPoolSize = *p.ProcessPoolSize
		}
		if p.StepTimeoutSeconds != nil {
			c.Pipeline.StepTimeoutSeconds = *p.StepTimeoutSeconds
		}
		if p.ProcessPollMilliseconds != nil {
			c.Pipeline.ProcessPollMilliseconds = *p.ProcessPollMilliseconds
		}
		if p.TerminateOnTimeout != nil {
			c.Pipeline.TerminateOnTimeout = *p.TerminateOnTimeout
		}
	}
	if ci := o.CheckIgnore; ci != nil && ci.Details != nil {
		c.CheckIgnore.Details = *ci.Details
	}
}

// optionalFromEnviron scans an os.Environ()-shaped slice for XVC_-prefixed variables and
// builds an optionalConfig from them, translating XVC_SECTION_SUBSECTION_KEY into
// section.subsection.key the way spec.md section 6 describes ("dots replaced by _").
func optionalFromEnviron(environ []string) *optionalConfig {
	var opt optionalConfig
	found := false
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, "XVC_") {
			continue
		}
		dotted := envKeyToDotted(k)
		if dotted == "" {
			continue
		}
		if err := applyDottedValue(&opt, dotted, v); err == nil {
			found = true
		}
	}
	if !found {
		return nil
	}
	return &opt
}

// envKeyToDotted maps e.g. XVC_CACHE_ALGORITHM -> cache.algorithm and
// XVC_FILE_CARRY_IN_FORCE -> file.carry-in.force using the known section/subsection vocabulary,
// since the underscore-for-dot translation is ambiguous without it (carry-in itself contains a
// hyphen, and several keys contain underscores of their own).
func envKeyToDotted(key string) string {
	rest := strings.ToLower(strings.TrimPrefix(key, "XVC_"))
	for _, known := range knownEnvKeys {
		if rest == known.env {
			return known.dotted
		}
	}
	return ""
}

var knownEnvKeys = []struct{ env, dotted string }{
	{"core_verbosity", "core.verbosity"},
	{"core_quiet", "core.quiet"},
	{"git_use_git", "git.use_git"},
	{"git_command", "git.command"},
	{"git_auto_commit", "git.auto_commit"},
	{"git_auto_stage", "git.auto_stage"},
	{"cache_algorithm", "cache.algorithm"},
	{"file_track_no_commit", "file.track.no_commit"},
	{"file_track_force", "file.track.force"},
	{"file_track_text_or_binary", "file.track.text_or_binary"},
	{"file_track_no_parallel", "file.track.no_parallel"},
	{"file_track_include_git_files", "file.track.include_git_files"},
	{"file_list_format", "file.list.format"},
	{"file_list_sort", "file.list.sort"},
	{"file_list_show_dot_files", "file.list.show_dot_files"},
	{"file_list_no_summary", "file.list.no_summary"},
	{"file_list_recursive", "file.list.recursive"},
	{"file_list_include_git_files", "file.list.include_git_files"},
	{"file_carry_in_force", "file.carry-in.force"},
	{"file_carry_in_no_parallel", "file.carry-in.no_parallel"},
	{"file_recheck_method", "file.recheck.method"},
	{"pipeline_current_pipeline", "pipeline.current_pipeline"},
	{"pipeline_default", "pipeline.default"},
	{"pipeline_default_params_file", "pipeline.default_params_file"},
	{"pipeline_process_pool_size", "pipeline.process_pool_size"},
	{"check_ignore_details", "check-ignore.details"},
}

// applyCLIOption applies a single `-c section.key=value` override directly onto the resolved
// Config, the highest-precedence layer.
func applyCLIOption(c *Config, o Option) error {
	var opt optionalConfig
	if err := applyDottedValue(&opt, o.Key, o.Value); err != nil {
		return err
	}
	opt.mergeInto(c)
	return nil
}

// applyDottedValue sets the single field named by a dotted key ("cache.algorithm") on an
// optionalConfig, parsing value according to the field's static type.
func applyDottedValue(opt *optionalConfig, dotted string, value string) error {
	switch dotted {
	case "core.verbosity":
		ensureCore(opt).Verbosity = &value
	case "core.quiet":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureCore(opt).Quiet = &b
	case "git.use_git":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureGit(opt).UseGit = &b
	case "git.command":
		ensureGit(opt).Command = &value
	case "git.auto_commit":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureGit(opt).AutoCommit = &b
	case "git.auto_stage":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureGit(opt).AutoStage = &b
	case "cache.algorithm":
		ensureCache(opt).Algorithm = &value
	case "file.track.no_commit":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureFileTrack(opt).NoCommit = &b
	case "file.track.force":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureFileTrack(opt).Force = &b
	case "file.track.text_or_binary":
		ensureFileTrack(opt).TextOrBinary = &value
	case "file.track.no_parallel":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureFileTrack(opt).NoParallel = &b
	case "file.track.include_git_files":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureFileTrack(opt).IncludeGitFiles = &b
	case "file.list.format":
		ensureFileList(opt).Format = &value
	case "file.list.sort":
		ensureFileList(opt).Sort = &value
	case "file.list.show_dot_files":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureFileList(opt).ShowDotFiles = &b
	case "file.list.no_summary":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureFileList(opt).NoSummary = &b
	case "file.list.recursive":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureFileList(opt).Recursive = &b
	case "file.list.include_git_files":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureFileList(opt).IncludeGitFiles = &b
	case "file.carry-in.force":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureFileCarryIn(opt).Force = &b
	case "file.carry-in.no_parallel":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureFileCarryIn(opt).NoParallel = &b
	case "file.recheck.method":
		ensureFileRecheck(opt).Method = &value
	case "pipeline.current_pipeline":
		ensurePipeline(opt).CurrentPipeline = &value
	case "pipeline.default":
		ensurePipeline(opt).Default = &value
	case "pipeline.default_params_file":
		ensurePipeline(opt).DefaultParamsFile = &value
	case "pipeline.process_pool_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: invalid process_pool_size %q: %w", value, err)
		}
		ensurePipeline(opt).ProcessPoolSize = &n
	case "check-ignore.details":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		ensureCheckIgnore(opt).Details = &b
	default:
		return fmt.Errorf("config: unrecognized key %q", dotted)
	}
	return nil
}

func parseBool(v string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: invalid boolean %q: %w", v, err)
	}
	return b, nil
}

// The ensure* helpers lazily allocate the nested structs of optionalConfig.

func ensureCore(o *optionalConfig) *optionalCore {
	if o.Core == nil {
		o.Core = &optionalCore{}
	}
	return o.Core
}

func ensureGit(o *optionalConfig) *optionalGit {
	if o.Git == nil {
		o.Git = &optionalGit{}
	}
	return o.Git
}

func ensureCache(o *optionalConfig) *optionalCache {
	if o.Cache == nil {
		o.Cache = &optionalCache{}
	}
	return o.Cache
}

func ensureFile(o *optionalConfig) {
	if o.File == nil {
		o.File = &optionalFile{}
	}
}

func ensureFileTrack(o *optionalConfig) *optionalFileTrack {
	ensureFile(o)
	if o.File.Track == nil {
		o.File.Track = &optionalFileTrack{}
	}
	return o.File.Track
}

func ensureFileList(o *optionalConfig) *optionalFileList {
	ensureFile(o)
	if o.File.List == nil {
		o.File.List = &optionalFileList{}
	}
	return o.File.List
}

func ensureFileCarryIn(o *optionalConfig) *optionalFileCarryIn {
	ensureFile(o)
	if o.File.CarryIn == nil {
		o.File.CarryIn = &optionalFileCarryIn{}
	}
	return o.File.CarryIn
}

func ensureFileRecheck(o *optionalConfig) *optionalFileRecheck {
	ensureFile(o)
	if o.File.Recheck == nil {
		o.File.Recheck = &optionalFileRecheck{}
	}
	return o.File.Recheck
}

func ensurePipeline(o *optionalConfig) *optionalPipeline {
	if o.Pipeline == nil {
		o.Pipeline = &optionalPipeline{}
	}
	return o.Pipeline
}

func ensureCheckIgnore(o *optionalConfig) *optionalCheckIgnore {
	if o.CheckIgnore == nil {
		o.CheckIgnore = &optionalCheckIgnore{}
	}
	return o.CheckIgnore
}
