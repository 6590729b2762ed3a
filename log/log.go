/*
Package log wraps zerolog with per-module loggers configured from a toml
file.

The file is ledgerlog.toml in the working directory, or the path held by the
LEDGER_LOGCONFIG environment variable. Every field is optional:

	# debug, info, warn, error, fatal or panic
	level = "info"
	# json, console or console_no_color
	formatter = "console"
	# stdout, stderr or a file path
	out = "stderr"
	# print source file and line
	caller = false
	# time layout of the timestamp field, as in the time package
	timefieldformat = "2006-01-02T15:04:05Z07:00"

	# a table named after a module overrides its level and output
	[statemachine]
	level = "debug"
	out = "/var/log/ledgernode/statemachine.log"

Loggers are configured when the first one is created, which happens while
packages are initialized, so the file cannot be chosen by a command line
flag.
*/
package log

import (
	"errors"
	"os"
	"strings"
	"sync"

	colorable "github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "LEDGER"
	envConfigKey   = "LOGCONFIG"
	configFileName = "ledgerlog"
)

var errNoOutput = errors.New("no log output name")

// Logger is a zerolog logger tagged with its module name.
type Logger struct {
	*zerolog.Logger
	module string
	level  zerolog.Level
}

// IsDebugEnabled lets callers skip building expensive debug fields.
func (l *Logger) IsDebugEnabled() bool {
	return l.level == zerolog.DebugLevel
}

func (l *Logger) Level() string {
	return l.level.String()
}

func (l *Logger) Module() string {
	return l.module
}

var state struct {
	sync.Mutex
	ready bool
	conf  *viper.Viper
	base  zerolog.Logger
	level zerolog.Level
}

// setup reads the configuration and builds the base logger once. The caller
// holds state's lock.
func setup() {
	if state.ready {
		return
	}
	state.base = zerolog.New(os.Stderr)
	state.conf = readConfig(&state.base)
	state.base, state.level = newBaseLogger(state.conf, state.base)
	state.ready = true
}

// reset drops the configuration so the next logger reads it again.
func reset() {
	state.Lock()
	defer state.Unlock()
	state.ready = false
}

func readConfig(bootLogger *zerolog.Logger) *viper.Viper {
	conf := viper.New()
	conf.SetEnvPrefix(envPrefix)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	conf.AutomaticEnv()
	conf.SetConfigType("toml")
	conf.SetConfigName(configFileName)
	conf.AddConfigPath(".")

	if path := conf.GetString(envConfigKey); path != "" {
		conf.SetConfigFile(path)
	}
	if err := conf.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			bootLogger.Error().Err(err).Msg("Failed to read log config")
		}
	}
	return conf
}

func newBaseLogger(conf *viper.Viper, logger zerolog.Logger) (zerolog.Logger, zerolog.Level) {
	if layout := conf.GetString("timefieldformat"); layout != "" {
		zerolog.TimeFieldFormat = layout
	}

	out := os.Stderr
	if name := conf.GetString("out"); name != "" {
		if file, err := openOutput(name); err == nil {
			out = file
		} else {
			logger.Warn().Err(err).Str("out", name).Msg("Failed to open log output, using stderr")
		}
	}

	switch formatter := strings.ToLower(conf.GetString("formatter")); formatter {
	case "", "json":
		logger = logger.Output(out)
	case "console":
		logger = logger.Output(zerolog.ConsoleWriter{Out: colorable.NewColorable(out), TimeFormat: zerolog.TimeFieldFormat})
	case "console_no_color":
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: zerolog.TimeFieldFormat})
	default:
		logger.Warn().Str("formatter", formatter).Msg("Unknown log formatter, use json, console or console_no_color")
		logger = logger.Output(out)
	}

	if conf.GetBool("caller") {
		logger = logger.With().Caller().Logger()
	}

	level := parseLevel(conf.GetString("level"), zerolog.InfoLevel)
	return logger.With().Timestamp().Logger().Level(level), level
}

func parseLevel(name string, fallback zerolog.Level) zerolog.Level {
	if name == "" {
		return fallback
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return fallback
	}
	return level
}

// openOutput maps stdout and stderr to the process streams and anything
// else to a file opened for appending.
func openOutput(name string) (*os.File, error) {
	switch name {
	case "":
		return nil, errNoOutput
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND|os.O_SYNC, 0644)
}

// NewLogger returns a logger whose entries carry module=name. A config table
// called name overrides the base level and output.
func NewLogger(module string) *Logger {
	state.Lock()
	defer state.Unlock()
	setup()

	logger := state.base.With().Str("module", module).Logger()
	level := state.level
	if sub := state.conf.Sub(module); sub != nil {
		if name := sub.GetString("out"); name != "" {
			if out, err := openOutput(name); err == nil {
				logger = logger.Output(out)
			} else {
				state.base.Warn().Err(err).Str("out", name).Str("module", module).Msg("Failed to open module log output")
			}
		}
		if name := sub.GetString("level"); name != "" {
			level = parseLevel(name, zerolog.InfoLevel)
			logger = logger.Level(level)
		}
	}
	return &Logger{Logger: &logger, module: module, level: level}
}

// Default returns the base logger, without a module tag.
func Default() *Logger {
	state.Lock()
	defer state.Unlock()
	setup()

	logger := state.base
	return &Logger{Logger: &logger, level: state.level}
}
