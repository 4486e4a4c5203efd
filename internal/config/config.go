// Package config loads facepoint settings from a .env file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ayusman/facepoint/internal/announcer"
	"github.com/ayusman/facepoint/internal/proximity"
	"github.com/ayusman/facepoint/internal/speech"
)

// Environment variable names.
const (
	EnvCamera        = "FACEPOINT_CAMERA"
	EnvThreshold     = "FACEPOINT_THRESHOLD"
	EnvCooldown      = "FACEPOINT_COOLDOWN"
	EnvSpeechRate    = "FACEPOINT_SPEECH_RATE"
	EnvSpeechVolume  = "FACEPOINT_SPEECH_VOLUME"
	EnvVoice         = "FACEPOINT_VOICE"
	EnvSpeechCommand = "FACEPOINT_SPEECH_COMMAND"
	EnvDB            = "FACEPOINT_DB"
	EnvAddr          = "FACEPOINT_ADDR"
	EnvWebDir        = "FACEPOINT_WEB_DIR"
	EnvScript        = "FACEPOINT_MEDIAPIPE_SCRIPT"
	EnvPython        = "FACEPOINT_PYTHON"
	EnvLogLevel      = "LOG_LEVEL"
	EnvLogFile       = "FACEPOINT_LOG_FILE"
)

// DefaultAddr is the listen address of the status API.
const DefaultAddr = "127.0.0.1:8080"

// Config holds every runtime setting.
type Config struct {
	CameraID      int
	Threshold     float64
	Cooldown      time.Duration
	SpeechRate    int
	SpeechVolume  float64
	Voice         string
	SpeechCommand string

	// DBPath is the history database. Empty selects ~/.facepoint/facepoint.db.
	DBPath string
	// NoHistory disables the history database.
	NoHistory bool

	// Addr is the status API listen address. Empty disables the API.
	Addr   string
	WebDir string

	ScriptPath string
	Python     string

	LogLevel string
	LogFile  string

	Tray     bool
	Headless bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Threshold:    proximity.DefaultThreshold,
		Cooldown:     announcer.DefaultCooldown,
		SpeechRate:   speech.DefaultRate,
		SpeechVolume: speech.DefaultVolume,
		Addr:         DefaultAddr,
		LogLevel:     "info",
	}
}

// Load reads envFile (ignored when missing), then the environment, then args.
func Load(envFile string, args []string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}

	if err := cfg.ParseFlags(args, io.Discard); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv applies environment variables on top of Default.
func FromEnv() (Config, error) {
	cfg := Default()
	var err error

	if cfg.CameraID, err = intEnv(EnvCamera, cfg.CameraID); err != nil {
		return Config{}, err
	}
	if cfg.Threshold, err = floatEnv(EnvThreshold, cfg.Threshold); err != nil {
		return Config{}, err
	}
	if cfg.Cooldown, err = durationEnv(EnvCooldown, cfg.Cooldown); err != nil {
		return Config{}, err
	}
	if cfg.SpeechRate, err = intEnv(EnvSpeechRate, cfg.SpeechRate); err != nil {
		return Config{}, err
	}
	if cfg.SpeechVolume, err = floatEnv(EnvSpeechVolume, cfg.SpeechVolume); err != nil {
		return Config{}, err
	}

	cfg.Voice = getenv(EnvVoice, cfg.Voice)
	cfg.SpeechCommand = getenv(EnvSpeechCommand, cfg.SpeechCommand)
	cfg.DBPath = getenv(EnvDB, cfg.DBPath)
	cfg.Addr = getenv(EnvAddr, cfg.Addr)
	cfg.WebDir = getenv(EnvWebDir, cfg.WebDir)
	cfg.ScriptPath = getenv(EnvScript, cfg.ScriptPath)
	cfg.Python = getenv(EnvPython, cfg.Python)
	cfg.LogLevel = getenv(EnvLogLevel, cfg.LogLevel)
	cfg.LogFile = getenv(EnvLogFile, cfg.LogFile)

	return cfg, nil
}

// ParseFlags overrides cfg with command-line flags. Usage goes to output.
func (c *Config) ParseFlags(args []string, output io.Writer) error {
	flags := flag.NewFlagSet("facepoint", flag.ContinueOnError)
	flags.SetOutput(output)

	flags.IntVar(&c.CameraID, "camera", c.CameraID, "camera device index")
	flags.Float64Var(&c.Threshold, "threshold", c.Threshold, "maximum fingertip distance to a landmark (normalized)")
	flags.DurationVar(&c.Cooldown, "cooldown", c.Cooldown, "minimum gap before repeating the same region")
	flags.IntVar(&c.SpeechRate, "rate", c.SpeechRate, "speech rate in words per minute")
	flags.Float64Var(&c.SpeechVolume, "volume", c.SpeechVolume, "speech volume (0-1)")
	flags.StringVar(&c.Voice, "voice", c.Voice, "synthesizer voice")
	flags.StringVar(&c.SpeechCommand, "speech-command", c.SpeechCommand, "speech synthesizer executable")
	flags.StringVar(&c.DBPath, "db", c.DBPath, "history database path")
	flags.BoolVar(&c.NoHistory, "no-history", c.NoHistory, "do not record announcements")
	flags.StringVar(&c.Addr, "addr", c.Addr, "status API listen address (empty disables)")
	flags.StringVar(&c.WebDir, "web", c.WebDir, "static files served at /")
	flags.StringVar(&c.ScriptPath, "mediapipe-script", c.ScriptPath, "path to mediapipe_service.py")
	flags.StringVar(&c.Python, "python", c.Python, "python interpreter for the landmark service")
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&c.LogFile, "log-file", c.LogFile, "rotating log file")
	flags.BoolVar(&c.Tray, "tray", c.Tray, "run with a system tray icon and no preview window")
	flags.BoolVar(&c.Headless, "headless", c.Headless, "run without a preview window")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if c.Tray {
		c.Headless = true
	}
	return nil
}

// Validate rejects out-of-range settings.
func (c Config) Validate() error {
	var errs []error

	if c.CameraID < 0 {
		errs = append(errs, fmt.Errorf("camera must be >= 0, got %d", c.CameraID))
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold must be in (0, 1], got %g", c.Threshold))
	}
	if c.Cooldown <= 0 {
		errs = append(errs, fmt.Errorf("cooldown must be positive, got %s", c.Cooldown))
	}
	if c.SpeechRate <= 0 {
		errs = append(errs, fmt.Errorf("speech rate must be positive, got %d", c.SpeechRate))
	}
	if c.SpeechVolume < 0 || c.SpeechVolume > 1 {
		errs = append(errs, fmt.Errorf("speech volume must be in [0, 1], got %g", c.SpeechVolume))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

// SpeechConfig returns the speech engine settings.
func (c Config) SpeechConfig() speech.Config {
	cfg := speech.DefaultConfig()
	cfg.Rate = c.SpeechRate
	cfg.Volume = c.SpeechVolume
	cfg.Voice = c.Voice
	cfg.Command = c.SpeechCommand
	return cfg
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func intEnv(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func floatEnv(k string, d float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return f, nil
}

func durationEnv(k string, d time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return dur, nil
}
