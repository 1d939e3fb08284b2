package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	uci "github.com/0xalexb/hjarta-uci"
	filefetcher "github.com/0xalexb/hjarta-uci/config/fetcher/file"
	tomlparser "github.com/0xalexb/hjarta-uci/config/parser/toml"
	yamlparser "github.com/0xalexb/hjarta-uci/config/parser/yaml"
	"github.com/0xalexb/hjarta-uci/logging"

	"github.com/go-playground/validator/v10"
)

// Environment variables overriding the directories from the settings file.
const (
	EnvConfDir = "UCI_CONFDIR"
	EnvSaveDir = "UCI_SAVEDIR"
)

// Defaults for fields the settings file leaves empty.
const (
	DefaultListen          = "unix:/var/run/ucid.sock"
	DefaultMaxRequestBytes = 1 << 20
	DefaultRequestTimeout  = 30 * time.Second
)

// UnixPrefix marks a listen address as a unix socket path.
const UnixPrefix = "unix:"

// Settings configures a uci.Context and the daemon serving it.
type Settings struct {
	ConfDir string               `toml:"confdir" validate:"required"        yaml:"confdir"`
	SaveDir string               `toml:"savedir" validate:"required"        yaml:"savedir"`
	Log     logging.LoggerConfig `toml:"log"                                 yaml:"log"`
	Listen  string               `toml:"listen"  validate:"required,listen" yaml:"listen"`
	// Watch unloads unmodified packages when their file changes on disk.
	Watch           bool  `toml:"watch"             yaml:"watch"`
	MaxRequestBytes int64 `toml:"max_request_bytes" validate:"gte=0" yaml:"max_request_bytes"`
	// RequestTimeout bounds one API request, including the wait for the store.
	RequestTimeout time.Duration `toml:"request_timeout" validate:"gte=0" yaml:"request_timeout"`
}

// SetDefaults fills empty fields.
func (s *Settings) SetDefaults() bool {
	changed := false

	set := func(field *string, value string) {
		if *field == "" {
			*field = value
			changed = true
		}
	}

	set(&s.ConfDir, uci.DefaultConfDir)
	set(&s.SaveDir, uci.DefaultSaveDir)
	set(&s.Listen, DefaultListen)
	set(&s.Log.Level, "info")
	set(&s.Log.Format, logging.FormatJSON)

	s.Log.Level = strings.ToLower(s.Log.Level)

	if s.MaxRequestBytes == 0 {
		s.MaxRequestBytes = DefaultMaxRequestBytes
		changed = true
	}

	if s.RequestTimeout == 0 {
		s.RequestTimeout = DefaultRequestTimeout
		changed = true
	}

	return changed
}

// Validate checks the settings with their validate tags.
func (s *Settings) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.RegisterValidation("listen", validListen); err != nil {
		return fmt.Errorf("registering listen validation: %w", err)
	}

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	return nil
}

// ApplyEnv overrides the directories from UCI_CONFDIR and UCI_SAVEDIR when
// they are set to a non-empty value.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	if dir, ok := lookup(EnvConfDir); ok && dir != "" {
		s.ConfDir = dir
	}

	if dir, ok := lookup(EnvSaveDir); ok && dir != "" {
		s.SaveDir = dir
	}
}

// ContextOptions converts the settings into options for uci.New.
func (s *Settings) ContextOptions() []uci.ContextOption {
	return []uci.ContextOption{uci.WithConfDir(s.ConfDir), uci.WithSaveDir(s.SaveDir)}
}

// ParserFor picks the parser for a settings file from its extension.
func ParserFor(path string) Parser {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return tomlparser.NewParser()
	}

	return yamlparser.NewParser()
}

// LoadSettings reads settings from path, which may be empty or name a file
// that does not exist; defaults cover whatever is missing.
func LoadSettings(path string) (*Settings, error) {
	fetcher, err := filefetcher.NewOptionalFetcher(path)()
	if err != nil {
		return nil, err
	}

	settings, err := Provider(&Settings{}, "")(ParserFor(path), fetcher)
	if err != nil {
		return nil, fmt.Errorf("loading settings from %q: %w", path, err)
	}

	return settings, nil
}

func validListen(fl validator.FieldLevel) bool {
	addr := fl.Field().String()

	if socket, ok := strings.CutPrefix(addr, UnixPrefix); ok {
		return socket != ""
	}

	_, _, err := net.SplitHostPort(addr)

	return err == nil
}
