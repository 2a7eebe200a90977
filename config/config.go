package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go-sightread/debug"
	"go-sightread/engine"
	"go-sightread/input"
)

// ControllerConfig defines a saved MIDI keyboard
type ControllerConfig struct {
	PortName     string `json:"portName"`
	AutoConnect  bool   `json:"autoConnect"`
	InputChannel int    `json:"inputChannel,omitempty"` // 0 = any channel
}

// SynthOutputConfig defines the playback MIDI output
type SynthOutputConfig struct {
	PortName string `json:"portName,omitempty"`
	Channel  int    `json:"channel,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	FrameRate int    `json:"frameRate,omitempty"`
	NoteWidth int    `json:"noteWidth,omitempty"`
	LastSong  string `json:"lastSong,omitempty"`
	Palette   string `json:"palette,omitempty"` // path to a .gpl file
}

// PlayConfig stores how input is mapped and scored
type PlayConfig struct {
	KeyMapping string `json:"keyMapping"` // note-names | piano-row
	Mode       string `json:"mode"`       // normal | pause-and-learn
	SongTrack  int    `json:"songTrack"`
}

// Config is the main configuration structure
type Config struct {
	Controllers []ControllerConfig `json:"controllers,omitempty"`
	SynthOutput SynthOutputConfig  `json:"synthOutput,omitempty"`
	UI          UIConfig           `json:"ui,omitempty"`
	Play        PlayConfig         `json:"play"`
	HistoryPath string             `json:"historyPath,omitempty"`
	Dev         bool               `json:"dev,omitempty"`
}

// Defaults
const (
	DefaultFrameRate = 60
	DefaultSongTrack = 1
)

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			FrameRate: DefaultFrameRate,
			NoteWidth: engine.DefaultNoteWidth,
		},
		Play: PlayConfig{
			KeyMapping: input.NoteNames.String(),
			Mode:       engine.Normal.String(),
			SongTrack:  DefaultSongTrack,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-sightread"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// PathFor returns a file name inside the config directory
func PathFor(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file over the defaults
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.fill()
	return cfg, nil
}

func (c *Config) fill() {
	def := DefaultConfig()
	if c.UI.FrameRate <= 0 {
		c.UI.FrameRate = def.UI.FrameRate
	}
	if c.UI.NoteWidth <= 0 {
		c.UI.NoteWidth = def.UI.NoteWidth
	}
	if c.Play.SongTrack < 0 {
		c.Play.SongTrack = def.Play.SongTrack
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EngineOptions builds the engine's configuration record
func (c *Config) EngineOptions(log debug.Logger) (engine.Options, error) {
	mode, err := engine.ParseMode(c.Play.Mode)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		Mode:      mode,
		NoteWidth: c.UI.NoteWidth,
		Channel:   uint8(c.SynthOutput.Channel),
		Logger:    log,
	}, nil
}

// RouterOptions builds the input router's configuration
func (c *Config) RouterOptions(log debug.Logger) (input.Options, error) {
	mapping, err := input.ParseMapping(c.Play.KeyMapping)
	if err != nil {
		return input.Options{}, err
	}
	return input.Options{
		Mapping: mapping,
		Channel: uint8(c.SynthOutput.Channel),
		Logger:  log,
	}, nil
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == ctrl.PortName {
			c.Controllers[i] = ctrl
			return
		}
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// AutoConnectControllers returns controllers with autoConnect enabled
func (c *Config) AutoConnectControllers() []ControllerConfig {
	var result []ControllerConfig
	for _, ctrl := range c.Controllers {
		if ctrl.AutoConnect {
			result = append(result, ctrl)
		}
	}
	return result
}
