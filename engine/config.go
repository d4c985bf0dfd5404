package engine

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/calque/blueprint"
	"github.com/hazyhaar/calque/builder"
	"github.com/hazyhaar/calque/interact"
	"github.com/hazyhaar/calque/prompt"
)

// Config holds all calque configuration.
type Config struct {
	DBPath   string           `yaml:"db_path"`
	HTTPAddr string           `yaml:"http_addr"`
	Browser  BrowserConfig    `yaml:"browser"`
	Builder  builder.Options  `yaml:"builder"`
	Planner  interact.Options `yaml:"planner"`
	Prompt   prompt.Options   `yaml:"prompt"`

	// Viewports are the named breakpoints emulated during capture,
	// widest first.
	Viewports []blueprint.ViewportInfo `yaml:"viewports"`
}

// BrowserConfig controls the capture browser.
type BrowserConfig struct {
	RemoteURL       string        `yaml:"remote_url"`
	Stealth         bool          `yaml:"stealth"`
	NavigateTimeout time.Duration `yaml:"navigate_timeout"`
	MaxDepth        int           `yaml:"max_depth"` // structure walk depth on the page side
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "calque.db"
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8480"
	}
	if len(c.Viewports) == 0 {
		c.Viewports = []blueprint.ViewportInfo{
			{Name: "desktop", Width: 1440, Height: 900},
			{Name: "tablet", Width: 768, Height: 1024},
			{Name: "mobile", Width: 375, Height: 812},
		}
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
