package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Viper keys; each is also settable through the environment as VJDECK_<KEY>.
const (
	KeyPort      = "port"
	KeyShaderDir = "shader-dir"
	KeyVideoDir  = "video-dir"
	KeyStaticDir = "static-dir"
)

type Config struct {
	Port      int
	ShaderDir string
	VideoDir  string
	StaticDir string
}

// SetDefaults installs the baked-in defaults on v. Called once during
// command setup, before flags and environment are bound.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, 4000)
	v.SetDefault(KeyShaderDir, "assets/shaders")
	v.SetDefault(KeyVideoDir, "assets/videos")
	v.SetDefault(KeyStaticDir, "web/dist")
}

// FromViper materializes the resolved configuration.
func FromViper(v *viper.Viper) Config {
	return Config{
		Port:      v.GetInt(KeyPort),
		ShaderDir: v.GetString(KeyShaderDir),
		VideoDir:  v.GetString(KeyVideoDir),
		StaticDir: v.GetString(KeyStaticDir),
	}
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
