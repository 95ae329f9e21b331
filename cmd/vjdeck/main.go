package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kaleida/vjdeck/server/internal/app"
	"github.com/kaleida/vjdeck/server/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "vjdeck",
	Short: "Coordination server for the vjdeck visual mixer",
	Long: `vjdeck holds the authoritative mix/session state, relays updates
between controller and viewer surfaces over a realtime channel, and
streams video assets with byte-range support.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := zap.NewProduction()
		if err != nil {
			return err
		}
		defer logger.Sync()
		zap.ReplaceGlobals(logger)

		srv := app.NewServer(config.FromViper(viper.GetViper()))
		return srv.Run()
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.Int(config.KeyPort, 4000, "listen port")
	flags.String(config.KeyShaderDir, "assets/shaders", "shader source directory")
	flags.String(config.KeyVideoDir, "assets/videos", "categorized video directory")
	flags.String(config.KeyStaticDir, "web/dist", "built frontend bundle directory")

	config.SetDefaults(viper.GetViper())
	cobra.CheckErr(viper.BindPFlags(flags))
	viper.SetEnvPrefix("VJDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zap.L().Fatal("server exited", zap.Error(err))
	}
}
