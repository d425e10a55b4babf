package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/surgeprotector/surgeprotector/internal/appid"
	"github.com/surgeprotector/surgeprotector/internal/config"
	"github.com/surgeprotector/surgeprotector/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   appid.Get().BinaryName,
	Short: appid.Get().Description,
	Long: fmt.Sprintf(`%s - %s

Samples established TCP connections, blocks remote addresses that exceed a
connection limit by writing "ExitPolicy reject" lines to a blocklist file,
expires entries after a TTL and runs a reload command when the file changes.`,
		appid.Get().BinaryName, appid.Get().Description),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	identity := appid.Get()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		fmt.Sprintf("config file (default is $XDG_CONFIG_HOME/%s/config.yaml)", identity.ConfigName))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	rootCmd.PersistentFlags().StringSlice("family", nil, "address families to sample: ipv4, ipv6 (default both)")
	rootCmd.PersistentFlags().StringSlice("exempt", nil, "network (CIDR or address) that is never counted; repeatable")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("sampler.families", rootCmd.PersistentFlags().Lookup("family"))
	_ = viper.BindPFlag("sampler.exempt", rootCmd.PersistentFlags().Lookup("exempt"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	identity := appid.Get()
	v := viper.GetViper()
	config.Configure(v)

	used, err := config.ReadConfigFile(v, cfgFile)
	if err != nil {
		ExitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to read config file", err)
	}

	observability.InitCLILogger(identity.BinaryName, v.GetString("logging.level"), verbose)

	if used != "" {
		observability.CLILogger.Debug("Using config file", zap.String("path", used))
	} else {
		observability.CLILogger.Debug("No config file found, using defaults and environment variables",
			zap.String("user_config", config.DefaultConfigPath()))
	}
}

// loadConfig decodes the layered settings. Commands call it after applying
// positional arguments to viper.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
