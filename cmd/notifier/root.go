package cmd

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	logwriter "github.com/sirupsen/logrus/hooks/writer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg/cmd/adm"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg/cmd/notify"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg/cmd/publish"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg/cmd/report"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "e2e-notifier",
	Short: "e2e test report notifier",
	Long: `e2e-notifier summarizes the JUnit report of an end-to-end test run and
notifies the committer of the build (email, Slack). It runs as a post build
step of the pipeline and never fails the build because of a missing report
or an unreachable mail server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error

		// Validate logging level
		loglevel := viper.GetString("log-level")
		logrusLevel, err := log.ParseLevel(loglevel)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)

		// Additional log options
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
		log.SetOutput(os.Stdout)

		logFile := viper.GetString("log-file")
		if logFile == "" {
			return
		}
		log.AddHook(&logwriter.Hook{
			Writer: &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 5,
				MaxAge:     30, // days
				Compress:   true,
			},
			LogLevels: []log.Level{
				log.PanicLevel,
				log.FatalLevel,
				log.ErrorLevel,
				log.WarnLevel,
				log.InfoLevel,
				log.DebugLevel,
			},
		})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func initBindFlag(flag string) {
	err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag))
	if err != nil {
		log.Warnf("Unable to bind flag %s\n", flag)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "YAML configuration file, keys are the flag names.")
	rootCmd.PersistentFlags().String("log-level", "info", "logging level")
	rootCmd.PersistentFlags().String("log-file", pkg.LogFileName, "rotated log file, disabled when empty")
	initBindFlag("config")
	initBindFlag("log-level")
	initBindFlag("log-file")

	// Link in child commands
	rootCmd.AddCommand(notify.NewCmdNotify())
	rootCmd.AddCommand(report.NewCmdReport())
	rootCmd.AddCommand(publish.NewCmdPublish())
	rootCmd.AddCommand(adm.NewCmdAdm())
	rootCmd.AddCommand(version.NewCmdVersion())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("unable to read the configuration file %s: %v", cfgFile, err)
		}
		log.Debugf("using configuration file %s", viper.ConfigFileUsed())
	}
}
