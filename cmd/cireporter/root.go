package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	logwriter "github.com/sirupsen/logrus/hooks/writer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/config"
	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/cmd/adm"
	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/cmd/fetch"
	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/cmd/publish"
	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/cmd/summary"
	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/version"
)

const logFile = "ci-reporter.log"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ci-reporter",
	Short: "CI results reporter",
	Long: `ci-reporter collects job and test results from Jenkins and Zuul and publishes
XUnit reports to ReportPortal as a single launch`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error

		// Validate logging level
		loglevel := viper.GetString("log_level")
		logrusLevel, err := log.ParseLevel(loglevel)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)

		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})

		log.SetOutput(os.Stdout)
		if viper.GetBool("no_log_file") {
			return
		}
		fdLog, err := os.OpenFile(logFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			log.Errorf("error opening file %s: %v", logFile, err)
		} else {
			log.AddHook(&logwriter.Hook{
				Writer: fdLog,
				LogLevels: []log.Level{
					log.PanicLevel,
					log.FatalLevel,
					log.ErrorLevel,
					log.WarnLevel,
					log.InfoLevel,
					log.DebugLevel,
				},
			})
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/.ci-reporter.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "logging level")
	rootCmd.PersistentFlags().Bool("no-log-file", false, "do not mirror the logs to "+logFile)
	config.BindPFlagsSnakeCase(viper.GetViper(), rootCmd.PersistentFlags())

	rootCmd.AddCommand(publish.NewCmdPublish())
	rootCmd.AddCommand(summary.NewCmdSummary())
	rootCmd.AddCommand(fetch.NewCmdFetch())
	rootCmd.AddCommand(adm.NewCmdParseJUnit())
	rootCmd.AddCommand(adm.NewCmdAttributes())
	rootCmd.AddCommand(version.NewCmdVersion())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cobra.CheckErr(config.Init(viper.GetViper(), cfgFile))
}
