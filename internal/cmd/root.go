// Package cmd holds the livechartboard command line.
package cmd

import (
	"github.com/pkg/errors"
	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"

	"LiveChartBoard/internal/config"
)

var RootCmd = &cobra.Command{
	Use:   "livechartboard",
	Short: "live chart annotations shared between a host and its viewers",

	// SilenceUsage is an option to silence usage when an error occurs.
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotenv(); err != nil {
			return err
		}
		return setupLogging(viper.GetBool("debug"), viper.GetString("log-file"))
	},
}

func init() {
	RootCmd.PersistentFlags().Bool("debug", false, "debug flag")
	RootCmd.PersistentFlags().String("config", "", "config file")
	RootCmd.PersistentFlags().String("log-file", "", "also write json logs to this file, rotated")
}

func setupLogging(debug bool, logFile string) error {
	log.SetFormatter(&prefixed.TextFormatter{FullTimestamp: true})

	logger := log.StandardLogger()
	if debug {
		logger.SetLevel(log.DebugLevel)
	}

	if logFile == "" {
		return nil
	}

	writer := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
	}
	logger.AddHook(
		lfshook.NewHook(
			lfshook.WriterMap{
				log.DebugLevel: writer,
				log.InfoLevel:  writer,
				log.WarnLevel:  writer,
				log.ErrorLevel: writer,
				log.FatalLevel: writer,
			},
			&log.JSONFormatter{},
		),
	)
	return nil
}

// bindFlags maps the flags of a sub command onto config keys.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return errors.Wrapf(err, "unable to bind flag %s", flag)
		}
	}
	return nil
}

// loadConfig resolves the configuration of the running command.
func loadConfig() (*config.Config, error) {
	return config.Resolve(viper.GetViper())
}

func Execute() {
	config.BindEnv(viper.GetViper())

	// Once the flags are defined, we can bind config keys with flags.
	if err := viper.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		log.WithError(err).Errorf("failed to bind persistent flags. please check the flag settings.")
	}

	if err := RootCmd.Execute(); err != nil {
		log.WithError(err).Fatalf("cannot execute command")
	}
}
