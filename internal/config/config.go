// Package config loads ci-reporter settings from a config file, the
// environment and command line flags, in increasing order of precedence.
package config

import (
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "ci_reporter"
	EnvConfig  = "CI_REPORTER_CONFIG"
	configName = ".ci-reporter"
)

// Init points viper at the config file and enables the CI_REPORTER_
// environment overrides. A missing config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	v.SetConfigType("yaml")

	switch {
	case cfgFile != "":
		if err := setConfigFile(v, cfgFile); err != nil {
			return err
		}
	case os.Getenv(EnvConfig) != "":
		if err := setConfigFile(v, os.Getenv(EnvConfig)); err != nil {
			return err
		}
	default:
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(path.Join(home, ".config"))
		}
		if wd, err := os.Getwd(); err == nil {
			v.AddConfigPath(wd)
		}
		v.SetConfigName(configName)
	}

	// CI_REPORTER_LAUNCH_NAME overrides launch_name, and so on.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Debugf("%s", err)
			return nil
		}
		return errors.Wrap(err, "reading config file")
	}
	log.Infof("Using config file: %s", v.ConfigFileUsed())
	return nil
}

func setConfigFile(v *viper.Viper, name string) error {
	if _, err := os.Stat(name); err != nil {
		return errors.Errorf("config file %q not found", name)
	}
	v.SetConfigFile(name)
	return nil
}

// BindPFlagsSnakeCase binds every flag under its name with dashes replaced
// by underscores, so --launch-name and launch_name in a file are the same
// setting.
func BindPFlagsSnakeCase(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(flag *pflag.Flag) {
		key := strings.ReplaceAll(flag.Name, "-", "_")
		if err := v.BindPFlag(key, flag); err != nil {
			log.Warnf("Unable to bind flag %s", flag.Name)
		}
	})
}

// Hydrate copies the viper values into opts through its mapstructure tags.
func Hydrate(v *viper.Viper, opts interface{}) error {
	return errors.Wrap(v.Unmarshal(opts), "decoding options")
}
