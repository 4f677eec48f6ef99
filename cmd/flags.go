package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags binds flags to their viper config keys so a flag set on the
// command line overrides the config file and environment values.
func bindFlags(fs *pflag.FlagSet, bindings map[string]string) {
	for key, flagName := range bindings {
		flag := fs.Lookup(flagName)
		if flag == nil {
			// A missing binding is a programming error, fail loudly at init.
			fmt.Fprintf(os.Stderr, "unknown flag in binding: %s\n", flagName)
			os.Exit(1)
		}

		if err := viper.BindPFlag(key, flag); err != nil {
			fmt.Fprintf(os.Stderr, "failed to bind flag %s: %v\n", flagName, err)
			os.Exit(1)
		}
	}
}
