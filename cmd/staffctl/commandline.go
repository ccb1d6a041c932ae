package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/JonMunkholm/staffdir/internal/client"
	"github.com/JonMunkholm/staffdir/internal/core"
	"github.com/JonMunkholm/staffdir/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "STAFFCTL"

// commandline carries the settings and connection shared by all commands.
type commandline struct {
	v     *viper.Viper
	cache *client.Cache
	api   *client.Client
}

func newCommand() *cobra.Command {
	cl := &commandline{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "staffctl",
		Short: "Command-line client for the employee directory",
		Long: `Command-line client for the employee directory.

Environment variables:
  STAFFCTL_SERVER=http://localhost:8080
  STAFFCTL_TIMEOUT=30s
  STAFFCTL_LOCALE=en
  STAFFCTL_OUTPUT=table`,
		SilenceUsage:      true,
		PersistentPreRunE: cl.connect,
	}
	cl.configureFlags(cmd)

	cl.list(cmd)
	cl.create(cmd)
	cl.update(cmd)
	cl.remove(cmd)
	cl.importFile(cmd)
	cl.export(cmd)
	cl.stats(cmd)
	return cmd
}

func (cl *commandline) configureFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("server", "s", "http://localhost:8080", "directory API base URL")
	cmd.PersistentFlags().Duration("timeout", client.DefaultTimeout, "timeout of a single API request")
	cmd.PersistentFlags().String("locale", core.DefaultLocale, "locale used to sort names in local views")
	cmd.PersistentFlags().StringP("output", "o", "table", "output format: table or json")
	cmd.PersistentFlags().String("log-level", "warn", "diagnostic log level written to stderr")
	cmd.PersistentFlags().String("config", "", "config file (default is staffctl.yaml in the working directory or $HOME)")

	bindFlags(cl.v, cmd.PersistentFlags())

	cl.v.SetEnvPrefix(envPrefix)
	cl.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cl.v.AutomaticEnv()
}

// bindFlags makes every flag of fs a viper key of the same name.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// initConfig reads the optional config file. Flags and environment
// variables take precedence over it.
func (cl *commandline) initConfig() error {
	if fn := cl.v.GetString("config"); fn != "" {
		cl.v.SetConfigFile(fn)
	} else {
		cl.v.SetConfigName("staffctl")
		cl.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			cl.v.AddConfigPath(home)
		}
	}

	if err := cl.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cl.v.GetString("config") == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func (cl *commandline) connect(cmd *cobra.Command, args []string) error {
	if err := cl.initConfig(); err != nil {
		return err
	}
	slog.SetDefault(slog.New(logging.NewHandler(cmd.ErrOrStderr(), cl.v.GetString("log-level"), "text")))

	col, err := core.NewCollation(cl.v.GetString("locale"))
	if err != nil {
		return err
	}

	api, err := client.New(cl.v.GetString("server"), &http.Client{Timeout: cl.v.GetDuration("timeout")})
	if err != nil {
		return err
	}
	cl.api = api
	cl.cache = client.NewCache(api, col)
	slog.Debug("connected", "server", cl.v.GetString("server"))
	return nil
}

// context bounds a whole command, which may issue several requests.
func (cl *commandline) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout := cl.v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = time.Minute
	}
	return context.WithTimeout(cmd.Context(), 2*timeout)
}

func (cl *commandline) jsonOutput() bool {
	return strings.EqualFold(cl.v.GetString("output"), "json")
}
