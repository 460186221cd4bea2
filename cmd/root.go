// Package cmd wires the CLI surface: the model:* commands that apply
// annotated model definitions, and the db:* commands for database-wide
// schema printing, dump/restore, and lifecycle scripting.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"schemasync/internal/conn"
	"schemasync/internal/core"
	"schemasync/internal/model"
	"schemasync/internal/output"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "schemasync",
	Short: "Declarative schema engine for MySQL-compatible databases",
	Long: `schemasync reads annotated model definitions, reconciles them with the
live database, and applies the minimal DDL needed to bring the database
into conformance. It also ships a streaming dump/restore pipeline and a
schema differ for scaffolding hand-written migrations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext runs the CLI under the given context. A declined
// confirmation is a clean exit; every other failure exits 1.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if core.IsKind(err, core.ErrUserAborted) {
			os.Exit(0)
		}
		printer := output.Default()
		printer.Error(err.Error())

		var ve *core.ValidationError
		if errors.As(err, &ve) && ve.Suggestion != "" {
			printer.Muted("hint: " + ve.Suggestion)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.schemasync/config.toml)")
	rootCmd.PersistentFlags().StringP("host", "H", "", "MySQL host")
	rootCmd.PersistentFlags().IntP("port", "P", 3306, "MySQL port")
	rootCmd.PersistentFlags().StringP("user", "u", "", "MySQL user")
	rootCmd.PersistentFlags().StringP("password", "p", "", "MySQL password (prompts when given without a value)")
	rootCmd.PersistentFlags().Lookup("password").NoOptDefVal = ""
	rootCmd.PersistentFlags().StringP("database", "d", "", "Target database")
	rootCmd.PersistentFlags().StringP("socket", "S", "", "Unix socket path")
	rootCmd.PersistentFlags().String("connection", "default", "Named connection from the registry")
	rootCmd.PersistentFlags().String("models-dir", "application/models", "Directory containing model definition files")
	rootCmd.PersistentFlags().String("tls", "", "TLS mode: disabled, preferred, required, skip-verify, custom")
	rootCmd.PersistentFlags().String("tls-ca", "", "CA certificate file (required for --tls=custom)")

	for _, flag := range []string{"host", "port", "user", "database", "socket", "connection", "models-dir", "tls", "tls-ca"} {
		_ = viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag))
	}

	rootCmd.AddCommand(modelCommands()...)
	rootCmd.AddCommand(dbCommands()...)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".schemasync"))
			viper.SetConfigName("config")
			viper.SetConfigType("toml")
		}
	}

	viper.SetEnvPrefix("SCHEMASYNC")
	viper.AutomaticEnv()

	// The config file is optional.
	_ = viper.ReadInConfig()
}

// connectionConfig assembles the effective connection parameters:
// registry entry first; explicit flags override it, while environment and
// config-file values fill only the fields it leaves empty.
func connectionConfig(cmd *cobra.Command) (conn.Config, error) {
	registry, err := conn.LoadRegistry("")
	if err != nil {
		return conn.Config{}, err
	}

	cfg, err := registry.Get(viper.GetString("connection"))
	if err != nil {
		// No registry entry is fine when flags carry everything.
		cfg = conn.Config{}
	}

	// Explicit flags always win; otherwise viper (env, config file)
	// fills only what the registry left empty, so a registry port is
	// not clobbered by the flag default.
	flags := cmd.Flags()
	if flags.Changed("host") || cfg.Host == "" {
		if v := viper.GetString("host"); v != "" {
			cfg.Host = v
		}
	}
	if flags.Changed("port") || cfg.Port == 0 {
		if v := viper.GetInt("port"); v != 0 {
			cfg.Port = v
		}
	}
	if flags.Changed("user") || cfg.User == "" {
		if v := viper.GetString("user"); v != "" {
			cfg.User = v
		}
	}
	if flags.Changed("database") || cfg.Database == "" {
		if v := viper.GetString("database"); v != "" {
			cfg.Database = v
		}
	}
	if flags.Changed("socket") || cfg.Socket == "" {
		if v := viper.GetString("socket"); v != "" {
			cfg.Socket = v
		}
	}
	if flags.Changed("tls") || cfg.TLSMode == "" {
		if v := viper.GetString("tls"); v != "" {
			cfg.TLSMode = v
		}
	}
	if flags.Changed("tls-ca") || cfg.TLSCA == "" {
		if v := viper.GetString("tls-ca"); v != "" {
			cfg.TLSCA = v
		}
	}

	if cmd.Flags().Changed("password") {
		pw, _ := cmd.Flags().GetString("password")
		if pw == "" {
			pw = promptPassword()
		}
		cfg.Password = pw
	}

	return cfg, nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword() string {
	fmt.Print("Enter password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(password)
}

// openConnection opens the effective connection for a command.
func openConnection(ctx context.Context, cmd *cobra.Command) (*conn.DB, error) {
	cfg, err := connectionConfig(cmd)
	if err != nil {
		return nil, err
	}
	return conn.Open(ctx, cfg)
}

// loadModel parses the named model file from the models directory.
func loadModel(name string) (*core.Schema, error) {
	path := filepath.Join(viper.GetString("models-dir"), name+".model")
	return model.NewParser().ParseFile(path)
}
