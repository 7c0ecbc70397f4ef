package main

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	audienceIdle      time.Duration
	audiencePurge     time.Duration
	bind              string
	corsOrigins       []string
	mongoDatabase     string
	mongoTransactions bool
	mongoURI          string
	participateURL    string
	port              int
	prefix            string
	profile           bool
	tlsCert           string
	tlsKey            string
	verbose           bool
	version           bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.audienceIdle < 0 || c.audiencePurge < 0 {
		return errors.New("audience timeouts cannot be negative")
	}
	if c.audiencePurge > 0 && c.audiencePurge < c.audienceIdle {
		return fmt.Errorf("--audience-purge-after (%s) must not be shorter than --audience-idle-timeout (%s)", c.audiencePurge, c.audienceIdle)
	}
	if c.mongoURI != "" && c.mongoDatabase == "" {
		return errors.New("--mongodb-database cannot be empty")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// allowOrigin is the websocket upgrader's origin check. Requests without an
// Origin header are not from a browser and are always let through.
func (c *Config) allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(c.corsOrigins, "*") {
		return true
	}
	return slices.ContainsFunc(c.corsOrigins, func(o string) bool {
		return strings.EqualFold(strings.TrimSuffix(o, "/"), origin)
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LIARLIAR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "liarliar",
		Short:         "Runs the live game controller for a Liar, Liar comedy show.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.DurationVar(&cfg.audienceIdle, "audience-idle-timeout", 24*time.Hour, "time before idle audience members are deactivated, 0 to disable (env: LIARLIAR_AUDIENCE_IDLE_TIMEOUT)")
	fs.DurationVar(&cfg.audiencePurge, "audience-purge-after", 0, "time before deactivated audience members are deleted, 0 to disable (env: LIARLIAR_AUDIENCE_PURGE_AFTER)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: LIARLIAR_BIND)")
	fs.StringSliceVar(&cfg.corsOrigins, "cors-origins", []string{"*"}, "origins allowed to open websockets, * for any (env: LIARLIAR_CORS_ORIGINS)")
	fs.StringVar(&cfg.mongoDatabase, "mongodb-database", "liarliar", "database to store the show in (env: LIARLIAR_MONGODB_DATABASE)")
	fs.BoolVar(&cfg.mongoTransactions, "mongodb-transactions", true, "write guesses and scores in a transaction, requires a replica set (env: LIARLIAR_MONGODB_TRANSACTIONS)")
	fs.StringVar(&cfg.mongoURI, "mongodb-uri", "", "mongodb connection string, empty to keep the show in memory (env: LIARLIAR_MONGODB_URI, MONGODB_URI)")
	fs.StringVar(&cfg.participateURL, "participate-url", "", "url encoded by the qr code, defaults to this server (env: LIARLIAR_PARTICIPATE_URL)")
	fs.IntVarP(&cfg.port, "port", "p", 3001, "port to listen on (env: LIARLIAR_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: LIARLIAR_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: LIARLIAR_PROFILE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: LIARLIAR_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: LIARLIAR_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: LIARLIAR_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: LIARLIAR_VERSION)")

	_ = v.BindEnv("mongodb-uri", "LIARLIAR_MONGODB_URI", "MONGODB_URI")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		if f.Name != "mongodb-uri" {
			_ = v.BindEnv(f.Name)
		}
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, envValue(v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("liarliar v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// envValue formats a viper value the way pflag parses it back.
func envValue(val any) string {
	if s, ok := val.([]string); ok {
		return strings.Join(s, ",")
	}
	return fmt.Sprintf("%v", val)
}
