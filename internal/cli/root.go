package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kbukum/apikit/config"
	"github.com/kbukum/apikit/httpclient/rest"
	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/observability"
)

// rootOptions holds the global flags and the state built from them.
type rootOptions struct {
	configFile string
	envFile    string
	jq         string
	logLevel   string
	telemetry  bool
	api        rest.Config

	cfg      Config
	log      *logger.Logger
	metrics  *observability.ClientMetrics
	shutdown []func(context.Context) error
}

// Execute runs the command line with args, writing results to stdout and
// logs and progress to stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &rootOptions{}
	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if closeErr := opts.close(); err == nil {
		err = closeErr
	}
	return err
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "apikit",
		Short: "Call an envelope API from the command line",
		Long: `apikit sends calls to a backend that wraps every response in
{"status", "message", "responseData"} and prints the decoded envelope.

Configuration is read from config.yml, .env files and API_* environment
variables; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}
	addRootFlags(root.PersistentFlags(), opts)
	root.AddCommand(
		newAppSettingsCmd(opts),
		newRequestCmd(opts),
		newUploadCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

func addRootFlags(fs *pflag.FlagSet, o *rootOptions) {
	fs.StringVar(&o.configFile, "config", "", "config file (default: search for config.yml)")
	fs.StringVar(&o.envFile, "env-file", "", ".env file (default: search for .env)")
	fs.StringVar(&o.api.BaseURL, "base-url", "", "API base URL")
	fs.StringVar(&o.api.APIKey, "api-key", "", "value of the api-key header")
	fs.StringVar(&o.api.Version, "api-version", "", "value of the version header")
	fs.StringVar(&o.api.Token, "token", "", "access token for authorized calls")
	fs.StringVar(&o.api.Language, "language", "", "value of the X-localization header")
	fs.StringVar(&o.api.DeviceType, "device-type", "", "device_type sent with every call (default iOS)")
	fs.DurationVar(&o.api.Timeout, "timeout", 0, "call timeout (default 30s)")
	fs.BoolVar(&o.api.StrictPayload, "strict", false, "reject payload keys the target type does not declare")
	fs.StringVar(&o.jq, "jq", "", "jq expression applied to the JSON output")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.BoolVar(&o.telemetry, "telemetry", false, "export traces and metrics over OTLP")
}

// load reads the configuration, applies flag overrides and sets up logging
// and telemetry.
func (o *rootOptions) load(cmd *cobra.Command) error {
	var cfg Config
	err := config.LoadConfig(serviceName, &cfg,
		config.WithConfigFile(o.configFile),
		config.WithEnvFile(o.envFile),
	)
	if err != nil {
		return err
	}
	o.applyFlags(cmd.Flags(), &cfg)
	cfg.ApplyDefaults()
	if err := cfg.ServiceConfig.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	o.log = logger.NewWithWriter(&cfg.Logging, cfg.Name, cmd.ErrOrStderr())
	logger.SetGlobalLogger(o.log)

	if cfg.Telemetry.Enabled {
		return o.startTelemetry(cmd.Context())
	}
	return nil
}

// applyFlags copies the flags set on the command line over cfg.
func (o *rootOptions) applyFlags(fs *pflag.FlagSet, cfg *Config) {
	overrides := map[string]func(){
		"base-url":    func() { cfg.API.BaseURL = o.api.BaseURL },
		"api-key":     func() { cfg.API.APIKey = o.api.APIKey },
		"api-version": func() { cfg.API.Version = o.api.Version },
		"token":       func() { cfg.API.Token = o.api.Token },
		"language":    func() { cfg.API.Language = o.api.Language },
		"device-type": func() { cfg.API.DeviceType = o.api.DeviceType },
		"timeout":     func() { cfg.API.Timeout = o.api.Timeout },
		"strict":      func() { cfg.API.StrictPayload = o.api.StrictPayload },
		"log-level":   func() { cfg.Logging.Level = o.logLevel },
		"telemetry":   func() { cfg.Telemetry.Enabled = o.telemetry },
	}
	for name, apply := range overrides {
		if fs.Changed(name) {
			apply()
		}
	}
}

func (o *rootOptions) startTelemetry(ctx context.Context) error {
	tp, err := observability.InitTracer(ctx, &o.cfg.Telemetry.Tracing)
	if err != nil {
		return err
	}
	o.shutdown = append(o.shutdown, tp.Shutdown)

	mp, err := observability.InitMeter(ctx, &o.cfg.Telemetry.Metrics)
	if err != nil {
		return err
	}
	o.shutdown = append(o.shutdown, mp.Shutdown)

	o.metrics, err = observability.NewClientMetrics(observability.Meter(serviceName))
	return err
}

// client builds the API client from the loaded configuration.
func (o *rootOptions) client() (*rest.Client, error) {
	return rest.New(o.cfg.API, rest.WithLogger(o.log), rest.WithMetrics(o.metrics))
}

// close flushes telemetry, independently of the command's context.
func (o *rootOptions) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for i := len(o.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, o.shutdown[i](ctx))
	}
	o.shutdown = nil
	return errors.Join(errs...)
}
