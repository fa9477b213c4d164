// Role-scoped factory telemetry subscriber.
//
// The subscriber connects with the identity of one role (director or
// operator), subscribes every filter of that role's profile, and prints each
// message it is allowed to receive. Filters the broker ACL denies are
// accepted silently and simply deliver nothing.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nerrad567/factory-telemetry/internal/infrastructure/config"
	"github.com/nerrad567/factory-telemetry/internal/infrastructure/logging"
	"github.com/nerrad567/factory-telemetry/internal/infrastructure/mqtt"
	"github.com/nerrad567/factory-telemetry/internal/roles"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/director.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	role       string
	noColor    bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("subscriber", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", getConfigPath(), "path to the YAML config file")
	fs.StringVar(&opts.role, "role", "", "subscriber role: director or operator (overrides subscriber.role)")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable ANSI colours")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	profile, err := resolveProfile(cfg, opts.role)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging, version).With("role", string(profile.Role))
	log.Info("starting factory telemetry subscriber",
		"version", version,
		"commit", commit,
		"build_date", date,
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	client, err := mqtt.ConnectWithRetry(ctx, cfg.MQTT, log)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected, subscriptions restored")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	listener := roles.NewListener(profile, roles.NewPrinter(stdout, !opts.noColor))
	if err := listener.Start(client); err != nil {
		return err
	}
	log.Info("subscribed", "filters", strings.Join(profile.Filters, ","))

	<-ctx.Done()

	st := listener.Stats()
	log.Info("subscriber stopped",
		"received", st.Received,
		"malformed", st.Malformed,
	)
	return nil
}

// resolveProfile picks the role profile and, when the config still carries
// the publisher's client ID, switches to the role's own identity.
func resolveProfile(cfg *config.Config, roleFlag string) (roles.Profile, error) {
	role := cfg.Subscriber.Role
	if roleFlag != "" {
		role = roleFlag
	}

	profile, err := roles.Lookup(role)
	if err != nil {
		return roles.Profile{}, err
	}

	if cfg.MQTT.Broker.ClientID == "" || cfg.MQTT.Broker.ClientID == config.Default().MQTT.Broker.ClientID {
		cfg.MQTT.Broker.ClientID = profile.ClientID
	}
	return profile, nil
}

// getConfigPath returns the configuration file path.
// Uses FACTORY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FACTORY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
