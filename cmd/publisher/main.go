// Factory telemetry publisher.
//
// This is the entry point of the sensor publisher. It advances the simulated
// two-line factory on a fixed interval and publishes ten JSON messages per
// tick under factory/ to an MQTT broker over mutual TLS.
//
// Optional components, each enabled in the config file:
//   - SQLite session journal (database.enabled)
//   - InfluxDB health metrics (influxdb.enabled)
//   - Read-only HTTP status API (api.enabled)
//
// With -local the publisher runs against an in-process broker that enforces
// the reference ACL, and prints what the director and operator receive.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nerrad567/factory-telemetry/internal/api"
	"github.com/nerrad567/factory-telemetry/internal/broker"
	"github.com/nerrad567/factory-telemetry/internal/infrastructure/config"
	"github.com/nerrad567/factory-telemetry/internal/infrastructure/database"
	"github.com/nerrad567/factory-telemetry/internal/infrastructure/influxdb"
	"github.com/nerrad567/factory-telemetry/internal/infrastructure/logging"
	"github.com/nerrad567/factory-telemetry/internal/infrastructure/mqtt"
	"github.com/nerrad567/factory-telemetry/internal/roles"
	"github.com/nerrad567/factory-telemetry/internal/session"
	"github.com/nerrad567/factory-telemetry/internal/simulation"
	"github.com/nerrad567/factory-telemetry/internal/telemetry"
	"github.com/nerrad567/factory-telemetry/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/publisher.yaml"

// finishTimeout bounds the journal writes made after the run context ends.
const finishTimeout = 5 * time.Second

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
	local      bool
	ticks      int64
	seed       uint64
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("publisher", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", getConfigPath(), "path to the YAML config file (empty for built-in defaults)")
	fs.BoolVar(&opts.local, "local", false, "publish to an in-process broker and print what each role receives")
	fs.Int64Var(&opts.ticks, "ticks", 0, "stop after this many ticks (0 runs until interrupted)")
	fs.Uint64Var(&opts.seed, "seed", 0, "noise seed (overrides factory.seed)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.ticks < 0 {
		return options{}, fmt.Errorf("-ticks must not be negative")
	}
	return opts, nil
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	log := logging.Default()
	log.Info("starting factory telemetry publisher",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.seed != 0 {
		cfg.Factory.Seed = opts.seed
	}

	log = logging.New(cfg.Logging, version).With("factory_id", cfg.Factory.ID)
	log.Info("configuration loaded",
		"path", opts.configPath,
		"step_seconds", cfg.Factory.StepSeconds,
		"interval", cfg.TickInterval().String(),
	)

	factory := simulation.NewFactory(
		simulation.Config{StepSeconds: int64(cfg.Factory.StepSeconds)},
		simulation.NewRandNoise(cfg.Factory.Seed),
	)
	publisher := telemetry.NewPublisher(factory, telemetry.WithQoS(byte(cfg.MQTT.QoS)))

	runnerOpts := []telemetry.RunnerOption{
		telemetry.WithLogger(log),
		telemetry.WithMaxTicks(opts.ticks),
	}

	// Transport
	var channel telemetry.Channel
	var conn api.ConnectionState
	if opts.local {
		local, err := startLocalBroker(cfg.MQTT.Broker.ClientID, stdout, log)
		if err != nil {
			return fmt.Errorf("starting local broker: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), finishTimeout)
			defer cancel()
			if closeErr := local.close(flushCtx); closeErr != nil {
				log.Error("error closing local broker", "error", closeErr)
			}
		}()
		channel, conn = local.publisher, local.publisher
		log.Info("publishing to in-process broker", "client_id", cfg.MQTT.Broker.ClientID)
	} else {
		mqttClient, err := mqtt.ConnectWithRetry(ctx, cfg.MQTT, log)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
			"tls", cfg.MQTT.Broker.TLS,
		)
		channel, conn = mqttClient, mqttClient
	}

	// Session journal (optional)
	var (
		db       *database.DB
		repo     session.Repository
		recorder *session.Recorder
	)
	if cfg.Database.Enabled {
		db, err = database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		repo = session.NewSQLiteRepository(db.DB)
		recorder, err = session.Start(ctx, repo, cfg.Factory.ID, cfg.MQTT.Broker.ClientID, log)
		if err != nil {
			return err
		}
		defer func() {
			finishCtx, cancel := context.WithTimeout(context.Background(), finishTimeout)
			defer cancel()
			if finishErr := recorder.Finish(finishCtx); finishErr != nil {
				log.Error("error finishing session", "error", finishErr)
			}
		}()
		runnerOpts = append(runnerOpts, telemetry.WithObserver(recorder))
		log.Info("session journal open", "path", cfg.Database.Path, "session_id", recorder.SessionID())
	}

	// InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		runnerOpts = append(runnerOpts, telemetry.WithObserver(influxClient.Observer(cfg.Factory.ID)))
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	runner := telemetry.NewRunner(publisher, channel, cfg.TickInterval(), runnerOpts...)

	// Status API (optional)
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:    cfg.API,
			Logger:    log,
			Runner:    runner,
			Broker:    conn,
			FactoryID: cfg.Factory.ID,
			Version:   version,
		}
		if repo != nil {
			deps.Sessions = repo
			deps.DB = db
			deps.SessionID = recorder.SessionID()
		}
		server, err := api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("publishing telemetry", "topics", len(mqtt.TelemetryTopics()), "max_ticks", opts.ticks)

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("running publisher: %w", err)
	}

	st := runner.Status()
	log.Info("publisher stopped",
		"ticks", st.Ticks,
		"sent", st.TotalSent,
		"failed", st.TotalFailed,
	)
	return nil
}

// loadConfig reads path, or validates the built-in defaults when path is
// empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load(path)
}

// getConfigPath returns the configuration file path.
// Uses FACTORY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FACTORY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// localBroker is the in-process deployment used by -local: a broker with
// the reference ACL, the publisher client, and one printing listener per
// role.
type localBroker struct {
	broker      *broker.Broker
	publisher   *broker.Client
	subscribers []*broker.Client
}

func startLocalBroker(publisherID string, out io.Writer, log *logging.Logger) (*localBroker, error) {
	b := broker.New(roles.ACLRules(publisherID), broker.WithLogger(log))

	pub, err := b.Client(publisherID)
	if err != nil {
		b.Close() //nolint:errcheck // error path
		return nil, err
	}
	lb := &localBroker{broker: b, publisher: pub}

	var mu sync.Mutex
	for _, p := range roles.All() {
		sub, err := b.Client(p.ClientID)
		if err != nil {
			b.Close() //nolint:errcheck // error path
			return nil, err
		}

		printer := roles.NewPrinter(&labelWriter{w: out, label: "[" + string(p.Role) + "] "}, false)
		listener := roles.NewListener(p, func(r roles.Received) {
			mu.Lock()
			defer mu.Unlock()
			printer(r)
		})
		if err := listener.Start(sub); err != nil {
			b.Close() //nolint:errcheck // error path
			return nil, err
		}
		lb.subscribers = append(lb.subscribers, sub)
	}
	return lb, nil
}

// close waits for queued deliveries to be printed, then stops the broker.
func (lb *localBroker) close(ctx context.Context) error {
	var errs []error
	for _, sub := range lb.subscribers {
		if err := sub.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := lb.broker.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// labelWriter prefixes every write with a label. The printer writes one line
// per call.
type labelWriter struct {
	w     io.Writer
	label string
}

func (l *labelWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(l.w, l.label); err != nil {
		return 0, err
	}
	return l.w.Write(p)
}
