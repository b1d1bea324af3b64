// Command vehiclesim assembles a catalog vehicle, flies it headless on a fixed step and
// optionally writes a flight recording.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/pflag"

	"driftpursuit/vehicles/internal/aero"
	"driftpursuit/vehicles/internal/audio"
	"driftpursuit/vehicles/internal/catalog"
	"driftpursuit/vehicles/internal/config"
	"driftpursuit/vehicles/internal/debug"
	"driftpursuit/vehicles/internal/input"
	"driftpursuit/vehicles/internal/logging"
	"driftpursuit/vehicles/internal/physics"
	"driftpursuit/vehicles/internal/replay"
	"driftpursuit/vehicles/internal/simulation"
	"driftpursuit/vehicles/internal/vehicle"
)

const (
	vehicleID = "player"
	// spawnAltitude keeps the vehicle clear of the ground at launch.
	spawnAltitude = 500.0
	// launchSpeed is the forward speed in m/s a non-debug flight starts with.
	launchSpeed = 60.0
	// tailSeconds is how long a headless run keeps flying after the script ends.
	tailSeconds = 10.0
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "vehiclesim:", err)
		os.Exit(1)
	}
}

func newFlagSet(out io.Writer) (*pflag.FlagSet, *string) {
	flags := pflag.NewFlagSet("vehiclesim", pflag.ContinueOnError)
	flags.SetOutput(out)
	configPath := flags.String("config", "", "path to a YAML, JSON or TOML config file")
	flags.Int("ticks", 0, "number of fixed steps to run; 0 runs the script plus a tail, or forever in realtime")
	flags.Float64("tick-hz", config.DefaultTickHz, "fixed steps per simulated second")
	flags.Bool("realtime", false, "pace steps against the wall clock")
	flags.String("assembly", config.DefaultAssembly, "catalog layout to fly")
	flags.String("script", "", "YAML or JSON input script; empty uses the built-in launch sequence")
	flags.String("aero-mode", config.DefaultAeroMode, "aerodynamic force blending: midpoint or current")
	flags.Bool("sas", false, "start with the stability assist enabled")
	flags.Bool("debug", false, "enable debug overlays and force vectors")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")
	flags.String("log-path", "", "write logs to a rotated file")
	flags.String("replay-dir", config.DefaultReplayDir, "directory for flight recordings")
	flags.Bool("record", false, "write a flight recording")
	return flags, configPath
}

func run(ctx context.Context, args []string, out io.Writer) error {
	//1.- Flags feed viper, which layers them over file and environment values.
	flags, configPath := newFlagSet(out)
	if err := flags.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(flags, *configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Close()
	ctx, log, runID := logging.WithRun(ctx, logger, "")

	mode, err := aero.ParseMode(cfg.Aero.Mode)
	if err != nil {
		return err
	}
	parts := catalog.Default()

	//2.- Recording is optional; old recordings are pruned before a new one starts.
	var recorder *replay.Recorder
	if cfg.Replay.Enabled {
		cleaner := replay.NewCleaner(cfg.Replay.Dir, replay.RetentionPolicy{MaxRuns: cfg.Replay.MaxRuns, MaxAge: cfg.Replay.MaxAge}, log)
		if stats, err := cleaner.Sweep(); err != nil {
			log.Warn("recording sweep failed", logging.Error(err))
		} else {
			log.Debug("recordings swept", logging.Int("kept", stats.Runs), logging.Int("removed", stats.Removed), logging.Int64("bytes", stats.Bytes))
		}
		writer, _, err := replay.NewWriter(cfg.Replay.Dir, runID, nil)
		if err != nil {
			return fmt.Errorf("open flight recording: %w", err)
		}
		recorder = replay.NewRecorder(writer, log)
		defer func() {
			if err := recorder.Close(); err != nil {
				log.Error("flight recording close failed", logging.Error(err))
			}
		}()
	}

	//3.- Assemble the vehicle with its services.
	services := vehicle.Services{
		Logger:  log,
		Audio:   audio.NewManager(parts.Library()),
		Effects: logEffects{log: log},
	}
	if cfg.Debug.Enabled {
		services.Debug = debug.NewChannel()
	}
	if recorder != nil {
		services.Events = recorder
	}
	body := physics.NewRigidBody(physics.NewFrame(mgl64.Vec3{0, spawnAltitude, 0}, mgl64.QuatIdent()))
	v, err := parts.Assemble(vehicleID, cfg.Simulation.Assembly, body,
		vehicle.WithServices(services),
		vehicle.WithEnvironment(cfg.Environment),
		vehicle.WithAeroMode(mode),
		vehicle.WithDebug(cfg.Debug),
	)
	if err != nil {
		return err
	}
	if !cfg.Debug.Enabled {
		body.SetVelocity(mgl64.Vec3{0, 0, launchSpeed})
	}
	controller := vehicle.NewController(v, cfg.Control)

	script, err := loadScript(cfg)
	if err != nil {
		return err
	}

	//4.- Build the world around the vehicle.
	monitor, err := simulation.NewTickMonitor(nil, runID)
	if err != nil {
		return err
	}
	opts := []simulation.Option{
		simulation.WithTerrain(simulation.Ground(0)),
		simulation.WithMonitor(monitor),
		simulation.WithLogger(log),
	}
	if recorder != nil {
		opts = append(opts, simulation.WithRecorder(recorder))
	}
	world := simulation.NewWorld(runID, cfg.Simulation.StepSeconds(), opts...)
	if err := world.AddVehicle(v, controller, script); err != nil {
		return err
	}

	ticks := cfg.Simulation.Ticks
	if ticks <= 0 && !cfg.Simulation.Realtime {
		ticks = int(math.Ceil((script.Duration() + tailSeconds) * cfg.Simulation.TickHz))
	}
	log.Info("flight starting",
		logging.String("assembly", cfg.Simulation.Assembly),
		logging.Int("parts", v.PartCount()),
		logging.Float64("mass", v.Mass()),
		logging.String("aero_mode", string(mode)),
		logging.Int("ticks", ticks),
		logging.Bool("realtime", cfg.Simulation.Realtime),
	)

	//5.- Fly.
	if cfg.Simulation.Realtime {
		err = world.RunRealtime(ctx, ticks)
	} else {
		err = world.Run(ctx, ticks)
	}
	if errors.Is(err, context.Canceled) {
		log.Warn("flight interrupted", logging.Uint64("tick", world.Tick()))
		err = nil
	}
	if recorder != nil {
		recorder.Writer().SetRunMetadata(string(mode), []string{v.ID}, replay.RunParameters{
			"tick_hz":     cfg.Simulation.TickHz,
			"ticks":       float64(world.Tick()),
			"air_density": cfg.Environment.AirDensity,
			"gravity":     cfg.Environment.Gravity,
		})
	}
	summarize(log, world, v, monitor, recorder)
	return err
}

func loadConfig(flags *pflag.FlagSet, path string) (*config.Config, error) {
	return config.Load(config.Options{File: path, Flags: flags})
}

// loadScript reads the configured script or falls back to the launch sequence.
func loadScript(cfg *config.Config) (*input.Script, error) {
	if cfg.Simulation.Script != "" {
		return input.LoadScript(cfg.Simulation.Script)
	}
	keys := cfg.Control.Keys
	return input.NewScript(
		input.Step{At: 0, Key: keys.Ignite, Action: input.ActionTap},
		input.Step{At: 0, Key: keys.ThrottleUp, Action: input.ActionPress},
		input.Step{At: 2, Key: keys.ThrottleUp, Action: input.ActionRelease},
		input.Step{At: 4, Key: keys.ToggleSAS, Action: input.ActionTap},
		input.Step{At: 8, Key: keys.Shutdown, Action: input.ActionTap},
	)
}

func summarize(log *logging.Logger, world *simulation.World, v *vehicle.Vehicle, monitor *simulation.TickMonitor, recorder *replay.Recorder) {
	body := v.Body()
	position := body.Frame().Position
	velocity := body.Velocity()
	timing := monitor.Snapshot()
	fields := []logging.Field{
		logging.Uint64("ticks", world.Tick()),
		logging.Duration("simulated", world.Elapsed()),
		logging.Floats("position", position[0], position[1], position[2]),
		logging.Floats("velocity", velocity[0], velocity[1], velocity[2]),
		logging.Int("parts", v.PartCount()),
		logging.Float64("mass", v.Mass()),
		logging.Bool("kinematic", body.Kinematic()),
		logging.Duration("tick_avg", timing.Average),
		logging.Duration("tick_max", timing.Max),
	}
	if recorder != nil {
		stats := recorder.Snapshot()
		fields = append(fields,
			logging.String("recording", recorder.Writer().Directory()),
			logging.Int64("frames", stats.Frames),
			logging.Int64("events", stats.Events),
			logging.Int64("failed_writes", stats.FailedWrites),
		)
	}
	log.Info("flight finished", fields...)
}

// logEffects reports visual effects through the log since the simulator renders nothing.
type logEffects struct {
	log *logging.Logger
}

func (e logEffects) Explosion(effect string, at physics.Frame) {
	e.log.Debug("explosion effect",
		logging.String("effect", effect),
		logging.Floats("position", at.Position[0], at.Position[1], at.Position[2]),
	)
}

func (e logEffects) Plume(part vehicle.PartID, lit bool) {
	e.log.Debug("engine plume", logging.String("part", string(part)), logging.Bool("lit", lit))
}
