package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rexliu/flake/pkg/config"
	"github.com/rexliu/flake/pkg/flake"
	"github.com/rexliu/flake/pkg/logging"
	"github.com/rexliu/flake/pkg/storage/sqlite"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s error: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "init":
		return initCommand(args, out)
	case "node":
		return nodeCommand(args, out)
	case "gen":
		return genCommand(args, out)
	case "decode":
		return decodeCommand(args, out)
	case "list":
		return listCommand(args, out)
	case "diag":
		return diagCommand(args, out)
	case "version":
		fmt.Fprintf(out, "flake %s\n", version)
		return nil
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		usage(os.Stderr)
		return fmt.Errorf("unknown subcommand %q", cmd)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: flake <command> [options]")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  init      Initialize a local profile (writes config.toml)")
	fmt.Fprintln(w, "  node      Resolve and print the configured node id")
	fmt.Fprintln(w, "  gen       Generate ids (hex, components, base32 or uuid)")
	fmt.Fprintln(w, "  decode    Print the fields of an id in any text form")
	fmt.Fprintln(w, "  list      List recorded ids in a time range")
	fmt.Fprintln(w, "  diag      Print profile configuration paths")
	fmt.Fprintln(w, "  version   Print CLI version")
}

func initCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	profilePath := fs.String("profile", "./_dev_profile", "Profile directory")
	name := fs.String("name", "dev", "Profile name")
	source := fs.String("source", config.SourceHardware, "Node id source: hardware, interface or fixed")
	iface := fs.String("interface", "", "Interface name for -source interface")
	fixed := fs.Uint64("fixed", 0, "Node id for -source fixed")
	force := fs.Bool("force", false, "Overwrite existing config if present")
	if err := fs.Parse(args); err != nil {
		return err
	}
	configPath := filepath.Join(*profilePath, config.FileName)
	if _, err := os.Stat(configPath); err == nil && !*force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", configPath)
	}
	cfg := config.DefaultProfile(*name)
	cfg.Node = config.NodeConfig{Source: *source, Interface: *iface, Fixed: *fixed}
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "initialized profile %s at %s\n", cfg.ProfileName, *profilePath)
	return nil
}

// env bundles what every generating command needs.
type env struct {
	profile string
	cfg     *config.ProfileConfig
	logger  *logging.Logger
}

func loadEnv(profile string) (*env, error) {
	cfg, err := config.LoadProfile(profile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config not found in %s (run 'flake init --profile %s')", profile, profile)
		}
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Logging.FilePath != "" {
		cfg.Logging.FilePath = config.ResolvePath(profile, cfg.Logging.FilePath)
	}
	logger := logging.New("flake")
	if err := logger.Configure(cfg.Logging); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	return &env{profile: profile, cfg: cfg, logger: logger}, nil
}

func (e *env) generator() (*flake.Generator, error) {
	src, err := e.cfg.NodeSource(e.logger)
	if err != nil {
		return nil, err
	}
	return flake.NewFromSource(src, flake.WithLogger(e.logger))
}

func (e *env) openStore(ctx context.Context) (*sqlite.Store, error) {
	store, err := sqlite.Open(config.ResolvePath(e.profile, e.cfg.Storage.DBPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("init sqlite: %w", err)
	}
	return store, nil
}

func nodeCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("node", flag.ContinueOnError)
	profile := fs.String("profile", "./_dev_profile", "Profile directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := loadEnv(*profile)
	if err != nil {
		return err
	}
	src, err := e.cfg.NodeSource(e.logger)
	if err != nil {
		return err
	}
	id, err := src.Resolve()
	if err != nil {
		return err
	}
	b := id.Bytes()
	fmt.Fprintf(out, "node id: %d (%x) via %s\n", id, b[:], e.cfg.Node.Source)
	return nil
}

func genCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	profile := fs.String("profile", "./_dev_profile", "Profile directory")
	count := fs.Int("n", 1, "Number of ids to generate")
	format := fs.String("format", "hex", "Output format: hex, components, base32, uuid")
	record := fs.Bool("record", false, "Record generated ids in the profile ledger")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *count < 1 {
		return fmt.Errorf("-n must be positive")
	}
	render, err := formatter(*format)
	if err != nil {
		return err
	}
	e, err := loadEnv(*profile)
	if err != nil {
		return err
	}
	g, err := e.generator()
	if err != nil {
		return err
	}

	ids := make([]flake.ID, 0, *count)
	for len(ids) < *count {
		id, err := g.Next()
		if errors.Is(err, flake.ErrSequenceOverflow) {
			time.Sleep(time.Millisecond)
			continue
		}
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	if *record {
		ctx := context.Background()
		store, err := e.openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Put(ctx, ids...); err != nil {
			return fmt.Errorf("record ids: %w", err)
		}
		e.logger.Debugf("recorded %d ids in %s", len(ids), store.Path())
	}
	for _, id := range ids {
		fmt.Fprintln(out, render(id))
	}
	return nil
}

func formatter(name string) (func(flake.ID) string, error) {
	switch name {
	case "hex":
		return flake.ID.Hex, nil
	case "components":
		return flake.ID.Components, nil
	case "base32":
		return flake.ID.Base32, nil
	case "uuid":
		return func(id flake.ID) string { return id.UUID().String() }, nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}

func decodeCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: flake decode <id>...")
	}
	for _, raw := range fs.Args() {
		id, err := flake.Parse(raw)
		if err != nil {
			return err
		}
		node := id.Node()
		fmt.Fprintf(out, "id:         %s\n", id.Hex())
		fmt.Fprintf(out, "components: %s\n", id.Components())
		fmt.Fprintf(out, "base32:     %s\n", id.Base32())
		fmt.Fprintf(out, "uuid:       %s\n", id.UUID())
		fmt.Fprintf(out, "time:       %s\n", id.Time().Format(time.RFC3339Nano))
		fmt.Fprintf(out, "node:       %d (%x)\n", id.NodeValue(), node[:])
		fmt.Fprintf(out, "sequence:   %d\n", id.Sequence())
	}
	return nil
}

func listCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	profile := fs.String("profile", "./_dev_profile", "Profile directory")
	since := fs.String("since", "", "Start of range (RFC 3339 or epoch ms); default epoch")
	until := fs.String("until", "", "End of range, exclusive (RFC 3339 or epoch ms); default now")
	limit := fs.Int("limit", 100, "Maximum results (0 for all)")
	format := fs.String("format", "hex", "Output format: hex, components, base32, uuid")
	if err := fs.Parse(args); err != nil {
		return err
	}
	render, err := formatter(*format)
	if err != nil {
		return err
	}
	from, err := parseTime(*since, time.UnixMilli(0))
	if err != nil {
		return fmt.Errorf("-since: %w", err)
	}
	to, err := parseTime(*until, time.Now().Add(time.Millisecond))
	if err != nil {
		return fmt.Errorf("-until: %w", err)
	}
	e, err := loadEnv(*profile)
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	ids, err := store.Range(ctx, from, to, *limit)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(out, render(id))
	}
	return nil
}

func parseTime(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Parse(time.RFC3339, raw)
}

func diagCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("diag", flag.ContinueOnError)
	profile := fs.String("profile", "./_dev_profile", "Profile directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.LoadProfile(*profile)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Profile: %s\n", cfg.ProfileName)
	fmt.Fprintf(out, "Config: %s\n", filepath.Join(*profile, config.FileName))
	fmt.Fprintf(out, "DB Path: %s\n", config.ResolvePath(*profile, cfg.Storage.DBPath))
	fmt.Fprintf(out, "Node Source: %s\n", cfg.Node.Source)
	switch cfg.Node.Source {
	case config.SourceInterface:
		fmt.Fprintf(out, "Interface: %s\n", cfg.Node.Interface)
	case config.SourceFixed:
		fmt.Fprintf(out, "Fixed Node: %d\n", cfg.Node.Fixed)
	}
	if cfg.Logging.FilePath != "" {
		fmt.Fprintf(out, "Log File: %s\n", config.ResolvePath(*profile, cfg.Logging.FilePath))
	}
	return nil
}
