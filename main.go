package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/skyezerfox/mcstat/protocol"
	"github.com/skyezerfox/mcstat/query"
	"github.com/skyezerfox/mcstat/servers"
	"github.com/skyezerfox/mcstat/ui"
)

var (
	errorColor = color.New(color.FgRed)
	warnColor  = color.New(color.FgYellow)
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	viper.SetConfigName("mcstat")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "mcstat"))
	}

	viper.SetDefault("timeout", 2.0)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatal().Err(err).Msg("Failed to read config")
		}
	}
}

type options struct {
	server      string
	instance    string
	serversFile string
	timeout     time.Duration
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		server      string
		instance    string
		serversFile string
		timeout     float64
		debug       bool
	)
	flag.StringVar(&server, "server", "", "IP/domain of the minecraft server to query")
	flag.StringVar(&server, "s", "", "shorthand for -server")
	flag.StringVar(&instance, "instance", "", "path to your minecraft instance folder (default: the standard .minecraft folder)")
	flag.StringVar(&instance, "i", "", "shorthand for -instance")
	flag.StringVar(&serversFile, "servers-file", "", "path to the servers.dat file to choose a server from")
	flag.StringVar(&serversFile, "f", "", "shorthand for -servers-file")
	flag.Float64Var(&timeout, "timeout", viper.GetFloat64("timeout"), "connection timeout in seconds")
	flag.Float64Var(&timeout, "t", viper.GetFloat64("timeout"), "shorthand for -timeout")
	flag.BoolVar(&debug, "debug", false, "log protocol traffic")
	flag.Parse()

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	exclusive := 0
	for _, v := range []string{server, instance, serversFile} {
		if v != "" {
			exclusive++
		}
	}
	if exclusive > 1 {
		errorColor.Fprintln(os.Stderr, "mcstat: -server, -instance and -servers-file are mutually exclusive")
		return 2
	}

	opts := options{
		server:      server,
		instance:    instance,
		serversFile: serversFile,
		timeout:     time.Duration(timeout * float64(time.Second)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The interrupt watcher races the whole app body; the interrupt
	// always wins, restores the terminal and exits without output.
	done := make(chan error, 1)
	go func() { done <- app(ctx, opts) }()

	var err error
	select {
	case <-ctx.Done():
		err = context.Canceled
	case err = <-done:
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled), errors.Is(err, ui.ErrInterrupted):
		ui.RestoreTerminal()
		fmt.Fprint(os.Stderr, "\r\033[K\033[?25h")
		return 1
	default:
		errorColor.Fprintf(os.Stderr, "mcstat: %v\n", err)
		return 1
	}
}

func app(ctx context.Context, opts options) error {
	addr := opts.server
	if addr == "" {
		entry, err := pickServer(opts)
		if err != nil {
			return err
		}
		addr = entry.Address
	}

	target, err := query.ParseAddress(addr)
	if err != nil {
		return fmt.Errorf("bad server address %q: %w", addr, err)
	}

	spinner := ui.NewSpinner()
	spinner.Start()
	res, err := query.Run(ctx, target, query.Options{
		Timeout:  opts.timeout,
		Progress: spinner.SetMessage,
	})
	spinner.Stop()

	// A ping failure after a successful status exchange is reported as
	// a warning; the status itself is still worth printing.
	var pingErr error
	if err != nil {
		if res == nil || errors.Is(err, context.Canceled) {
			return err
		}
		pingErr = err
	}

	report(res)

	if pingErr != nil {
		if errors.Is(pingErr, protocol.ErrPingMismatch) {
			warnColor.Fprintln(os.Stderr, "warning: server echoed a different ping payload")
		} else {
			warnColor.Fprintf(os.Stderr, "warning: ping failed: %v\n", pingErr)
		}
	}
	return nil
}

// pickServer decodes the servers.dat resolved from the flags and asks
// the user which entry to query.
func pickServer(opts options) (servers.Entry, error) {
	path := opts.serversFile
	if path == "" {
		dir := opts.instance
		if dir == "" {
			var err error
			dir, err = servers.DefaultDataDir()
			if err != nil {
				return servers.Entry{}, err
			}
		}
		path = filepath.Join(dir, "servers.dat")
	}

	entries, err := servers.Load(path)
	if err != nil {
		return servers.Entry{}, err
	}
	if len(entries) == 0 {
		return servers.Entry{}, fmt.Errorf("%s lists no servers", path)
	}

	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.Label()
	}
	idx, err := ui.Select("Which server?", labels)
	if err != nil {
		return servers.Entry{}, err
	}
	return entries[idx], nil
}

func report(res *query.Result) {
	if res.Version != "" || res.MOTD != "" {
		log.Info().Str("version", res.Version).Str("motd", res.MOTD).Msg("server responded")
	}

	colon := ""
	if len(res.Players) > 0 {
		colon = ":"
	}
	fmt.Printf("%d/%d online%s\n", res.Online, res.Max, colon)
	for _, line := range ui.Wrap(strings.Join(res.Players, " "), 60, 4) {
		fmt.Println(line)
	}
}
