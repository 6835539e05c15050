package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorgonia/puctstep"
	"github.com/gorgonia/puctstep/protocol"
	"github.com/rs/zerolog"
)

const version = "0.1.0"

var (
	confFile    = flag.String("config", "", "YAML config file. Flags that are set override its values")
	name        = flag.String("name", "", "name of the run")
	gamma       = flag.Float64("gamma", 0.8, "discount factor, in (0, 1]")
	depth       = flag.Int("depth", 3, "maximum tree depth")
	c           = flag.Float64("c", 1, "exploration constant of PUCT")
	iterations  = flag.Int("iterations", 20000, "iterations per search")
	rewardMean  = flag.Float64("reward-mean", 0, "mean of the rewards of new nodes")
	rewardStd   = flag.Float64("reward-std", 0.2, "standard deviation of the rewards of new nodes")
	bonus       = flag.Float64("bonus", 0, "bonus reward of the first node created at the maximum depth")
	seed        = flag.Uint64("seed", 23, "seed of the random number generator")
	trials      = flag.Int("trials", 0, "play this many episodes and report how often the highest return is found")
	statsFile   = flag.String("stats", "", "write the trials as CSV to this file")
	dotFile     = flag.String("dot", "", "write the final tree in the DOT language to this file")
	httpAddr    = flag.String("http", "", "stream search events as JSON over a websocket at ws://<addr>/ws")
	interactive = flag.Bool("i", false, "read protocol commands from stdin")
	verbose     = flag.Bool("v", false, "debug logging")
)

func loadConfig() (puctstep.Config, error) {
	conf := puctstep.DefaultConfig()
	if *confFile != "" {
		var err error
		if conf, err = puctstep.LoadConfig(*confFile); err != nil {
			return conf, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			conf.Name = *name
		case "gamma":
			conf.Search.Gamma = *gamma
		case "depth":
			conf.Search.MaxTreeDepth = *depth
		case "c":
			conf.Search.ExplorationConstant = *c
		case "iterations":
			conf.Search.MaxIterations = *iterations
		case "reward-mean":
			conf.Search.RewardMean = *rewardMean
		case "reward-std":
			conf.Search.RewardStd = *rewardStd
		case "bonus":
			conf.Search.BonusReward = *bonus
		case "seed":
			conf.Search.Seed = *seed
		case "trials":
			conf.Trials = *trials
		}
	})
	return conf, conf.Validate()
}

func main() {
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	conf, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("bad config")
	}

	if *httpAddr != "" {
		outEnc := NewEncoder(logger)
		go func(h http.Handler) {
			mux := http.NewServeMux()
			mux.Handle("/ws", h)
			logger.Info().Msgf("ws://%v/ws", *httpAddr)
			if err := http.ListenAndServe(*httpAddr, mux); err != nil {
				logger.Error().Err(err).Msg("http server stopped")
			}
		}(outEnc)
		conf.OutputEncoder = outEnc
	}

	r, err := puctstep.New(conf, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to create the search")
	}

	switch {
	case *interactive:
		e := protocol.New(r, r.Name(), version, nil)
		if err := e.Serve(os.Stdin, os.Stdout); err != nil {
			logger.Fatal().Err(err).Msg("protocol")
		}
	case *trials > 0 || *statsFile != "":
		stats, err := r.Trials(conf.Trials)
		if err != nil {
			logger.Fatal().Err(err).Msg("trials")
		}
		fmt.Printf("pass %%: %.4f\navg diff of failures: %.4f\navg diff of passes: %.4f\n",
			stats.PassRate(), stats.AvgGapFail, stats.AvgGapPass)
		if *statsFile != "" {
			if err := stats.Dump(*statsFile); err != nil {
				logger.Fatal().Err(err).Msg("unable to write statistics")
			}
		}
	default:
		trajectory, err := r.RunToEnd()
		if err != nil {
			logger.Fatal().Err(err).Msg("run to end")
		}
		root := r.SearchRoot()
		stats := r.Stats()
		fmt.Printf("trajectory: %v\nreturn: %.4f\nmax return: %.4f\n", trajectory, root.Return(), stats.MaxReturn)
	}

	if *dotFile != "" {
		dot, err := r.ToDot()
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to render the tree")
		}
		if err := os.WriteFile(*dotFile, []byte(dot), 0644); err != nil {
			logger.Fatal().Err(err).Msg("unable to write the tree")
		}
	}
}
