package main

import (
	"expvar"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/mkdrx/rest-api-deploy/internal/data"
	"github.com/mkdrx/rest-api-deploy/internal/jsonlog"
)

// Declare a string containing the version number.
const version = "1.0.0"

// Define an application struct to hold the dependencies for our HTTP handlers, helpers,
// and middleware. The movie store lives in models and is owned by the application, so each
// test can build its own.
type application struct {
	config config
	logger *jsonlog.Logger
	models data.Models
}

func main() {
	// Start with an INFO logger so configuration errors are reported, then rebuild it once
	// the configured level is known.
	logger := jsonlog.New(os.Stdout, jsonlog.LevelInfo)

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		logger.PrintFatal(err, nil)
	}

	level, _ := jsonlog.ParseLevel(cfg.Log.Level)
	logger = jsonlog.New(os.Stdout, level)

	// The seed is validated against the same schema as client input. A bad seed is fatal.
	seed, err := data.LoadSeed()
	if err != nil {
		logger.PrintFatal(err, nil)
	}

	logger.PrintInfo("seed data loaded", map[string]string{
		"movies": strconv.Itoa(len(seed)),
	})

	app := &application{
		config: cfg,
		logger: logger,
		models: data.NewModels(seed),
	}

	// Publish a new "version" variable in the expvar handler containing our application
	// version number, followed by a few runtime and store gauges.
	expvar.NewString("version").Set(version)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	expvar.Publish("movies", expvar.Func(func() any {
		return app.models.Movies.Count()
	}))

	expvar.Publish("timestamp", expvar.Func(func() any {
		return time.Now().Unix()
	}))

	err = app.serve()
	if err != nil {
		logger.PrintFatal(err, nil)
	}
}
