package main

import (
	"log/slog"
	"net/http"
	"os"

	_ "net/http/pprof" // profiling

	_ "github.com/joho/godotenv/autoload" // automatically load .env files

	"github.com/openagents/harness/internal/cmd"
	"github.com/openagents/harness/internal/log"
)

func main() {
	defer log.RecoverPanic("main", func() {
		slog.Error("harness terminated due to unhandled panic")
	})

	if os.Getenv("OPENAGENTS_PROFILE") != "" {
		go func() {
			slog.Info("serving pprof at localhost:6060")
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				slog.Error("pprof listen failed", "error", err)
			}
		}()
	}

	cmd.Execute()
}
