package main

import (
	"fmt"
	"os"

	"github.com/MrKirlew/THEEPHONE/common/version"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/app"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/config"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/observability"
)

func main() {
	fmt.Printf("Kirlew AI Gateway\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	cfg := config.Load()
	observability.Setup(cfg.LogLevel, cfg.LogFormat)

	gateway, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize gateway: %v\n", err)
		os.Exit(1)
	}
	defer gateway.Stop()

	if err := gateway.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running gateway: %v\n", err)
		os.Exit(1)
	}
}
