// Command export dumps every rating as "user_id,movie_id,rating" rows without a header,
// the input format of the offline model trainer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yishak-cs/movierec/internal/logger"
	"github.com/yishak-cs/movierec/pkg/helper"
	"github.com/yishak-cs/movierec/pkg/ratingexport"
)

func main() {
	out := flag.String("out", "rating_export.csv", "output CSV path")
	flag.Parse()

	config, err := helper.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(config.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(config, log, *out); err != nil {
		log.Error("Export failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

// run keeps the deferred cleanup ahead of any exit in main
func run(config helper.Config, log *logger.Logger, out string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, err := helper.OpenStore(ctx, config, log)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", config.StoreDriver, err)
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			log.Warn("Failed to close store", "error", err)
		}
	}()

	n, err := ratingexport.WriteFile(ctx, store, out)
	if err != nil {
		return err
	}
	log.Info("Exported ratings", "count", n, "path", out)
	return nil
}
