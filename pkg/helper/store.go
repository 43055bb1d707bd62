package helper

import (
	"context"
	"fmt"
	"strings"

	database "github.com/yishak-cs/movierec/internal/database"
	"github.com/yishak-cs/movierec/internal/logger"
)

// OpenStore connects the entity store selected by STORE_DRIVER
func OpenStore(ctx context.Context, cfg Config, log *logger.Logger) (database.Store, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case DriverSQLite:
		store, err := database.OpenSQLite(cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverPostgres:
		store, err := database.OpenPostgres(cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverNeo4j:
		client, err := database.NewNeo4jClient(cfg.Neo4jConfig(), log)
		if err != nil {
			return nil, err
		}
		store, err := database.NewNeo4jStore(ctx, client, log)
		if err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
