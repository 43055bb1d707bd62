package helper

import (
	"os"
	"testing"
	"time"
)

// unsetenv clears keys for the duration of the test
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if old, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, old) })
		}
		os.Unsetenv(k)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	unsetenv(t, "STORE_DRIVER", "SQLITE_PATH", "RANKER_WORKERS", "SCORER_TIMEOUT", "CORS_ORIGINS")

	c, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.StoreDriver != DriverSQLite || c.SQLitePath != "db/database.db" {
		t.Fatalf("unexpected store defaults %q %q", c.StoreDriver, c.SQLitePath)
	}
	if c.RankerWorkers != 8 || c.ScorerTimeout != 2*time.Second {
		t.Fatalf("unexpected ranker defaults %d %s", c.RankerWorkers, c.ScorerTimeout)
	}
	if len(c.CORSOrigins) != 3 {
		t.Fatalf("expected 3 default origins, got %v", c.CORSOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	unsetenv(t, "CORS_ORIGINS")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/movierec")
	t.Setenv("RANKER_WORKERS", "3")
	t.Setenv("SCORER_TIMEOUT", "150ms")

	c, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.StoreDriver != DriverPostgres || c.RankerWorkers != 3 || c.ScorerTimeout != 150*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	base := Config{StoreDriver: DriverSQLite, SQLitePath: "x.db", RankerWorkers: 1, ScorerTimeout: time.Second}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	bad := []Config{
		{StoreDriver: "mysql", RankerWorkers: 1, ScorerTimeout: time.Second},
		{StoreDriver: DriverPostgres, RankerWorkers: 1, ScorerTimeout: time.Second},
		{StoreDriver: DriverNeo4j, RankerWorkers: 1, ScorerTimeout: time.Second},
		{StoreDriver: DriverSQLite, SQLitePath: "x.db", RankerWorkers: 0, ScorerTimeout: time.Second},
		{StoreDriver: DriverSQLite, SQLitePath: "x.db", RankerWorkers: 1},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected an error", i)
		}
	}
}
