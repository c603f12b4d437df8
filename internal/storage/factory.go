package storage

import (
	"context"
	"fmt"
	"os"

	"kincore/internal/infra/storage/fs"
	"kincore/internal/infra/storage/memory"
	"kincore/internal/infra/storage/postgres"
	"kincore/internal/infra/storage/s3"
	"kincore/internal/infra/storage/sqlite"
)

// Open selects a snapshot storage backend using environment variables.
// Defaults to the filesystem driver when unset.
//
//	KINCORE_STORAGE_DRIVER: memory|fs|sqlite|postgres|s3 (default fs)
//	KINCORE_STORAGE_FS_ROOT: directory root when driver=fs (default ./kindata)
//	KINCORE_SQLITE_PATH: path to sqlite file when driver=sqlite
//	KINCORE_POSTGRES_DSN: postgres DSN when driver=postgres
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("KINCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverMemory:
		return memory.New(), nil
	case DriverFilesystem:
		return fs.New(os.Getenv("KINCORE_STORAGE_FS_ROOT"))
	case DriverSQLite:
		return sqlite.New(os.Getenv("KINCORE_SQLITE_PATH"))
	case DriverPostgres:
		return postgres.New(ctx, os.Getenv("KINCORE_POSTGRES_DSN"))
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
