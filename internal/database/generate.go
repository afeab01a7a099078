package database

// Regenerating the query layer is a two step process: the schema tool applies
// every embedded migration to a scratch database and dumps the result to
// sqlc/schema.sql, then sqlc compiles sqlc/queries/*.sql against that schema.
//
//	go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
//go:generate sh -c "cd ../.. && sqlc generate -f internal/database/sqlc/sqlc.yaml"
