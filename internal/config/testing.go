package config

import "os"

// TestDSNEnv names the PostgreSQL DSN used by integration tests.
const TestDSNEnv = "BADYETLY_TEST_DB_DSN"

// TestDSN returns the integration test DSN, or "" when tests should skip.
func TestDSN() string {
	return os.Getenv(TestDSNEnv)
}
