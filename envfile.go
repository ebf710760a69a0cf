package req

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
)

// LoadEnvFile reads KEY=VALUE pairs from a dotenv file.
func LoadEnvFile(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	slog.Debug("LoadEnvFile: loaded", "path", path, "count", len(vars))
	return vars, nil
}
