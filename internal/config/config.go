// Package config resolves runtime settings from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"revamp/internal/snapshotstore"
)

type Config struct {
	Env string

	// Model is the generative model used when no remote endpoint is
	// configured.
	Model string
	// GenerateEndpoint, when set, routes generation to an external
	// HTTP service instead of the model API.
	GenerateEndpoint string

	// BuildCommand overrides the generated project's build step.
	BuildCommand string

	// ChromePath points at a browser binary; empty lets the launcher
	// find one.
	ChromePath string
	// EngineScriptPath serves the audit script from disk instead of
	// the CDN.
	EngineScriptPath string
	// EngineScriptURL overrides where the audit script is fetched
	// from.
	EngineScriptURL string

	QuiescenceTimeout time.Duration
	IdleInterval      time.Duration

	// HistoryPath is the file-backend location for run records;
	// HistoryDSN switches the store to Postgres.
	HistoryPath string
	HistoryDSN  string

	Artifact snapshotstore.Config
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Env:               env,
		Model:             firstNonEmpty(strings.TrimSpace(os.Getenv("REVAMP_MODEL")), "gemini-2.5-flash"),
		GenerateEndpoint:  strings.TrimSpace(os.Getenv("GENERATE_ENDPOINT")),
		BuildCommand:      strings.TrimSpace(os.Getenv("BUILD_CMD")),
		ChromePath:        strings.TrimSpace(os.Getenv("CHROME_PATH")),
		EngineScriptPath:  strings.TrimSpace(os.Getenv("AUDIT_ENGINE_PATH")),
		EngineScriptURL:   strings.TrimSpace(os.Getenv("AUDIT_ENGINE_URL")),
		QuiescenceTimeout: durationMS("QUIESCENCE_TIMEOUT_MS", 15*time.Second),
		IdleInterval:      durationMS("IDLE_INTERVAL_MS", 500*time.Millisecond),
		HistoryPath:       firstNonEmpty(strings.TrimSpace(os.Getenv("HISTORY_PATH")), defaultHistoryPath()),
		HistoryDSN:        strings.TrimSpace(os.Getenv("HISTORY_PG_DSN")),
		Artifact:          loadArtifactConfig(),
	}, nil
}

// Port resolves the daemon's listen address from PORT, defaulting to
// fallback.
func Port(fallback string) string {
	envPort := strings.TrimSpace(os.Getenv("PORT"))
	if envPort == "" {
		return fallback
	}
	if strings.HasPrefix(envPort, ":") {
		return envPort
	}
	return ":" + envPort
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "revamp-runs.json"
	}
	return home + "/.revamp/runs.json"
}

func loadArtifactConfig() snapshotstore.Config {
	return snapshotstore.Config{
		Endpoint:  strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT")),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "revamp-artifacts"),
		UseSSL:    boolEnv("ARTIFACT_S3_USE_SSL", false),
	}
}

func durationMS(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func boolEnv(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
