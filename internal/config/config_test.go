package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name: "defaults applied",
			env:  map[string]string{},
			want: &Config{
				DatabasePath:        "./data/elevaite.db",
				RedisAddr:           "localhost:6379",
				LogLevel:            "info",
				RulesIntervalHours:  1,
				RecommendationLimit: 10,
				ScoreStalenessDays:  7,
			},
		},
		{
			name: "all values set",
			env: map[string]string{
				"DATABASE_PATH":        "/tmp/elevaite.db",
				"REDIS_ADDR":           "redis:6380",
				"LOG_LEVEL":            "debug",
				"RULES_INTERVAL_HOURS": "4",
				"RECOMMENDATION_LIMIT": "5",
				"SCORE_STALENESS_DAYS": "14",
			},
			want: &Config{
				DatabasePath:        "/tmp/elevaite.db",
				RedisAddr:           "redis:6380",
				LogLevel:            "debug",
				RulesIntervalHours:  4,
				RecommendationLimit: 5,
				ScoreStalenessDays:  14,
			},
		},
		{
			name:    "non-numeric interval",
			env:     map[string]string{"RULES_INTERVAL_HOURS": "hourly"},
			wantErr: true,
		},
		{
			name:    "zero limit rejected",
			env:     map[string]string{"RECOMMENDATION_LIMIT": "0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear relevant env vars
			for _, key := range []string{
				"DATABASE_PATH", "REDIS_ADDR", "LOG_LEVEL",
				"RULES_INTERVAL_HOURS", "RECOMMENDATION_LIMIT", "SCORE_STALENESS_DAYS",
			} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
