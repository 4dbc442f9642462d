package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `app:
  name: "courtlotto"
  environment: "test"
  port: 8080
  timezone: "America/New_York"

database:
  driver: "sqlite"
  filename: "data/test.db"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scheduler.LotteryCron != "0 21 * * *" {
		t.Errorf("lottery_cron = %q, want default", cfg.Scheduler.LotteryCron)
	}
	if cfg.Scheduler.UsageResetCron != "0 0 1 * *" {
		t.Errorf("usage_reset_cron = %q, want default", cfg.Scheduler.UsageResetCron)
	}
	if cfg.Scheduler.LapseCron != "30 0 * * *" {
		t.Errorf("lapse_cron = %q, want default", cfg.Scheduler.LapseCron)
	}

	loc := cfg.Location()
	want, _ := time.LoadLocation("America/New_York")
	if loc.String() != want.String() {
		t.Errorf("location = %v, want %v", loc, want)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			"missing app name",
			`app:
  port: 8080
database:
  driver: "sqlite"
  filename: "x.db"
`,
		},
		{
			"missing port",
			`app:
  name: "courtlotto"
database:
  driver: "sqlite"
  filename: "x.db"
`,
		},
		{
			"bad timezone",
			`app:
  name: "courtlotto"
  port: 8080
  timezone: "Mars/Olympus"
database:
  driver: "sqlite"
  filename: "x.db"
`,
		},
		{
			"unsupported driver",
			`app:
  name: "courtlotto"
  port: 8080
database:
  driver: "postgres"
  filename: "x.db"
`,
		},
		{
			"sqlite without filename",
			`app:
  name: "courtlotto"
  port: 8080
database:
  driver: "sqlite"
`,
		},
		{
			"bad cron expression",
			`app:
  name: "courtlotto"
  port: 8080
database:
  driver: "sqlite"
  filename: "x.db"
scheduler:
  lottery_cron: "every day at nine"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}
}

func TestLoadEmailRequiresCredentials(t *testing.T) {
	body := validConfig + `
email:
  enabled: true
  region: "us-east-1"
  sender: "courts@example.com"
`
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("Load succeeded without credentials, want error")
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "AKIATEST")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Email.AccessKeyID != "AKIATEST" {
		t.Errorf("access key = %q, want from environment", cfg.Email.AccessKeyID)
	}
}
