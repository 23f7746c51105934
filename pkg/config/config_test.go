package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  api_port: 9090
database:
  driver: postgres
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.APIPort)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port) // postgres 默认端口
	assert.Equal(t, "fleetops", cfg.Database.DBName)

	// 工作流默认值
	require.NotNil(t, cfg.Workflow.ReservationTTLMinutes)
	assert.Equal(t, 120, *cfg.Workflow.ReservationTTLMinutes)
	assert.Equal(t, 5, cfg.Workflow.SweepIntervalMinutes)
	assert.Equal(t, "1000", cfg.Workflow.AutoApproveThreshold)
	require.Len(t, cfg.Workflow.ApprovalLevels, 3)
	assert.Equal(t, 1, cfg.Workflow.ApprovalLevels[0].Levels)
	assert.Equal(t, 3, cfg.Workflow.ApprovalLevels[2].Levels)
	assert.Equal(t, "", cfg.Workflow.ApprovalLevels[2].MaxValue) // 兜底规则
}

func TestLoadKeepsExplicitZeroReservationTTL(t *testing.T) {
	// 显式配置0（预留不自动过期）不能被默认值覆盖
	path := writeConfig(t, `
workflow:
  reservation_ttl_minutes: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Workflow.ReservationTTLMinutes)
	assert.Equal(t, 0, *cfg.Workflow.ReservationTTLMinutes)
}

func TestLoadRejectsInvalidWorkflow(t *testing.T) {
	path := writeConfig(t, `
workflow:
  approval_levels:
    - max_value: "not-a-number"
      levels: 1
`)
	_, err := Load(path)
	require.Error(t, err)

	path = writeConfig(t, `
workflow:
  approval_levels:
    - max_value: "5000"
      levels: 0
`)
	_, err = Load(path)
	require.Error(t, err)

	path = writeConfig(t, `
workflow:
  auto_approve_threshold: "maybe"
`)
	_, err = Load(path)
	require.Error(t, err)

	path = writeConfig(t, `
workflow:
  reservation_ttl_minutes: -10
`)
	_, err = Load(path)
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FLEETOPS_DB_HOST", "db.internal")
	t.Setenv("FLEETOPS_JWT_SECRET", "test-secret-from-env")

	path := writeConfig(t, `
database:
  host: localhost
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "test-secret-from-env", cfg.Security.JWTSecret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
