package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dekarrin/loach/lr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func Test_LoadConfig_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func Test_LoadConfig_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loach.toml")
	contents := "default_condition = \"STRING\"\ndefault_method = \"LALR(1)\"\noutput_path = \"out/tables.json\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "STRING", cfg.DefaultCondition)
	assert.Equal(t, "LALR(1)", cfg.DefaultMethod)
	assert.Equal(t, "out/tables.json", cfg.OutputPath)
}

func Test_ResolveMethod_PrecedenceOrder(t *testing.T) {
	assert.Equal(t, lr.MethodCLR1, resolveMethod("CLR(1)", "LR(0)", "SLR(1)"))
	assert.Equal(t, lr.MethodLR0, resolveMethod("", "LR(0)", "SLR(1)"))
	assert.Equal(t, lr.MethodSLR1, resolveMethod("", "", "SLR(1)"))
	assert.Equal(t, lr.MethodLALR1, resolveMethod("", "", ""))
}
