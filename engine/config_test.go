package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfiguration(t *testing.T) {
	cfg := DefaultConfiguration()

	assert.Equal(t, 10*time.Second, cfg.EstimatedSwapTime)
	assert.False(t, cfg.EraseAppSettings)
	assert.Equal(t, 3, cfg.PipelineDepth)
	assert.Equal(t, AlignFour, cfg.ByteAlignment)
	assert.Equal(t, TestAndConfirm, cfg.UpgradeMode)
	assert.False(t, cfg.SuitMode)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    func(*Configuration)
		wantErr string
	}{
		{
			name:  "empty keeps defaults",
			input: "",
			want:  func(*Configuration) {},
		},
		{
			name: "all fields",
			input: "estimated_swap_time: 12.5\n" +
				"erase_app_settings: true\n" +
				"pipeline_depth: 4\n" +
				"byte_alignment: 8\n" +
				"upgrade_mode: upload_only\n",
			want: func(c *Configuration) {
				c.EstimatedSwapTime = 12500 * time.Millisecond
				c.EraseAppSettings = true
				c.PipelineDepth = 4
				c.ByteAlignment = AlignEight
				c.UpgradeMode = UploadOnly
			},
		},
		{
			name:  "partial",
			input: "pipeline_depth: 1\n",
			want:  func(c *Configuration) { c.PipelineDepth = 1 },
		},
		{
			name:    "bad alignment",
			input:   "byte_alignment: 3\n",
			wantErr: "byte alignment must be 1, 2, 4 or 8",
		},
		{
			name:    "bad pipeline depth",
			input:   "pipeline_depth: 0\n",
			wantErr: "pipeline depth must be at least 1",
		},
		{
			name:    "bad mode",
			input:   "upgrade_mode: yolo\n",
			wantErr: `unknown upgrade mode "yolo"`,
		},
		{
			name:    "unknown key",
			input:   "suit_mode: true\n",
			wantErr: "failed to decode configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfiguration(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			want := DefaultConfiguration()
			tt.want(&want)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadConfiguration(t *testing.T) {
	p := filepath.Join(t.TempDir(), "dfu.yaml")
	require.NoError(t, os.WriteFile(p, []byte("byte_alignment: 2\n"), 0o600))

	cfg, err := LoadConfiguration(p)
	require.NoError(t, err)
	assert.Equal(t, AlignTwo, cfg.ByteAlignment)

	_, err = LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open configuration")
}

func TestUpgradeModeRoundTrip(t *testing.T) {
	for _, mode := range []UpgradeMode{TestAndConfirm, TestOnly, ConfirmOnly, UploadOnly} {
		parsed, err := ParseUpgradeMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}
	assert.Equal(t, "upgrade_mode(9)", UpgradeMode(9).String())
}

func TestByteAlignmentValid(t *testing.T) {
	for _, a := range []ByteAlignment{1, 2, 4, 8} {
		assert.True(t, a.Valid(), "alignment %d", a)
	}
	for _, a := range []ByteAlignment{0, 3, 16, -4} {
		assert.False(t, a.Valid(), "alignment %d", a)
	}
}
