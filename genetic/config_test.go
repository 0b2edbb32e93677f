package genetic

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/genetic-go/genetic/nn"
)

const fullConfig = `
# trainer settings
[Genetic]
layer_sizes         = 4 8 2
num_populations     = 20
crossover_threshold = 0.01
mutation1_rate      = 0.5
mutation2_rate      = 0.25
mutation2_range     = 0.05 1.5
num_new             = 3
id_space            = 500
`

func TestParseConfigFull(t *testing.T) {
	cfg, err := ParseConfig([]byte(fullConfig))
	require.NoError(t, err)
	assert.Equal(t, &Config{
		LayerSizes:         []int{4, 8, 2},
		NumPopulations:     20,
		CrossoverThreshold: 0.01,
		Mutation1Rate:      0.5,
		Mutation2Rate:      0.25,
		Mutation2Range:     []float64{0.05, 1.5},
		NumNew:             3,
		IDSpace:            500,
	}, cfg)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("[Genetic]\nlayer_sizes = 2 3 1\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig([]int{2, 3, 1}), cfg)
}

func TestParseConfigErrors(t *testing.T) {
	cases := map[string]string{
		"missing section":  "[Other]\nlayer_sizes = 2 1\n",
		"missing sizes":    "[Genetic]\nnum_populations = 10\n",
		"zero layer":       "[Genetic]\nlayer_sizes = 2 0 1\n",
		"too many new":     "[Genetic]\nlayer_sizes = 2 1\nnum_new = 9\n",
		"reversed range":   "[Genetic]\nlayer_sizes = 2 1\nmutation2_range = 3 1\n",
		"rate out of band": "[Genetic]\nlayer_sizes = 2 1\nmutation1_rate = 2\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration), "got %v", err)
		})
	}
}

func TestValidateWrapsTopologyError(t *testing.T) {
	cfg := DefaultConfig([]int{3})
	err := cfg.Validate()
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.True(t, errors.Is(err, nn.ErrInvalidTopology))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trainer.ini")
	require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.NumPopulations)
	assert.Equal(t, []float64{0.05, 1.5}, cfg.Mutation2Range)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig([]int{2, 1})
	cp := cfg.Clone()
	cp.LayerSizes[0] = 7
	cp.Mutation2Range[1] = 9
	assert.Equal(t, []int{2, 1}, cfg.LayerSizes)
	assert.Equal(t, DefaultMutation2Range, cfg.Mutation2Range)
}

func TestParseAndLoadAgree(t *testing.T) {
	data := []byte("[Genetic]\nlayer_sizes = 2 3 1\nnum_new = 2 ; fresh networks\nmutation2_range = 0.2 1.0\n")
	path := filepath.Join(t.TempDir(), "inline.ini")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	fromFile, err := LoadConfig(path)
	require.NoError(t, err)
	fromMemory, err := ParseConfig(data)
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromMemory)
}
