package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rekanorman/rip-assignment/config"
)

func parse(t *testing.T, text string) (*config.Config, error) {
	t.Helper()
	return config.Parse(strings.NewReader(text))
}

const validConfig = `
// comment above a blank line

router-id 1
input-ports 5001 5002
outputs 6001-1-2 6002-5-3
output-port 5000
update-period 10
`

func TestParseValidConfig(t *testing.T) {
	cfg, err := parse(t, validConfig)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.RouterID)
	assert.Equal(t, []int{5001, 5002}, cfg.InputPorts)
	assert.Equal(t, 5000, cfg.OutputPort)
	assert.Equal(t, 10*time.Second, cfg.UpdatePeriod)
	assert.Equal(t, []config.Output{
		{InputPort: 6001, Metric: 1, RouterID: 2},
		{InputPort: 6002, Metric: 5, RouterID: 3},
	}, cfg.Outputs)
}

func TestParseWithoutUpdatePeriodLeavesItZero(t *testing.T) {
	text := `
router-id 1
input-ports 5001
outputs 6001-1-2
output-port 5000
`
	cfg, err := parse(t, text)
	require.NoError(t, err)
	assert.Zero(t, cfg.UpdatePeriod)
}

func TestParseIgnoresCommentsAndBlankLines(t *testing.T) {
	text := "// a full-line comment\n\n" + validConfig
	cfg, err := parse(t, text)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.RouterID)
}

func missingDirectiveConfigs() map[string]string {
	return map[string]string{
		"router-id":   "input-ports 5001\noutputs 6001-1-2\noutput-port 5000\n",
		"input-ports": "router-id 1\noutputs 6001-1-2\noutput-port 5000\n",
		"outputs":     "router-id 1\ninput-ports 5001\noutput-port 5000\n",
		"output-port": "router-id 1\ninput-ports 5001\noutputs 6001-1-2\n",
	}
}

func TestParseRejectsMissingMandatoryDirectives(t *testing.T) {
	for name, text := range missingDirectiveConfigs() {
		t.Run(name, func(t *testing.T) {
			_, err := parse(t, text)
			assert.Error(t, err)
		})
	}
}

func TestParseRejectsDuplicateDirective(t *testing.T) {
	text := validConfig + "\nrouter-id 2\n"
	_, err := parse(t, text)
	assert.ErrorContains(t, err, "more than once")
}

func TestParseRejectsUnknownDirective(t *testing.T) {
	_, err := parse(t, "router-id 1\nfrobnicate 1\n")
	assert.Error(t, err)
}

func TestParseRejectsRouterIDOutOfRange(t *testing.T) {
	_, err := parse(t, "router-id 0\n")
	assert.Error(t, err)
}

func TestParseRejectsMalformedOutputEntry(t *testing.T) {
	_, err := parse(t, "outputs 6001-1\n")
	assert.Error(t, err)
}

func TestParseRejectsNeighbourPortOverlappingInputPorts(t *testing.T) {
	text := `
router-id 1
input-ports 5001
outputs 5001-1-2
output-port 5000
`
	_, err := parse(t, text)
	assert.ErrorContains(t, err, "input ports")
}

func TestParseRejectsNeighbourPortEqualToOutputPort(t *testing.T) {
	text := `
router-id 1
input-ports 5001
outputs 5000-1-2
output-port 5000
`
	_, err := parse(t, text)
	assert.ErrorContains(t, err, "output port")
}

func TestParseRejectsNeighbourIDEqualToOwnID(t *testing.T) {
	text := `
router-id 1
input-ports 5001
outputs 6001-1-1
output-port 5000
`
	_, err := parse(t, text)
	assert.ErrorContains(t, err, "router-id")
}

func TestParseRejectsOutputPortEqualToInputPort(t *testing.T) {
	text := `
router-id 1
input-ports 5000
outputs 6001-1-2
output-port 5000
`
	_, err := parse(t, text)
	assert.Error(t, err)
}
