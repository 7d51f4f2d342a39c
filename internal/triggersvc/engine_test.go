package triggersvc

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hidlink/hidlink/hidapi/keymap"
)

type recordingRunner struct {
	commands []string
}

func (r *recordingRunner) Run(command string) {
	r.commands = append(r.commands, command)
}

func mustRules(t *testing.T, input string) []Rule {
	t.Helper()
	rules, err := ParseRules(strings.NewReader(input), zap.NewNop())
	require.NoError(t, err)
	return rules
}

func TestHoldClassification(t *testing.T) {
	rules := mustRules(t, `
KEY_VOLUMEUP	1	short
KEY_VOLUMEUP	2	long
KEY_VOLUMEUP	0	always
`)
	none := map[uint16]struct{}{}

	t.Run("short press", func(t *testing.T) {
		runner := &recordingRunner{}
		engine := NewEngine(zap.NewNop(), rules, runner)
		engine.HandleRelease(keymap.KeyVolumeUp, 200*time.Millisecond, true, none)
		assert.Equal(t, []string{"short", "always"}, runner.commands)
	})

	t.Run("hold", func(t *testing.T) {
		runner := &recordingRunner{}
		engine := NewEngine(zap.NewNop(), rules, runner)
		engine.HandleRelease(keymap.KeyVolumeUp, 800*time.Millisecond, true, none)
		assert.Equal(t, []string{"long", "always"}, runner.commands)
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		runner := &recordingRunner{}
		engine := NewEngine(zap.NewNop(), rules, runner)
		engine.HandleRelease(keymap.KeyVolumeUp, HoldThreshold, true, none)
		assert.Equal(t, []string{"long", "always"}, runner.commands)
	})

	t.Run("release without recorded press", func(t *testing.T) {
		runner := &recordingRunner{}
		engine := NewEngine(zap.NewNop(), rules, runner)
		engine.HandleRelease(keymap.KeyVolumeUp, 0, false, none)
		assert.Empty(t, runner.commands)
	})
}

func TestModifierMatching(t *testing.T) {
	rules := mustRules(t, `
KEY_VOLUMEUP	1	plain
KEY_VOLUMEUP+KEY_LEFTSHIFT	1	shifted
KEY_VOLUMEUP+KEY_LEFTSHIFT+KEY_LEFTCTRL	1	both
`)
	shift := map[uint16]struct{}{keymap.KeyLeftShift: {}}
	shiftCtrl := map[uint16]struct{}{keymap.KeyLeftShift: {}, keymap.KeyLeftCtrl: {}}

	tests := []struct {
		name    string
		active  map[uint16]struct{}
		command string
	}{
		{"no modifiers", map[uint16]struct{}{}, "plain"},
		{"shift picks the more specific rule", shift, "shifted"},
		{"both modifiers pick the most specific rule", shiftCtrl, "both"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			runner := &recordingRunner{}
			engine := NewEngine(zap.NewNop(), rules, runner)
			engine.HandleRelease(keymap.KeyVolumeUp, 100*time.Millisecond, true, tc.active)
			assert.Equal(t, []string{tc.command}, runner.commands)
		})
	}
}

func TestRuleRequiringInactiveModifierNeverFires(t *testing.T) {
	rules := mustRules(t, "KEY_VOLUMEUP+KEY_LEFTALT\t1\talted\n")
	runner := &recordingRunner{}
	engine := NewEngine(zap.NewNop(), rules, runner)

	engine.HandleRelease(keymap.KeyVolumeUp, 100*time.Millisecond, true, map[uint16]struct{}{})
	assert.Empty(t, runner.commands)
}

func TestEqualSpecificityTieGoesToFirstRule(t *testing.T) {
	rules := mustRules(t, `
KEY_VOLUMEUP	1	first
KEY_VOLUMEUP	1	second
`)
	runner := &recordingRunner{}
	engine := NewEngine(zap.NewNop(), rules, runner)

	engine.HandleRelease(keymap.KeyVolumeUp, 100*time.Millisecond, true, map[uint16]struct{}{})
	assert.Equal(t, []string{"first"}, runner.commands)
}

func TestSetRulesSwapsTable(t *testing.T) {
	runner := &recordingRunner{}
	engine := NewEngine(zap.NewNop(), nil, runner)
	assert.Equal(t, 0, engine.RuleCount())

	engine.HandleRelease(keymap.KeyVolumeUp, 100*time.Millisecond, true, map[uint16]struct{}{})
	assert.Empty(t, runner.commands)

	engine.SetRules(mustRules(t, "KEY_VOLUMEUP\t1\tnow\n"))
	assert.Equal(t, 1, engine.RuleCount())
	engine.HandleRelease(keymap.KeyVolumeUp, 100*time.Millisecond, true, map[uint16]struct{}{})
	assert.Equal(t, []string{"now"}, runner.commands)
}

func TestTruncateCommand(t *testing.T) {
	long := strings.Repeat("x", 80)
	assert.Equal(t, strings.Repeat("x", 50)+"...", truncateCommand(long))
	assert.Equal(t, "short", truncateCommand("short"))
}
