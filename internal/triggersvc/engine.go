package triggersvc

import (
	"time"

	"github.com/hidlink/hidlink/hidapi/keymap"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// HoldThreshold separates a short press (event value 1) from a hold (event
// value 2).
const HoldThreshold = 500 * time.Millisecond

const maxLoggedCommandLength = 50

// Engine matches classified key events against the rule table and dispatches
// commands fire-and-forget. The table may be swapped at runtime (config
// reload), so it is held behind an atomic pointer.
type Engine struct {
	log    *zap.Logger
	runner CommandRunner
	rules  atomic.Pointer[[]Rule]
}

func NewEngine(log *zap.Logger, rules []Rule, runner CommandRunner) *Engine {
	e := &Engine{
		log:    log,
		runner: runner,
	}
	e.SetRules(rules)
	return e
}

func (e *Engine) SetRules(rules []Rule) {
	e.rules.Store(&rules)
}

func (e *Engine) RuleCount() int {
	return len(*e.rules.Load())
}

// Match finds the command for a (keycode, event value) pair under the active
// modifier set. A rule matches when its required modifiers are a subset of
// the active ones; the rule requiring the most modifiers wins, and ties go
// to the first-loaded rule.
func (e *Engine) Match(code uint16, value int, activeModifiers map[uint16]struct{}) (string, bool) {
	name := keymap.KeyName(code)
	bestCommand := ""
	bestCount := -1
	for _, rule := range *e.rules.Load() {
		if rule.Value != value || rule.MainKey != name {
			continue
		}
		if !isSubset(rule.modifierCodes, activeModifiers) {
			continue
		}
		if len(rule.modifierCodes) > bestCount {
			bestCount = len(rule.modifierCodes)
			bestCommand = rule.Command
		}
	}
	return bestCommand, bestCount >= 0
}

// HandleRelease runs the hold classification for one released key. Releases
// without a matching press are ignored for trigger purposes. At most two
// commands are dispatched: one for the short-press/hold value and one for
// the plain release value.
func (e *Engine) HandleRelease(code uint16, held time.Duration, hasHold bool, activeModifiers map[uint16]struct{}) {
	if !hasHold {
		return
	}
	value := 1
	if held >= HoldThreshold {
		value = 2
	}
	e.log.Debug("classified release",
		zap.String("key", keymap.KeyName(code)),
		zap.Duration("held", held),
		zap.Int("value", value),
	)
	if command, ok := e.Match(code, value, activeModifiers); ok {
		e.dispatch(command)
	}
	if command, ok := e.Match(code, 0, activeModifiers); ok {
		e.dispatch(command)
	}
}

func (e *Engine) dispatch(command string) {
	e.log.Info("dispatching trigger command", zap.String("command", truncateCommand(command)))
	e.runner.Run(command)
}

func isSubset(required, active map[uint16]struct{}) bool {
	for code := range required {
		if _, ok := active[code]; !ok {
			return false
		}
	}
	return true
}

// truncateCommand limits command text in logs; rule files may embed secrets.
func truncateCommand(command string) string {
	if len(command) > maxLoggedCommandLength {
		return command[:maxLoggedCommandLength] + "..."
	}
	return command
}
