// Package triggersvc classifies key releases by hold duration and matches
// them against a triggerhappy-style rule table to fire shell commands.
package triggersvc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/hidlink/hidlink/hidapi/keymap"
	"go.uber.org/zap"
)

// Rule maps a (key, modifiers, event value) tuple to a shell command.
// Rules are immutable after load; order of appearance only breaks ties
// between rules of equal specificity.
type Rule struct {
	MainKey   string
	Modifiers []string
	Value     int
	Command   string

	modifierCodes map[uint16]struct{}
}

// ParseRules reads one rule per non-empty, non-comment line:
//
//	<mainKey>[+<modifierKey>...]	<eventValue 0|1|2>	<command line>
//
// Malformed lines are skipped with a diagnostic, never fatal.
func ParseRules(r io.Reader, log *zap.Logger) ([]Rule, error) {
	var rules []Rule
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := parseRuleLine(line)
		if err != nil {
			log.Warn("skipping invalid trigger line",
				zap.Int("line", lineNum),
				zap.Error(err),
			)
			continue
		}
		rules = append(rules, resolveRule(rule, log))
	}
	if err := scanner.Err(); err != nil {
		return rules, fmt.Errorf("failed to read trigger rules: %w", err)
	}
	return rules, nil
}

// LoadFile reads a rule file. A missing file degrades to an empty table.
func LoadFile(path string, log *zap.Logger) ([]Rule, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		log.Warn("trigger file not found, continuing without triggers", zap.String("path", path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open trigger file: %w", err)
	}
	defer f.Close()
	return ParseRules(f, log)
}

func parseRuleLine(line string) (Rule, error) {
	fields := splitFields(line, 3)
	if len(fields) < 3 {
		return Rule{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	value, err := strconv.Atoi(fields[1])
	if err != nil {
		return Rule{}, fmt.Errorf("invalid event value %q", fields[1])
	}
	keys := strings.Split(fields[0], "+")
	return Rule{
		MainKey:   keys[0],
		Modifiers: keys[1:],
		Value:     value,
		Command:   fields[2],
	}, nil
}

// resolveRule canonicalizes key names and precomputes modifier keycodes.
// Unknown modifier names are dropped with a warning, matching the rule more
// broadly rather than never.
func resolveRule(rule Rule, log *zap.Logger) Rule {
	if code, ok := keymap.KeyCode(rule.MainKey); ok {
		rule.MainKey = keymap.KeyName(code)
	}
	rule.modifierCodes = make(map[uint16]struct{}, len(rule.Modifiers))
	for _, name := range rule.Modifiers {
		code, ok := keymap.KeyCode(name)
		if !ok {
			log.Warn("unknown modifier key in trigger rule", zap.String("modifier", name))
			continue
		}
		rule.modifierCodes[code] = struct{}{}
	}
	return rule
}

// splitFields splits on runs of whitespace into at most n fields, the last
// field capturing the remainder of the line verbatim.
func splitFields(line string, n int) []string {
	var fields []string
	rest := strings.TrimSpace(line)
	for len(fields) < n-1 {
		idx := strings.IndexFunc(rest, unicode.IsSpace)
		if idx < 0 {
			break
		}
		fields = append(fields, rest[:idx])
		rest = strings.TrimSpace(rest[idx:])
	}
	if rest != "" {
		fields = append(fields, rest)
	}
	return fields
}
