// Package rules persists time-window blocking rules and evaluates them
// against the wall clock.
package rules

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliteGoblin/breatherd/internal/domain"
)

// Storage keys. A structured document of rules under one key, the
// global strict flag under another.
const (
	rulesKey  = "strict_mode_rules"
	strictKey = "strict_mode_enabled"
)

// Store persists the rule set through a SettingsStore.
// Loads fail open: corrupt or missing data yields an empty rule list
// and strict mode off, never an error to the caller.
type Store struct {
	settings domain.SettingsStore
	logger   *zap.Logger
}

// NewStore creates a rule store backed by the given settings store.
func NewStore(settings domain.SettingsStore, logger *zap.Logger) *Store {
	return &Store{settings: settings, logger: logger}
}

// Load returns the current rule set.
func (s *Store) Load() domain.RuleSet {
	return domain.RuleSet{
		Rules:  s.loadRules(),
		Strict: s.StrictEnabled(),
	}
}

// List returns all rules in store order.
func (s *Store) List() []domain.BlockingRule {
	return s.loadRules()
}

// Add validates the rule, assigns an id if absent, and appends it.
func (s *Store) Add(rule domain.BlockingRule) (domain.BlockingRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if err := rule.Validate(); err != nil {
		return domain.BlockingRule{}, err
	}
	rules := s.loadRules()
	rules = append(rules, rule)
	if err := s.saveRules(rules); err != nil {
		return domain.BlockingRule{}, err
	}
	return rule, nil
}

// Delete removes the rule with the given id.
func (s *Store) Delete(id string) error {
	rules := s.loadRules()
	kept := rules[:0]
	for _, r := range rules {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(rules) {
		return fmt.Errorf("delete %s: %w", id, domain.ErrRuleNotFound)
	}
	return s.saveRules(kept)
}

// Toggle flips the enabled flag of the rule with the given id.
func (s *Store) Toggle(id string) (domain.BlockingRule, error) {
	rules := s.loadRules()
	for i, r := range rules {
		if r.ID == id {
			rules[i].Enabled = !r.Enabled
			if err := s.saveRules(rules); err != nil {
				return domain.BlockingRule{}, err
			}
			return rules[i], nil
		}
	}
	return domain.BlockingRule{}, fmt.Errorf("toggle %s: %w", id, domain.ErrRuleNotFound)
}

// Replace swaps the stored rule with the same id for the given one,
// keeping its position in store order.
func (s *Store) Replace(rule domain.BlockingRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	rules := s.loadRules()
	for i, r := range rules {
		if r.ID == rule.ID {
			rules[i] = rule
			return s.saveRules(rules)
		}
	}
	return fmt.Errorf("replace %s: %w", rule.ID, domain.ErrRuleNotFound)
}

// SetStrict persists the global strict-mode flag.
func (s *Store) SetStrict(enabled bool) error {
	if err := s.settings.Set(strictKey, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("failed to persist strict mode: %w", err)
	}
	return nil
}

// StrictEnabled returns the global strict-mode flag, false on any
// persistence problem.
func (s *Store) StrictEnabled() bool {
	raw, ok, err := s.settings.Get(strictKey)
	if err != nil {
		s.logger.Warn("failed to read strict mode flag, assuming off", zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		s.logger.Warn("malformed strict mode flag, assuming off", zap.String("value", raw))
		return false
	}
	return enabled
}

func (s *Store) loadRules() []domain.BlockingRule {
	raw, ok, err := s.settings.Get(rulesKey)
	if err != nil {
		s.logger.Warn("failed to read rules, using empty set", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var rules []domain.BlockingRule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		s.logger.Warn("malformed rules document, using empty set", zap.Error(err))
		return nil
	}
	return rules
}

func (s *Store) saveRules(rules []domain.BlockingRule) error {
	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	if err := s.settings.Set(rulesKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist rules: %w", err)
	}
	return nil
}
