package common

import (
	"errors"
	"strings"
)

var ErrModulePaused = errors.New("module paused")

// Module names accepted by Guard and the node's PausedModules setting.
const (
	ModuleGenerator    = "generator"
	ModuleVotingEscrow = "votingescrow"
)

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// PauseSet is a static PauseView built from a list of module names.
type PauseSet map[string]struct{}

// NewPauseSet normalises the supplied module names into a PauseSet.
func NewPauseSet(modules []string) PauseSet {
	set := make(PauseSet, len(modules))
	for _, module := range modules {
		trimmed := strings.ToLower(strings.TrimSpace(module))
		if trimmed == "" {
			continue
		}
		set[trimmed] = struct{}{}
	}
	return set
}

// IsPaused implements PauseView.
func (s PauseSet) IsPaused(module string) bool {
	if s == nil {
		return false
	}
	_, ok := s[strings.ToLower(module)]
	return ok
}
