// Package common holds helpers shared by the native engine modules.
package common

import (
	"errors"
	"strings"
)

// ErrModulePaused is returned when an operation hits a paused module.
var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a named module is administratively paused.
type PauseView interface {
	IsPaused(module string) bool
}

// Pauses is a static PauseView over a set of module names, typically sourced
// from node configuration.
type Pauses struct {
	modules map[string]bool
}

// NewPauses builds a pause set from module names. Names are matched
// case-insensitively; blank entries are ignored.
func NewPauses(modules []string) *Pauses {
	set := make(map[string]bool, len(modules))
	for _, module := range modules {
		module = strings.ToLower(strings.TrimSpace(module))
		if module != "" {
			set[module] = true
		}
	}
	return &Pauses{modules: set}
}

// IsPaused implements PauseView.
func (p *Pauses) IsPaused(module string) bool {
	if p == nil {
		return false
	}
	return p.modules[strings.ToLower(strings.TrimSpace(module))]
}

// Guard rejects the operation when the module is paused. A nil view or empty
// module name disables the check.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
