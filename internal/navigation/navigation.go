// Package navigation serves the static menu definitions.
package navigation

import (
	_ "embed"
	"fmt"
	"sync"

	"snapgram/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed nav.yml
var navYAML []byte

// Menus holds the ordered link lists of every menu.
type Menus struct {
	Sidebar   []models.NavLink `yaml:"sidebar" json:"sidebar"`
	Bottombar []models.NavLink `yaml:"bottombar" json:"bottombar"`
	Admin     []models.NavLink `yaml:"admin" json:"admin"`
}

var (
	loadOnce sync.Once
	loaded   Menus
	loadErr  error
)

// Parse decodes a menu document.
func Parse(data []byte) (Menus, error) {
	var m Menus
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Menus{}, fmt.Errorf("parse navigation: %w", err)
	}
	return m, nil
}

// Load returns the embedded menus, parsed once.
func Load() (Menus, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(navYAML)
	})
	return loaded, loadErr
}
