// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/abcio/alembic"
)

var (
	objectColor   = lipgloss.Color("#4682B4") // Steel blue
	compoundColor = lipgloss.Color("#888888") // Medium gray
	scalarColor   = lipgloss.Color("#228B22") // Forest green
	arrayColor    = lipgloss.Color("#FF8800") // Orange
	mutedColor    = lipgloss.Color("#666666") // Dark gray

	objectStyle   = lipgloss.NewStyle().Foreground(objectColor).Bold(true)
	compoundStyle = lipgloss.NewStyle().Foreground(compoundColor)
	scalarStyle   = lipgloss.NewStyle().Foreground(scalarColor)
	arrayStyle    = lipgloss.NewStyle().Foreground(arrayColor)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
)

func propertyStyle(p *alembic.Property) lipgloss.Style {
	switch p.Kind() {
	case alembic.PropertyScalar:
		return scalarStyle
	case alembic.PropertyArray:
		return arrayStyle
	default:
		return compoundStyle
	}
}
