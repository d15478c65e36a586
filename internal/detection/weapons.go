// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import "strings"

// WeaponCategory groups weapons whose kill rates are expected to be high.
type WeaponCategory string

const (
	CategoryArmor      WeaponCategory = "armor"
	CategoryArtillery  WeaponCategory = "artillery"
	CategoryMachineGun WeaponCategory = "machine-gun"
)

// Weapon names as they appear in the CRCON kill log.
var (
	artilleryWeapons = []string{
		"155MM HOWITZER [M114]",
		"150MM HOWITZER [sFH 18]",
		"122MM HOWITZER [M1938 (M-30)]",
		"QF 25-POUNDER [QF 25-Pounder]",
	}

	armorWeapons = []string{
		// US
		"37MM CANNON [Stuart M5A1]",
		"COAXIAL M1919 [Stuart M5A1]",
		"HULL M1919 [Stuart M5A1]",
		"75MM CANNON [Sherman M4A1]",
		"COAXIAL M1919 [Sherman M4A1]",
		"HULL M1919 [Sherman M4A1]",
		"76MM M1 GUN [Sherman M4A3(76)W]",
		"COAXIAL M1919 [Sherman M4A3(76)W]",
		"HULL M1919 [Sherman M4A3(76)W]",
		"37MM CANNON [Greyhound M8]",
		"COAXIAL M1919 [Greyhound M8]",
		"M2 Browning [M3 Half-track]",
		// Germany
		"50mm KwK 39/1 [Sd.Kfz.234 Puma]",
		"COAXIAL MG34 [Sd.Kfz.234 Puma]",
		"20MM KWK 30 [Sd.Kfz.121 Luchs]",
		"COAXIAL MG34 [Sd.Kfz.121 Luchs]",
		"75MM CANNON [Sd.Kfz.161 Panzer IV]",
		"COAXIAL MG34 [Sd.Kfz.161 Panzer IV]",
		"HULL MG34 [Sd.Kfz.161 Panzer IV]",
		"75MM CANNON [Sd.Kfz.171 Panther]",
		"COAXIAL MG34 [Sd.Kfz.171 Panther]",
		"HULL MG34 [Sd.Kfz.171 Panther]",
		"88 KWK 36 L/56 [Sd.Kfz.181 Tiger 1]",
		"COAXIAL MG34 [Sd.Kfz.181 Tiger 1]",
		"HULL MG34 [Sd.Kfz.181 Tiger 1]",
		"MG 42 [Sd.Kfz 251 Half-track]",
		// Soviet Union
		"45MM M1937 [BA-10]",
		"COAXIAL DT [BA-10]",
		"45MM M1937 [T70]",
		"COAXIAL DT [T70]",
		"76MM ZiS-5 [T34/76]",
		"COAXIAL DT [T34/76]",
		"HULL DT [T34/76]",
		"D-5T 85MM [IS-1]",
		"COAXIAL DT [IS-1]",
		"HULL DT [IS-1]",
		// Great Britain
		"QF 2-POUNDER [Daimler]",
		"COAXIAL BESA [Daimler]",
		"QF 2-POUNDER [Tetrarch]",
		"COAXIAL BESA [Tetrarch]",
		"37MM CANNON [M3 Stuart Honey]",
		"COAXIAL M1919 [M3 Stuart Honey]",
		"HULL M1919 [M3 Stuart Honey]",
		"OQF 75MM [Cromwell]",
		"COAXIAL BESA [Cromwell]",
		"HULL BESA [Cromwell]",
		"QF 17-POUNDER [Firefly]",
		"COAXIAL M1919 [Firefly]",
		"OQF 57MM [Churchill Mk.III]",
		"COAXIAL BESA 7.92mm [Churchill Mk.III]",
		"HULL BESA 7.92mm [Churchill Mk.III]",
		"OQF 57MM [Churchill Mk.VII]",
		"COAXIAL BESA 7.92mm [Churchill Mk.VII]",
		"HULL BESA 7.92mm [Churchill Mk.VII]",
	}

	machineGunWeapons = []string{
		"BROWNING M1919",
		"MG34",
		"MG42",
		"DP-27",
		"Lewis Gun",
	}
)

// crewRoles are the vehicle crew roles.
var crewRoles = map[string]struct{}{
	"tankcommander": {},
	"crewman":       {},
}

// IsCrewRole reports whether role is a vehicle crew role.
func IsCrewRole(role string) bool {
	_, ok := crewRoles[strings.ToLower(strings.TrimSpace(role))]
	return ok
}

// WeaponCatalog maps weapon names to their category. Lookups are
// case-insensitive.
type WeaponCatalog struct {
	categories map[string]WeaponCategory
}

// NewWeaponCatalog builds the built-in catalog extended with extra names.
func NewWeaponCatalog(extraArmor, extraArtillery, extraMachineGun []string) *WeaponCatalog {
	c := &WeaponCatalog{categories: make(map[string]WeaponCategory)}
	c.add(CategoryArmor, armorWeapons, extraArmor)
	c.add(CategoryArtillery, artilleryWeapons, extraArtillery)
	c.add(CategoryMachineGun, machineGunWeapons, extraMachineGun)
	return c
}

func (c *WeaponCatalog) add(category WeaponCategory, lists ...[]string) {
	for _, list := range lists {
		for _, w := range list {
			if key := normalizeWeapon(w); key != "" {
				c.categories[key] = category
			}
		}
	}
}

// Category returns the category of weapon.
func (c *WeaponCatalog) Category(weapon string) (WeaponCategory, bool) {
	cat, ok := c.categories[normalizeWeapon(weapon)]
	return cat, ok
}

// Contains reports whether any of weapons belongs to category.
func (c *WeaponCatalog) Contains(weapons []string, category WeaponCategory) bool {
	for _, w := range weapons {
		if cat, ok := c.Category(w); ok && cat == category {
			return true
		}
	}
	return false
}

func normalizeWeapon(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}

// DistinctWeapons reduces kill records to the distinct weapons used by
// playerName, in first-seen order. Records of other killers are ignored.
func DistinctWeapons(entries []WeaponLogEntry, playerName string) []string {
	seen := make(map[string]struct{}, len(entries))
	weapons := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.PlayerName != playerName || e.Weapon == "" {
			continue
		}
		if _, ok := seen[e.Weapon]; ok {
			continue
		}
		seen[e.Weapon] = struct{}{}
		weapons = append(weapons, e.Weapon)
	}
	return weapons
}
