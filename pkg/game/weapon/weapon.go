package weapon

import "time"

type ID uint8

const (
	Pistol ID = iota
	SMG
	Rifle
	Shotgun
	Sniper
	RocketLauncher
	Grenade
	numWeapons = iota
)

type Weapon struct {
	ID           ID
	Name         string
	Damage       float64
	RPM          int
	Range        float64
	FalloffStart float64
	FalloffEnd   float64
	// Damage factor at and beyond FalloffEnd.
	FalloffFloor float64
	Spread       float64
	HeadMult     float64
	LegMult      float64
	Projectile   bool
	MuzzleSpeed  float64
	TimeToLive   time.Duration
	Price        int64
}

var byID = map[ID]Weapon{
	Pistol:         {Pistol, "pistol", 25, 400, 60, 20, 50, 0.5, 0.015, 2.0, 0.8, false, 0, 0, 0},
	SMG:            {SMG, "smg", 20, 800, 50, 15, 40, 0.4, 0.03, 1.6, 0.8, false, 0, 0, 1200},
	Rifle:          {Rifle, "rifle", 33, 600, 120, 30, 80, 0.5, 0.02, 2.0, 0.8, false, 0, 0, 2700},
	Shotgun:        {Shotgun, "shotgun", 90, 70, 25, 5, 20, 0.2, 0.08, 1.5, 0.9, false, 0, 0, 1800},
	Sniper:         {Sniper, "sniper", 120, 40, 300, 100, 250, 0.7, 0.001, 2.5, 0.85, false, 0, 0, 4700},
	RocketLauncher: {RocketLauncher, "rocket", 100, 30, 200, 0, 0, 1.0, 0.01, 1.0, 1.0, true, 25, 6 * time.Second, 5500},
	Grenade:        {Grenade, "grenade", 80, 20, 30, 0, 0, 1.0, 0, 1.0, 1.0, true, 15, 3 * time.Second, 300},
}

// ByID falls back to the pistol for ids outside the table, mirroring the
// default sidearm every loadout carries.
func ByID(id ID) Weapon {
	if w, ok := byID[id]; ok {
		return w
	}
	return byID[Pistol]
}

func Exists(id ID) bool {
	_, ok := byID[id]
	return ok
}

// MinInterval is the shortest legal time between two shots, derived from the
// weapon's rate of fire.
func (w Weapon) MinInterval() time.Duration {
	if w.RPM <= 0 {
		return 0
	}
	return time.Minute / time.Duration(w.RPM)
}

// FalloffAt returns the damage factor for a hit at the given distance. Full
// damage up to FalloffStart, linearly decaying to FalloffFloor at FalloffEnd.
func (w Weapon) FalloffAt(distance float64) float64 {
	if w.FalloffEnd <= w.FalloffStart || distance <= w.FalloffStart {
		return 1.0
	}
	if distance >= w.FalloffEnd {
		return w.FalloffFloor
	}
	t := (distance - w.FalloffStart) / (w.FalloffEnd - w.FalloffStart)
	return 1.0 - t*(1.0-w.FalloffFloor)
}

// All lists every weapon, for shop inventory responses.
func All() []Weapon {
	weapons := make([]Weapon, 0, numWeapons)
	for id := ID(0); id < numWeapons; id++ {
		weapons = append(weapons, byID[id])
	}
	return weapons
}
