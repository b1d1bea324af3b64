package vehicle

import (
	"fmt"
	"math"
)

// TankContainer is a cylindrical container whose weight comes from its propellant loads
// and its wall.
type TankContainer struct {
	part *Part
	cfg  TankConfig
}

// Config returns the tank dimensions and loads.
func (t *TankContainer) Config() TankConfig { return t.cfg }

// Volume returns the interior volume, π r² h, in unit.
func (t *TankContainer) Volume(unit string) (float64, error) {
	return convertVolume(math.Pi*t.cfg.Radius*t.cfg.Radius*t.cfg.Height, unit)
}

// WallVolume returns the volume of a wall of thickness metres, (π r² - π (r-t)²) h, in unit.
func (t *TankContainer) WallVolume(unit string, thickness float64) (float64, error) {
	inner := math.Max(t.cfg.Radius-thickness, 0)
	m3 := (math.Pi*t.cfg.Radius*t.cfg.Radius - math.Pi*inner*inner) * t.cfg.Height
	return convertVolume(m3, unit)
}

// PropellantVolume returns the sum of all loads in litres.
func (t *TankContainer) PropellantVolume() float64 {
	total := 0.0
	for _, load := range t.cfg.Tanks {
		total += load.Volume
	}
	return total
}

// Weight sums propellant mass (g/ml times litres) and wall mass (material density times
// wall litres).
func (t *TankContainer) Weight() float64 {
	weight := 0.0
	for _, load := range t.cfg.Tanks {
		weight += load.Propellant.Density * load.Volume
	}
	wall, _ := t.WallVolume("l", t.cfg.WallThickness)
	return weight + t.cfg.MaterialDensity*wall
}

// convertVolume expresses a volume in cubic metres in the requested unit.
func convertVolume(m3 float64, unit string) (float64, error) {
	switch unit {
	case "m3":
		return m3, nil
	case "l", "dm3":
		return m3 * 1e3, nil
	case "ml", "cm3":
		return m3 * 1e6, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
}
