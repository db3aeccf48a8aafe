package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/wheelibin/homesim/internal/constants"
	"github.com/wheelibin/homesim/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrInvalidCatalog = errors.New("invalid catalog")

// fan speed labels accepted in place of a numeric intensity
var speedLabels = map[string]int{
	"Off":    0,
	"Low":    85,
	"Medium": 170,
	"High":   255,
}

// SpeedIntensity maps a fan speed label (Off, Low, Medium, High) to an intensity.
func SpeedIntensity(label string) (int, bool) {
	for l, v := range speedLabels {
		if strings.EqualFold(l, label) {
			return v, true
		}
	}
	return 0, false
}

type Entry struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Location  string `yaml:"location"`
	Type      string `yaml:"type"`
	IsOn      bool   `yaml:"isOn"`
	Intensity *int   `yaml:"intensity"`
	Speed     string `yaml:"speed"`

	TempThreshold *struct {
		On  *float64 `yaml:"on"`
		Off *float64 `yaml:"off"`
	} `yaml:"tempThreshold"`
}

type Catalog struct {
	Lights   []Entry `yaml:"lights"`
	Fans     []Entry `yaml:"fans"`
	Security []Entry `yaml:"security"`
}

// Load reads the catalog at path, or the embedded default when path is empty,
// and returns the seeded devices.
func Load(path string) ([]models.Device, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading catalog (%s): %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) ([]models.Device, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	devices := []models.Device{}
	for category, entries := range map[string][]Entry{
		constants.CategoryLights:   c.Lights,
		constants.CategoryFans:     c.Fans,
		constants.CategorySecurity: c.Security,
	} {
		if err := validateIDs(category, entries); err != nil {
			return nil, err
		}
		for _, e := range entries {
			d, err := e.toDevice(category)
			if err != nil {
				return nil, err
			}
			devices = append(devices, d)
		}
	}

	// map iteration is random, keep seed order stable per category
	return lo.Flatten([][]models.Device{
		byCategory(devices, constants.CategoryLights),
		byCategory(devices, constants.CategoryFans),
		byCategory(devices, constants.CategorySecurity),
	}), nil
}

func byCategory(devices []models.Device, category string) []models.Device {
	return lo.Filter(devices, func(d models.Device, _ int) bool { return d.Category == category })
}

func validateIDs(category string, entries []Entry) error {
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: %s entry without id", ErrInvalidCatalog, category)
		}
	}
	unique := lo.UniqBy(entries, func(e Entry) string { return e.ID })
	if len(unique) != len(entries) {
		return fmt.Errorf("%w: duplicate %s ids", ErrInvalidCatalog, category)
	}
	return nil
}

func (e Entry) toDevice(category string) (models.Device, error) {
	d := models.Device{
		ID:       e.ID,
		Category: category,
		Name:     lo.Ternary(e.Name != "", e.Name, e.ID),
		Location: e.Location,
		Type:     e.Type,
		IsOn:     e.IsOn,
	}

	if e.Speed != "" {
		speed, ok := SpeedIntensity(e.Speed)
		if !ok {
			return d, fmt.Errorf("%w: %s/%s has unknown speed %q", ErrInvalidCatalog, category, e.ID, e.Speed)
		}
		d.Intensity = speed
	}
	if e.Intensity != nil {
		d.Intensity = *e.Intensity
	}
	if d.Intensity < constants.MinIntensity || d.Intensity > constants.MaxIntensity {
		return d, fmt.Errorf("%w: %s/%s intensity %d outside [%d,%d]", ErrInvalidCatalog, category, e.ID, d.Intensity, constants.MinIntensity, constants.MaxIntensity)
	}

	if e.TempThreshold != nil {
		if category != constants.CategoryFans {
			return d, fmt.Errorf("%w: %s/%s: temperature thresholds are only supported for fans", ErrInvalidCatalog, category, e.ID)
		}
		on, off := e.TempThreshold.On, e.TempThreshold.Off
		if on == nil || off == nil {
			return d, fmt.Errorf("%w: %s/%s: temperature thresholds need both on and off", ErrInvalidCatalog, category, e.ID)
		}
		if *off >= *on {
			return d, fmt.Errorf("%w: %s/%s: off threshold must be below on threshold", ErrInvalidCatalog, category, e.ID)
		}
		d.Threshold = &models.TempThreshold{On: lo.ToPtr(*on), Off: lo.ToPtr(*off)}
	}

	return d, nil
}
