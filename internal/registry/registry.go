package registry

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/wheelibin/homesim/internal/constants"
	"github.com/wheelibin/homesim/internal/models"
)

// Categories lists every device category in display order.
var Categories = []string{constants.CategoryLights, constants.CategoryFans, constants.CategorySecurity}

// Registry is the in-memory device store. It holds no validation logic:
// mutation rules live in the engine, which serialises its own writes.
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	devices map[string][]*models.Device
}

func NewRegistry(devices []models.Device) *Registry {
	r := &Registry{devices: make(map[string][]*models.Device, len(Categories))}
	for _, c := range Categories {
		r.devices[c] = []*models.Device{}
	}
	for i := range devices {
		d := devices[i].Copy()
		r.devices[d.Category] = append(r.devices[d.Category], &d)
	}
	return r
}

func IsCategory(category string) bool {
	return lo.Contains(Categories, category)
}

// Find returns a copy of the device.
func (r *Registry) Find(category string, id string) (models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, err := r.find(category, id)
	if err != nil {
		return models.Device{}, err
	}
	return d.Copy(), nil
}

func (r *Registry) find(category string, id string) (*models.Device, error) {
	devices, ok := r.devices[category]
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrNotFound, category)
	}
	d, found := lo.Find(devices, func(d *models.Device) bool { return d.ID == id })
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, models.DeviceKey(category, id))
	}
	return d, nil
}

// Update applies fn to the live device under the write lock. If fn returns an
// error the device is restored to its previous state.
func (r *Registry) Update(category string, id string, fn func(d *models.Device) error) (models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.find(category, id)
	if err != nil {
		return models.Device{}, err
	}

	before := d.Copy()
	if err := fn(d); err != nil {
		*d = before
		return models.Device{}, err
	}
	return d.Copy(), nil
}

// ForEach applies fn to every device in the category under the write lock.
func (r *Registry) ForEach(category string, fn func(d *models.Device)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.devices[category] {
		fn(d)
	}
}

// Snapshot returns a deep copy of every device.
func (r *Registry) Snapshot() models.States {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copyAll := func(category string) []models.Device {
		return lo.Map(r.devices[category], func(d *models.Device, _ int) models.Device { return d.Copy() })
	}

	return models.States{
		Lights:   copyAll(constants.CategoryLights),
		Fans:     copyAll(constants.CategoryFans),
		Security: copyAll(constants.CategorySecurity),
	}
}
