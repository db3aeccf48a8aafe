package models

import "time"

// Device is a single light, fan or security device held by the registry.
type Device struct {
	ID       string `json:"id"`
	Category string `json:"-"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Type     string `json:"type,omitempty"`
	IsOn     bool   `json:"isOn"`

	// brightness for lights, speed for fans
	Intensity int `json:"intensity"`

	Schedule OnOffSchedule `json:"onOffSchedule"`

	// only ever set for fans
	Threshold *TempThreshold `json:"tempThreshold,omitempty"`
}

// OnOffSchedule records when the device was switched on and, if set, when a
// pending auto-off must fire.
type OnOffSchedule struct {
	On  *time.Time `json:"on"`
	Off *time.Time `json:"off"`
}

// TempThreshold is the fan hysteresis band: the fan switches on above On and
// off at or below Off.
type TempThreshold struct {
	On  *float64 `json:"on"`
	Off *float64 `json:"off"`
}

func (t *TempThreshold) IsEmpty() bool {
	return t == nil || (t.On == nil && t.Off == nil)
}

// Key identifies a device across categories.
func (d *Device) Key() string {
	return DeviceKey(d.Category, d.ID)
}

func DeviceKey(category string, id string) string {
	return category + "/" + id
}

// Copy returns a deep copy, so callers never share pointers with the registry.
func (d *Device) Copy() Device {
	c := *d
	c.Schedule = OnOffSchedule{On: copyTime(d.Schedule.On), Off: copyTime(d.Schedule.Off)}
	if d.Threshold != nil {
		c.Threshold = &TempThreshold{On: copyFloat(d.Threshold.On), Off: copyFloat(d.Threshold.Off)}
	}
	return c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// States is the read-only snapshot of the whole registry.
type States struct {
	Lights   []Device `json:"lights"`
	Fans     []Device `json:"fans"`
	Security []Device `json:"security"`
}

// Reading is an externally supplied environment sample.
type Reading struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	At          time.Time `json:"at"`
}

type Daylight struct {
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
}

type Environment struct {
	Reading  *Reading  `json:"reading"`
	Daylight *Daylight `json:"daylight,omitempty"`
}

// Transition is one applied state change, kept for the history view.
type Transition struct {
	Category  string    `json:"category"`
	DeviceID  string    `json:"id"`
	On        bool      `json:"isOn"`
	Intensity int       `json:"intensity"`
	Source    string    `json:"source"`
	At        time.Time `json:"at"`
}
