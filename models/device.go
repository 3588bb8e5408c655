package models

import "github.com/go-rod/rod/lib/devices"

// DeviceProfile describes the emulated client a session presents to the
// measurement site. Profiles convert to rod device descriptors and are
// applied once at session creation.
type DeviceProfile struct {
	Name        string
	Width       int
	Height      int
	ScaleFactor float64
	Mobile      bool
	Touch       bool
	UserAgent   string
}

var devicePresets = map[string]DeviceProfile{
	"pc": {
		Name:        "pc",
		Width:       1920,
		Height:      1080,
		ScaleFactor: 1,
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36",
	},
	"phone": {
		// iPhone 12/13 Pro viewport.
		Name:        "phone",
		Width:       390,
		Height:      844,
		ScaleFactor: 3,
		Mobile:      true,
		Touch:       true,
		UserAgent:   "Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1",
	},
	"tablet": {
		// iPad Pro 12.9" portrait. Tablets emulate as mobile.
		Name:        "tablet",
		Width:       1024,
		Height:      1366,
		ScaleFactor: 2,
		Mobile:      true,
		Touch:       true,
		UserAgent:   "Mozilla/5.0 (iPad; CPU OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1",
	},
}

// DeviceByName returns the named preset, falling back to pc for unknown
// names so a bad device string never blocks a measurement.
func DeviceByName(name string) DeviceProfile {
	if p, ok := devicePresets[name]; ok {
		return p
	}
	return devicePresets["pc"]
}

// WithSize returns a copy using custom dimensions at 1:1 scale. Non-positive
// dimensions leave the profile unchanged.
func (p DeviceProfile) WithSize(width, height int) DeviceProfile {
	if width <= 0 || height <= 0 {
		return p
	}
	p.Width = width
	p.Height = height
	p.ScaleFactor = 1
	return p
}

// Descriptor converts the profile to a rod device for page emulation.
// Both orientations carry the same size so the viewport is exact either way.
func (p DeviceProfile) Descriptor() devices.Device {
	caps := []string{}
	if p.Touch {
		caps = append(caps, "touch")
	}
	if p.Mobile {
		caps = append(caps, "mobile")
	}
	size := devices.ScreenSize{Width: p.Width, Height: p.Height}
	return devices.Device{
		Title:          p.Name,
		Capabilities:   caps,
		UserAgent:      p.UserAgent,
		AcceptLanguage: "zh-CN",
		Screen: devices.Screen{
			DevicePixelRatio: p.ScaleFactor,
			Horizontal:       size,
			Vertical:         size,
		},
	}
}
