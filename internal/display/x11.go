package display

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor is a physical output, adjusted to its usable work area.
type Monitor struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// x11Conn holds the X connection used for a single probe.
type x11Conn struct {
	xu   *xgbutil.XUtil
	root xproto.Window
}

func dialX11(display string) (*x11Conn, error) {
	var (
		xu  *xgbutil.XUtil
		err error
	)
	if display != "" {
		xu, err = xgbutil.NewConnDisplay(display)
	} else {
		xu, err = xgbutil.NewConn()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X display %q: %w", display, err)
	}
	return &x11Conn{xu: xu, root: xu.RootWin()}, nil
}

func (c *x11Conn) close() {
	c.xu.Conn().Close()
}

// monitors retrieves all active monitors using XRandR.
func (c *x11Conn) monitors() ([]Monitor, error) {
	if err := randr.Init(c.xu.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.xu.Conn(), c.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.xu.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Disabled CRTC.
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.xu.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}
	return monitors, nil
}

// activeMonitor returns the monitor under the pointer (or the first one),
// clipped to the EWMH work area so panels are excluded.
func (c *x11Conn) activeMonitor() (Monitor, error) {
	monitors, err := c.monitors()
	if err != nil {
		return Monitor{}, err
	}
	if len(monitors) == 0 {
		return Monitor{}, fmt.Errorf("no monitors found")
	}

	active := monitors[0]
	if pointer, err := xproto.QueryPointer(c.xu.Conn(), c.root).Reply(); err == nil {
		if mon, ok := monitorAt(monitors, int(pointer.RootX), int(pointer.RootY)); ok {
			active = mon
		}
	}

	workArea, err := ewmh.WorkareaGet(c.xu)
	if err != nil || len(workArea) == 0 {
		return active, nil
	}
	idx := 0
	if current, err := ewmh.CurrentDesktopGet(c.xu); err == nil && int(current) < len(workArea) {
		idx = int(current)
	}
	wa := workArea[idx]
	return clipToWorkArea(active, int(wa.X), int(wa.Y), int(wa.Width), int(wa.Height)), nil
}

func monitorAt(monitors []Monitor, x, y int) (Monitor, bool) {
	for _, mon := range monitors {
		if x >= mon.X && x < mon.X+mon.Width && y >= mon.Y && y < mon.Y+mon.Height {
			return mon, true
		}
	}
	return Monitor{}, false
}

// clipToWorkArea intersects the monitor with the work area. A work area
// that misses the monitor leaves it unchanged.
func clipToWorkArea(mon Monitor, waX, waY, waW, waH int) Monitor {
	x1 := max(mon.X, waX)
	y1 := max(mon.Y, waY)
	x2 := min(mon.X+mon.Width, waX+waW)
	y2 := min(mon.Y+mon.Height, waY+waH)
	if x2 <= x1 || y2 <= y1 {
		return mon
	}
	mon.X, mon.Y = x1, y1
	mon.Width, mon.Height = x2-x1, y2-y1
	return mon
}

// ProbeX11 connects to display, reads the active monitor and disconnects.
func ProbeX11(display string) (Monitor, error) {
	conn, err := dialX11(display)
	if err != nil {
		return Monitor{}, err
	}
	defer conn.close()
	return conn.activeMonitor()
}
