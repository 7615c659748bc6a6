package control

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"

	"github.com/gamesched/core/engine/inputpipe"
)

// DeviceWatch resolves hotplugged input devices' vendor/product IDs into
// the whitelist decision engine/inputpipe.DeviceLookup needs, and notices
// new devices arriving via inotify on SysClassInputDir rather than
// requiring a poll. Grounded on the same x/sys/unix inotify primitives the
// retrieval pack's kernel-facing tooling uses for low-level device and
// filesystem events.
type DeviceWatch struct {
	sysClassInputDir string
	knownVendors     map[uint32]bool
	fd               int
}

// defaultKnownGamingVendors is a small static allowlist of USB vendor IDs
// known to ship gaming peripherals (mice, keyboards, controllers);
// production deployments extend this from a packaged device database, kept
// out of scope here the same way spec.md keeps the ML autotune pipeline
// out of scope.
var defaultKnownGamingVendors = map[uint32]bool{
	0x046d: true, // Logitech
	0x1532: true, // Razer
	0x054c: true, // Sony (DualShock/DualSense)
	0x045e: true, // Microsoft (Xbox controllers)
	0x28de: true, // Valve (Steam Controller/Deck)
}

// NewDeviceWatch builds a DeviceWatch rooted at sysClassInputDir (normally
// "/sys/class/input").
func NewDeviceWatch(sysClassInputDir string) *DeviceWatch {
	return &DeviceWatch{sysClassInputDir: sysClassInputDir, knownVendors: defaultKnownGamingVendors, fd: -1}
}

// Start opens the inotify fd and begins watching for new device
// directories. Safe to call without a kernel present: on any failure it
// logs and leaves Lookup working in its degraded, vendor-table-only mode.
func (d *DeviceWatch) Start() {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK)
	if err != nil {
		glog.Warningf("control: devicewatch: inotify_init1: %v", err)
		return
	}
	if _, err := unix.InotifyAddWatch(fd, d.sysClassInputDir, unix.IN_CREATE); err != nil {
		glog.Warningf("control: devicewatch: inotify_add_watch(%s): %v", d.sysClassInputDir, err)
		unix.Close(fd)
		return
	}
	d.fd = fd
}

// Close releases the inotify fd, if one was opened.
func (d *DeviceWatch) Close() {
	if d.fd >= 0 {
		unix.Close(d.fd)
		d.fd = -1
	}
}

// PollEvents drains any pending inotify events without blocking; callers
// loop this on their own ticker (control.Plane does). Returns the number
// of CREATE events seen so callers can decide whether to invalidate any
// cached lookups for newly-arrived devices.
func (d *DeviceWatch) PollEvents() int {
	if d.fd < 0 {
		return 0
	}
	buf := make([]byte, 4096)
	n, err := unix.Read(d.fd, buf)
	if err != nil || n <= 0 {
		return 0
	}
	events, err := unix.ParseInotifyEvents(buf[:n])
	if err != nil {
		return 0
	}
	return len(events)
}

// Lookup implements inputpipe.DeviceLookup: it resolves device's encoded
// vendor ID against the known-gaming-vendor table.
func (d *DeviceWatch) Lookup(device inputpipe.DeviceID) bool {
	vendor := uint32(device >> 32)
	return d.knownVendors[vendor]
}

// ResolveVendorProduct reads a device's modalias-derived vendor/product
// pair from its sysfs uevent file, packing them into a DeviceID the same
// way engine/inputpipe expects (vendor in the high 32 bits, product in the
// low 32 bits).
func ResolveVendorProduct(sysClassInputDir, deviceName string) (inputpipe.DeviceID, bool) {
	f, err := os.Open(filepath.Join(sysClassInputDir, deviceName, "device", "uevent"))
	if err != nil {
		return 0, false
	}
	defer f.Close()

	var vendor, product uint64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "PRODUCT="):
			parts := strings.Split(strings.TrimPrefix(line, "PRODUCT="), "/")
			if len(parts) >= 2 {
				vendor, _ = strconv.ParseUint(parts[0], 16, 32)
				product, _ = strconv.ParseUint(parts[1], 16, 32)
			}
		}
	}
	if vendor == 0 && product == 0 {
		return 0, false
	}
	return inputpipe.DeviceID(vendor<<32 | product), true
}
