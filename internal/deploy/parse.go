package deploy

import (
	"regexp"
	"strings"
)

// Matches lines such as
//
//	127.0.0.1   00000015-b21e-0da9-0000-000000000000    Lumia 1520 (RM-940)
//
// capturing IP, GUID and the free-form name.
var deviceLinePattern = regexp.MustCompile(`^([\d.]+?)\s+([\da-fA-F-]+?)\s+(.+)$`)

// ParseDeviceLine builds the device for one line of `WinAppDeployCmd devices`
// output. ok is false for headers, blanks and anything else that does not
// carry an IP, a GUID and a name.
func ParseDeviceLine(line string, index int) (dev Device, ok bool) {
	m := deviceLinePattern.FindStringSubmatch(line)
	if m == nil {
		return Device{}, false
	}
	return Device{
		Index: index,
		Name:  m[3],
		Type:  DeviceTypeDevice,
		IP:    m[1],
		GUID:  m[2],
	}, true
}

// ParseDevices returns the devices in output order, indexed by their position
// among matching lines.
func ParseDevices(output string) []Device {
	var devices []Device
	for _, line := range splitLines(output) {
		if dev, ok := ParseDeviceLine(line, len(devices)); ok {
			devices = append(devices, dev)
		}
	}
	return devices
}

// splitLines breaks on CRLF, tolerating bare LF.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
