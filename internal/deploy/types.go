package deploy

import "fmt"

// DeviceTypeDevice is the only type the parser assigns. Emulators are told
// apart later by name.
const DeviceTypeDevice = "device"

// Device is one deployment target reported by WinAppDeployCmd. Index is the
// position in the enumeration that produced it and changes between calls;
// GUID is the stable identity.
type Device struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	IP    string `json:"ip"`
	GUID  string `json:"guid"`
}

// String renders "{index}. {name} ({type})", the text emulator selection
// matches against.
func (d Device) String() string {
	return fmt.Sprintf("%d. %s (%s)", d.Index, d.Name, d.Type)
}
