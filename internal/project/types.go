package project

// PackageExtensions are the artifact types WinAppDeployCmd accepts.
var PackageExtensions = []string{".appx", ".appxbundle", ".msix", ".msixbundle"}

// ProjectInfo contains detected project information
type ProjectInfo struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	RNWVersion  string `json:"react_native_windows"`
	WindowsDir  string `json:"windows_dir"`
	Solution    string `json:"solution,omitempty"`
	PackagesDir string `json:"packages_dir"`
}
