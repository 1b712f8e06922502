package hostinfo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

const (
	// MinBuildForLinuxContainers is the oldest OS build that can run
	// the engine in Linux container mode.
	MinBuildForLinuxContainers = 14393
)

// SupportedBuildsForWindowsContainers is the exact set of OS builds
// that can run Windows containers. Membership is required; this is not
// a minimum.
var SupportedBuildsForWindowsContainers = []int{17763}

// CheckOsCompatibility reports whether the host OS build supports the
// requested container mode.
func CheckOsCompatibility(containerOs ContainerOs, currentBuild int) bool {
	if containerOs == ContainerOsLinux {
		return currentBuild >= MinBuildForLinuxContainers
	}
	for _, build := range SupportedBuildsForWindowsContainers {
		if currentBuild == build {
			return true
		}
	}
	return false
}

// currentOsBuild reads the OS build number from the host platform
// version, e.g. "10.0.17763 Build 17763".
func currentOsBuild() (int, error) {
	info, err := host.Info()
	if err != nil {
		return 0, fmt.Errorf("failed to read host info: %w", err)
	}
	build, err := parseBuild(info.PlatformVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to parse platform version %q: %w", info.PlatformVersion, err)
	}
	return build, nil
}

func parseBuild(platformVersion string) (int, error) {
	fields := strings.FieldsFunc(platformVersion, func(r rune) bool {
		return r == '.' || r == ' '
	})
	// The build number is the third dotted component when present,
	// otherwise the last numeric field.
	if len(fields) >= 3 {
		if build, err := strconv.Atoi(fields[2]); err == nil {
			return build, nil
		}
	}
	for i := len(fields) - 1; i >= 0; i-- {
		if build, err := strconv.Atoi(fields[i]); err == nil {
			return build, nil
		}
	}
	return 0, fmt.Errorf("no build number found")
}

// ConstrainedOs reports whether the host is a constrained (IoT Core
// class) edition. Callers pick the package toolchain with it before an
// Inspector exists.
func ConstrainedOs() bool {
	return isConstrainedOs()
}

// isConstrainedOs reports whether the host is a constrained (IoT Core
// class) edition rather than a full desktop or server OS. Constrained
// editions use a different package and service toolchain.
func isConstrainedOs() bool {
	info, err := host.Info()
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(info.Platform), "iot")
}
