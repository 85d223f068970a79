package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const appID = "iosamurai"

// MachineID retrieves an ID identifying this host for the application.
// It's derived from the OS machine ID without exposing it, and falls
// back to "unknown" where the OS doesn't provide one.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return "unknown"
	}
	return id
}

// ShortMachineID is the first 8 characters of MachineID.
func ShortMachineID() string {
	id := MachineID()
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}
