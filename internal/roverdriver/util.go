package roverdriver

import (
	"os"
	"strings"

	"github.com/autopeer-io/rover/pkg/log"
)

// roverIDFile is written by the provisioning step of the rover image.
const roverIDFile = "/etc/rover/id"

// DiscoverRoverID picks the rover identity: explicit value, then the ROVER_ID
// environment variable, then roverIDFile, then the host name.
func DiscoverRoverID(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if envID := os.Getenv("ROVER_ID"); envID != "" {
		log.Info("RoverID detected from env", "id", envID)
		return envID
	}

	if content, err := os.ReadFile(roverIDFile); err == nil {
		if id := strings.TrimSpace(string(content)); id != "" {
			log.Info("RoverID detected from file", "id", id)
			return id
		}
	}

	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return ""
}
