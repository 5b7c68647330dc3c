package utils

import (
	"fmt"
	"net"
)

// FindAvailablePort scans upward from start for a free TCP port.
func FindAvailablePort(start int) int {
	port := start
	for {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			listener.Close()
			return port
		}
		port++
	}
}
