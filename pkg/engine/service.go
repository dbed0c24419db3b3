package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// UnknownService is the name used when a report carries no service descriptor for a port.
const UnknownService = "unknown"

const (
	minPort = 1
	maxPort = 65535
)

// ServiceID identifies an open service by port and detected service name.
// The same port with a different service name is a different ServiceID.
type ServiceID struct {
	Port    int
	Service string
}

// NewServiceID builds a ServiceID, substituting UnknownService for an empty name.
func NewServiceID(port int, service string) (ServiceID, error) {
	if port < minPort || port > maxPort {
		return ServiceID{}, fmt.Errorf("port %d out of range %d-%d", port, minPort, maxPort)
	}
	if service == "" {
		service = UnknownService
	}
	return ServiceID{Port: port, Service: service}, nil
}

// ParseServiceID parses the "<port>/<service>" form produced by String.
func ParseServiceID(s string) (ServiceID, error) {
	portStr, service, ok := strings.Cut(s, "/")
	if !ok {
		return ServiceID{}, fmt.Errorf("invalid service id %q: missing '/'", s)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ServiceID{}, fmt.Errorf("invalid service id %q: %w", s, err)
	}
	return NewServiceID(port, service)
}

func (id ServiceID) String() string {
	return strconv.Itoa(id.Port) + "/" + id.Service
}
