// Package domain contains the supervisor endpoints and the payloads they stream.
package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type Endpoint string

const (
	EndpointLogStream      Endpoint = "log-stream"
	EndpointLogs           Endpoint = "logs"
	EndpointHardwareStatus Endpoint = "hardware-status"
)

const (
	LogStreamPath      = "/api/v1/robotics_supervisor/log-stream"
	LogsPath           = "/api/v1/watchtower/logs"
	HardwareStatusPath = "/api/v1/device/hardware-status"

	ContainerQuery = "container_name"
)

var (
	ErrUnknownEndpoint   = errors.New("unknown endpoint")
	ErrContainerRequired = errors.New("container name required")
	ErrBadScheme         = errors.New("unsupported server scheme")
)

// Endpoints lists every endpoint the client knows how to tail.
var Endpoints = []Endpoint{EndpointLogStream, EndpointLogs, EndpointHardwareStatus}

func ParseEndpoint(name string) (Endpoint, error) {
	for _, e := range Endpoints {
		if string(e) == name {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEndpoint, name)
}

func (e Endpoint) Path() string {
	switch e {
	case EndpointLogStream:
		return LogStreamPath
	case EndpointLogs:
		return LogsPath
	case EndpointHardwareStatus:
		return HardwareStatusPath
	}
	return ""
}

// NeedsContainer reports whether the endpoint is scoped to one container.
func (e Endpoint) NeedsContainer() bool {
	return e == EndpointLogStream || e == EndpointLogs
}

// URL builds the WebSocket URL for e on top of base.
// http and https bases are rewritten to ws and wss.
func (e Endpoint) URL(base, container string) (string, error) {
	path := e.Path()
	if path == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownEndpoint, string(e))
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: %q", ErrBadScheme, u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path

	q := url.Values{}
	if e.NeedsContainer() {
		if container == "" {
			return "", ErrContainerRequired
		}
		q.Set(ContainerQuery, container)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
