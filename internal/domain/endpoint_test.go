package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/wstail/internal/domain"
)

func TestParseEndpoint(t *testing.T) {
	for _, e := range domain.Endpoints {
		got, err := domain.ParseEndpoint(string(e))
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}

	_, err := domain.ParseEndpoint("metrics")
	assert.ErrorIs(t, err, domain.ErrUnknownEndpoint)
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name      string
		endpoint  domain.Endpoint
		base      string
		container string
		want      string
		wantErr   error
	}{
		{
			name:      "log stream",
			endpoint:  domain.EndpointLogStream,
			base:      "ws://localhost:8080",
			container: "watchtower",
			want:      "ws://localhost:8080/api/v1/robotics_supervisor/log-stream?container_name=watchtower",
		},
		{
			name:      "plain logs over http base",
			endpoint:  domain.EndpointLogs,
			base:      "http://localhost:8080/",
			container: "watchtower",
			want:      "ws://localhost:8080/api/v1/watchtower/logs?container_name=watchtower",
		},
		{
			name:     "hardware status over https base",
			endpoint: domain.EndpointHardwareStatus,
			base:     "https://robot.local",
			want:     "wss://robot.local/api/v1/device/hardware-status",
		},
		{
			name:     "missing container",
			endpoint: domain.EndpointLogs,
			base:     "ws://localhost:8080",
			wantErr:  domain.ErrContainerRequired,
		},
		{
			name:     "bad scheme",
			endpoint: domain.EndpointHardwareStatus,
			base:     "ftp://localhost",
			wantErr:  domain.ErrBadScheme,
		},
		{
			name:     "unknown endpoint",
			endpoint: domain.Endpoint("nope"),
			base:     "ws://localhost",
			wantErr:  domain.ErrUnknownEndpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.endpoint.URL(tt.base, tt.container)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBearerHeader(t *testing.T) {
	assert.Equal(t, "Bearer robotics", domain.BearerHeader("robotics"))
	assert.Empty(t, domain.BearerHeader(""))
}

func TestSanitize(t *testing.T) {
	in := []byte("\x1b[32mINFO\x1b[0m ready\tok\n\xff\xfeé")
	assert.Equal(t, "[32mINFO[0m ready\tok\n", domain.Sanitize(in))
}

func TestHardwareStatusSummary(t *testing.T) {
	h := domain.HardwareStatus{Cpu: 12.34, Ram: 50, Temperature: 41.2, Storage: 70, BatteryLevel: 99, UpTime: 3600}
	assert.Equal(t, "cpu=12.3% ram=50.0% temp=41.2C storage=70.0% battery=99.0% uptime=3600s", h.Summary())
}
