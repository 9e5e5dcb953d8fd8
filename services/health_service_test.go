package services

import (
	"testing"
	"time"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		want string
	}{
		{name: "zero", in: 0, want: "0s"},
		{name: "seconds only", in: 42 * time.Second, want: "42s"},
		{name: "minutes and seconds", in: 3*time.Minute + 5*time.Second, want: "3m 5s"},
		{name: "days rollover", in: 26*time.Hour + 90*time.Second, want: "1d 2h 1m 30s"},
		{name: "negative clamps", in: -time.Minute, want: "0s"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := humanizeDuration(tc.in); got != tc.want {
				t.Errorf("humanizeDuration(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestHTTPStatusForOverall(t *testing.T) {
	svc := NewHealthService("", "")
	if got := svc.HTTPStatusForOverall(overallStatusCritical); got != 503 {
		t.Errorf("critical = %d, want 503", got)
	}
	if got := svc.HTTPStatusForOverall(overallStatusDegraded); got != 200 {
		t.Errorf("degraded = %d, want 200", got)
	}
	if got := svc.HTTPStatusForOverall(overallStatusOK); got != 200 {
		t.Errorf("ok = %d, want 200", got)
	}
}

func TestNewHealthServiceDefaults(t *testing.T) {
	svc := NewHealthService("  ", "")
	if svc.serviceName != defaultServiceName {
		t.Errorf("serviceName = %q", svc.serviceName)
	}
	if svc.version != defaultVersion {
		t.Errorf("version = %q", svc.version)
	}
}
