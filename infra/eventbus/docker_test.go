package eventbus

import (
	"net"
	"os"
	"strings"
	"time"
)

func dockerIsReachable() bool {
	host := os.Getenv("DOCKER_HOST")
	if strings.HasPrefix(host, "unix://") {
		return canDialUnix(strings.TrimPrefix(host, "unix://"))
	}
	if host != "" {
		return true
	}
	if canDialUnix("/var/run/docker.sock") {
		return true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	return canDialUnix(home + "/.docker/run/docker.sock")
}

func canDialUnix(path string) bool {
	if path == "" {
		return false
	}
	conn, err := net.DialTimeout("unix", path, 300*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
