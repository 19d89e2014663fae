// Package singleton 通过固定端口保证同一台机器上只运行一个看板后端实例
package singleton

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

const (
	// HealthCheckTimeout 探测已有实例的超时
	HealthCheckTimeout = 2 * time.Second
	// ServiceName /health 返回的服务名，用于确认占用端口的是本服务
	ServiceName = "retailmind-backend"
)

// wsaeAddrInUse Windows 下的 WSAEADDRINUSE
const wsaeAddrInUse = 10048

// ErrPortOccupied 端口被其它程序占用
var ErrPortOccupied = errors.New("port occupied by another process")

// HealthStatus /health 响应结构
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// CheckAndLock 尝试占用端口
// 返回 (listener, nil) 表示本进程拿到端口；(nil, nil) 表示已有健康的本服务实例，调用者应退出；
// 端口被其它程序占用时返回 ErrPortOccupied
func CheckAndLock(port string) (net.Listener, error) {
	listener, err := net.Listen("tcp", port)
	if err == nil {
		return listener, nil
	}
	if !isAddrInUse(err) {
		return nil, fmt.Errorf("failed to listen on %s: %w", port, err)
	}

	status, probeErr := Probe(port)
	if probeErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPortOccupied, port, probeErr)
	}
	if status.Service != ServiceName {
		return nil, fmt.Errorf("%w: %s is served by %q", ErrPortOccupied, port, status.Service)
	}
	return nil, nil
}

// Probe 请求本机端口上的 /health
func Probe(port string) (*HealthStatus, error) {
	client := &http.Client{Timeout: HealthCheckTimeout}

	resp, err := client.Get(fmt.Sprintf("http://localhost%s/health", port))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check returned %d", resp.StatusCode)
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("invalid health response: %w", err)
	}
	return &status, nil
}

func isAddrInUse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno == wsaeAddrInUse {
		return true
	}
	return false
}
