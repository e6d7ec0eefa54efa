package types

import "time"

const (
	DefaultEchoPort       = 10001
	DefaultCloseDelayMS   = 20
	DefaultBufferSize     = 1024
	DefaultReadBufferSize = 64 * 1024
	DefaultDrainMS        = 5
	DefaultMaxEchoBytes   = 1 << 20
	DefaultMulticastTTL   = 1
	DefaultRecvTimeoutMS  = 1000
	DefaultPayload        = "Hello World"
	DefaultMcastGroup     = "239.0.0.1"
	DefaultMcastPort      = 1501
	DefaultMcastBufSize   = 1472
	DefaultBindAddress    = "0.0.0.0"
	DefaultLogLevel       = "info"
	DefaultShutdownWaitMS = 5000

	DefaultEchoClientPayload   = "This is a TCP message"
	DefaultEchoClientTimeoutMS = 2000
)

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// ClientConf 包含组播回显客户端的配置
type ClientConf struct {
	Payload       string `ini:"payload"`
	RecvTimeoutMS int    `ini:"recv_timeout_ms"`
	BufferSize    int    `ini:"buffer_size"`
}

// RecvTimeout is the per-iteration receive bound.
func (c ClientConf) RecvTimeout() time.Duration {
	return time.Duration(c.RecvTimeoutMS) * time.Millisecond
}

// ServerConf 包含TCP/UDP回显服务器的配置
type ServerConf struct {
	BindAddress    string `ini:"bind_address"`
	Port           int    `ini:"port"`
	UDPPort        int    `ini:"udp_port"` // 0 = disabled
	CloseDelayMS   int    `ini:"close_delay_ms"`
	BufferSize     int    `ini:"buffer_size"`
	DrainMS        int    `ini:"drain_ms"`       // 读到首块后继续收取已到达数据的窗口
	MaxEchoBytes   int    `ini:"max_echo_bytes"` // 单个连接回显的上限
	AbortiveClose  bool   `ini:"abortive_close"`
	ShutdownWaitMS int    `ini:"shutdown_wait_ms"`
}

// CloseDelay is the pause between the echo write and the close.
func (c ServerConf) CloseDelay() time.Duration {
	return time.Duration(c.CloseDelayMS) * time.Millisecond
}

// DrainWindow is how long a session keeps collecting bytes after the first
// chunk before it echoes.
func (c ServerConf) DrainWindow() time.Duration {
	return time.Duration(c.DrainMS) * time.Millisecond
}

// ShutdownWait bounds how long Shutdown waits for in-flight sessions.
func (c ServerConf) ShutdownWait() time.Duration {
	return time.Duration(c.ShutdownWaitMS) * time.Millisecond
}

// EchoClientConf 包含TCP回显客户端的配置
type EchoClientConf struct {
	Payload   string `ini:"payload"`
	TimeoutMS int    `ini:"timeout_ms"`
}

func (c EchoClientConf) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// McastConf 包含组播回显响应端的配置
type McastConf struct {
	Group      string `ini:"group"`
	Port       int    `ini:"port"`
	Interface  string `ini:"interface"`
	BufferSize int    `ini:"buffer_size"`
	Loopback   bool   `ini:"loopback"`
}

// Config 是所有命令共享的统一配置结构体
type Config struct {
	LogConf    `ini:"log"`
	ClientConf `ini:"client"`
	ServerConf `ini:"server"`
	McastConf  `ini:"mcast"`

	EchoClientConf `ini:"echo_client"`
}

// NewDefaultConfig returns the configuration used when no file is present.
func NewDefaultConfig() *Config {
	return &Config{
		LogConf: LogConf{Level: DefaultLogLevel},
		ClientConf: ClientConf{
			Payload:       DefaultPayload,
			RecvTimeoutMS: DefaultRecvTimeoutMS,
			BufferSize:    DefaultBufferSize,
		},
		ServerConf: ServerConf{
			BindAddress:    DefaultBindAddress,
			Port:           DefaultEchoPort,
			CloseDelayMS:   DefaultCloseDelayMS,
			BufferSize:     DefaultReadBufferSize,
			DrainMS:        DefaultDrainMS,
			MaxEchoBytes:   DefaultMaxEchoBytes,
			AbortiveClose:  true,
			ShutdownWaitMS: DefaultShutdownWaitMS,
		},
		McastConf: McastConf{
			Group:      DefaultMcastGroup,
			Port:       DefaultMcastPort,
			BufferSize: DefaultMcastBufSize,
			Loopback:   true,
		},
		EchoClientConf: EchoClientConf{
			Payload:   DefaultEchoClientPayload,
			TimeoutMS: DefaultEchoClientTimeoutMS,
		},
	}
}
