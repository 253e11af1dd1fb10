package monitor

import "time"

// MonitorMessage represents a standardized data packet for system observability.
// main's reportTurn emits one for each user and assistant message of a
// Telegram or WebSocket turn, for a Monitor to display.
type MonitorMessage struct {
	Timestamp   time.Time // Precision recording of when the event occurred
	MessageType string    // Identity of the sender: "USER" or "ASSISTANT"
	ChannelID   string    // Source platform ID ("telegram" or "websocket")
	Username    string    // Display name of the participant
	Content     string    // Standardized text content of the message
}

// Monitor defines the lifecycle and message consumption protocol for
// observability plugins. Implementations are responsible for presenting
// the internal message flow to the administrator or end-user.
type Monitor interface {
	// Start initiates the monitoring session and allocates display resources
	// (e.g., clearing the terminal or opening a file handle).
	Start() error

	// Stop gracefully terminates the monitor and releases held resources.
	Stop() error

	// OnMessage receives and displays a monitoring message
	OnMessage(msg MonitorMessage)
}

// SetupEnvironment encapsulates the initialization of the system logging
// environment and the creation of a default CLI monitor instance.
// logLevel follows the config/CLI convention: 0=trace 1=debug 2=info
// 3=warn 4=error 5=fatal.
func SetupEnvironment(logLevel int) Monitor {
	SetupSlog(levelName(logLevel))
	PrintBanner()
	return NewCLIMonitor()
}

func levelName(logLevel int) string {
	switch {
	case logLevel <= 1:
		return "debug"
	case logLevel == 2:
		return "info"
	case logLevel == 3:
		return "warn"
	default:
		return "error"
	}
}
