package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"homestead.ai/internal/protocol"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int   `yaml:"tick_rate_hz"`
	Seed       int64 `yaml:"seed"`

	MaxSessions    int `yaml:"max_sessions"`
	OutQueueLen    int `yaml:"out_queue_len"`
	RequestBurst   int `yaml:"request_burst"`
	HandshakeSecs  int `yaml:"handshake_secs"`
	ReadTimeoutSec int `yaml:"read_timeout_sec"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: protocol.Version,

		TickRateHz:     10,
		Seed:           1337,
		MaxSessions:    64,
		OutQueueLen:    256,
		RequestBurst:   64,
		HandshakeSecs:  10,
		ReadTimeoutSec: 60,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
