package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/blockcast/go-netlink/messages"
)

// Config selects what nlmon subscribes to and how much of each message
// it decodes.
type Config struct {
	// Family is the protocol family to open, e.g. 0 (route) or 16
	// (generic).
	Family int `toml:"family"`
	// Groups are the multicast group ids to subscribe to at bind time.
	Groups []uint32 `toml:"groups"`
	// BufferSize is the receive buffer size in bytes.
	BufferSize int `toml:"buffer_size"`
	// ParseAttrs walks the payload's attribute sequence after skipping
	// AttrsOffset bytes of family-specific header.
	ParseAttrs  bool `toml:"parse_attrs"`
	AttrsOffset int  `toml:"attrs_offset"`
	// DecodePackets dissects the bytes after AttrsOffset as an IPv4
	// packet instead of an attribute sequence, for families that carry
	// raw traffic.
	DecodePackets bool `toml:"decode_packets"`
	// Pretty switches from JSON log lines to the console writer.
	Pretty bool `toml:"pretty"`
}

func defaultConfig() Config {
	return Config{
		Family:     messages.FamilyRoute,
		BufferSize: 1 << 16,
		ParseAttrs: true,
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	if cfg.BufferSize <= 0 {
		return Config{}, fmt.Errorf("config %s: buffer_size must be positive", path)
	}
	if cfg.AttrsOffset < 0 {
		return Config{}, fmt.Errorf("config %s: attrs_offset must not be negative", path)
	}
	return cfg, nil
}
