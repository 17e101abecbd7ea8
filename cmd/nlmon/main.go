// nlmon subscribes to a set of multicast groups on a netlink-style bus
// and logs every message it receives: header fields, the decoded
// attribute walk, and optionally a dissection of packet-carrying
// payloads.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/rs/zerolog"

	netlink "github.com/blockcast/go-netlink"
	"github.com/blockcast/go-netlink/messages"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to TOML config")
		family     = flag.Int("family", -1, "protocol family, overrides config")
		groupsFlag = flag.String("groups", "", "comma-separated multicast group ids, overrides config")
	)
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if *family >= 0 {
		cfg.Family = *family
	}
	if *groupsFlag != "" {
		cfg.Groups, err = parseGroups(*groupsFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -groups")
		}
	}
	if cfg.Pretty {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("monitor failed")
	}
}

func parseGroups(s string) ([]uint32, error) {
	var groups []uint32
	for _, field := range strings.Split(s, ",") {
		g, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", field, err)
		}
		groups = append(groups, uint32(g))
	}
	return groups, nil
}

func run(ctx context.Context, log zerolog.Logger, cfg Config) error {
	conn, err := netlink.Dial(cfg.Family)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Bind(0, cfg.Groups...); err != nil {
		return err
	}
	if err := conn.SetBlocking(false); err != nil {
		return err
	}
	log.Info().
		Int("family", cfg.Family).
		Uints32("groups", cfg.Groups).
		Uint32("pid", conn.PID()).
		Msg("listening")

	stream := netlink.NewStreamSize(conn, cfg.BufferSize)
	for {
		msg, err := stream.Next(ctx)
		switch {
		case errors.Is(err, netlink.ErrClosed):
			log.Info().Msg("transport closed")
			return nil
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			// Decode errors poison one read's buffer, not the stream.
			log.Warn().Err(err).Msg("dropped message")
			continue
		}
		logMessage(log, cfg, msg)
	}
}

func logMessage(log zerolog.Logger, cfg Config, msg messages.Message) {
	ev := log.Info().
		Uint16("type", msg.Header.Type).
		Uint16("flags", msg.Header.Flags).
		Uint32("seq", msg.Header.Seq).
		Uint32("pid", msg.Header.PID).
		Int("payload_len", len(msg.Payload))

	switch {
	case msg.Header.Type == messages.TypeError:
		e, err := messages.ParseError(msg.Payload)
		if err != nil {
			ev.Err(err).Msg("unparseable error message")
			return
		}
		if e.IsAck() {
			ev.Uint32("ack_seq", e.Request.Seq).Msg("ack")
		} else {
			ev.AnErr("cause", e.Err()).Uint32("failed_seq", e.Request.Seq).Msg("nack")
		}
		return
	case msg.Header.Type == messages.TypeDone:
		ev.Msg("done")
		return
	case cfg.DecodePackets && len(msg.Payload) > cfg.AttrsOffset:
		pkt := gopacket.NewPacket(msg.Payload[cfg.AttrsOffset:], layers.LayerTypeIPv4, gopacket.NoCopy)
		if net := pkt.NetworkLayer(); net != nil {
			ev = ev.
				Str("src", net.NetworkFlow().Src().String()).
				Str("dst", net.NetworkFlow().Dst().String())
			if tr := pkt.TransportLayer(); tr != nil {
				ev = ev.Str("transport", tr.LayerType().String())
			}
		}
	case cfg.ParseAttrs && len(msg.Payload) > cfg.AttrsOffset:
		attrs, err := messages.ParseAttributes(msg.Payload[cfg.AttrsOffset:])
		if err != nil {
			// Not every family keeps its TLV region at a fixed
			// offset; log the header anyway.
			ev.Msg("message")
			return
		}
		arr := zerolog.Arr()
		for i := range attrs {
			arr.Str(attrSummary(&attrs[i]))
		}
		ev = ev.Array("attrs", arr)
	}
	ev.Msg("message")
}

func attrSummary(a *messages.Attribute) string {
	if a.IsNested() {
		children, err := a.Nested()
		if err == nil {
			return fmt.Sprintf("%d:nested(%d)", a.AttrType(), len(children))
		}
	}
	return fmt.Sprintf("%d:%dB", a.AttrType(), len(a.Data))
}
