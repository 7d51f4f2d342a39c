// Package bridgesvc connects the BLE transport to the decode pipeline: it
// rebuilds the report definition table on every connect, resolves and decodes
// incoming notifications and turns the resulting actions into virtual input
// events and trigger command dispatches.
package bridgesvc

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hidlink/hidlink/hidapi"
	"github.com/hidlink/hidlink/hidapi/hiddesc"
	"github.com/hidlink/hidlink/internal/blesvc"
	"github.com/hidlink/hidlink/internal/triggersvc"
)

// Transport delivers connection events and report notifications. Satisfied
// by blesvc.Service.
type Transport interface {
	Ready() <-chan struct{}
	Events() *blesvc.EventBus
	Reports() *blesvc.ReportBus
}

// InputSink injects decoded input into the host. Satisfied by vinput.Sink.
type InputSink interface {
	InjectKey(code uint16, down bool) error
	InjectMotion(dx, dy, scroll int8, buttons uint8) error
}

type Service struct {
	log    *zap.Logger
	ble    Transport
	engine *triggersvc.Engine
	sink   InputSink

	states   *hidapi.Store
	decoder  *hidapi.Decoder
	resolver *hidapi.Resolver

	ready chan struct{}
}

func New(log *zap.Logger, ble Transport, engine *triggersvc.Engine, sink InputSink, now func() time.Time) *Service {
	return &Service{
		log:      log,
		ble:      ble,
		engine:   engine,
		sink:     sink,
		states:   hidapi.NewStore(),
		decoder:  hidapi.NewDecoder(log.Named("decoder"), now),
		resolver: hidapi.NewResolver(nil),
		ready:    make(chan struct{}),
	}
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Start consumes transport events and reports until ctx is cancelled. The
// resolver and source states are only touched from this goroutine.
func (s *Service) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-s.ble.Ready():
	}
	events := s.ble.Events().Subscribe(ctx)
	reports := s.ble.Reports().Subscribe(ctx)
	close(s.ready)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-events:
			// Subscription channels close on cancellation; a closed
			// channel must not be read as a zero-value connect event.
			if !ok {
				return nil
			}
			s.handleEvent(msg.Message)
		case msg, ok := <-reports:
			if !ok {
				return nil
			}
			if err := s.handleReport(msg.Message); err != nil {
				return err
			}
		}
	}
}

func (s *Service) handleEvent(event blesvc.Event) {
	switch event.Type {
	case blesvc.DeviceConnected:
		definitions := hiddesc.Parse(event.ReportMap)
		s.resolver = hidapi.NewResolver(definitions)
		s.states.DropAll()
		s.log.Info("report definitions loaded",
			zap.String("device", event.Name),
			zap.Int("reports", len(definitions)))
		for id, def := range definitions {
			s.log.Debug("report definition",
				zap.Uint8("id", id),
				zap.String("kind", def.Kind.String()),
				zap.Int("sizeBytes", def.SizeBytes))
		}
	case blesvc.DeviceDisconnected:
		// Press state is meaningless across a link loss. Dropping it
		// means no release, and no trigger, will fire for keys that
		// were down when the device vanished.
		s.states.DropAll()
		s.log.Info("device disconnected, source states dropped")
	}
}

func (s *Service) handleReport(report blesvc.Report) error {
	state := s.states.Get(report.Source)

	var (
		kind    hiddesc.ReportKind
		payload []byte
		reason  string
	)
	if resolved, ok := s.resolver.Resolve(report.Payload); ok {
		kind = resolved.Definition.Kind
		payload = resolved.Payload
		reason = resolved.Reason.String()
	} else {
		kind = hidapi.HeuristicKind(len(report.Payload))
		payload = report.Payload
		reason = "heuristic"
	}

	actions := s.decoder.Decode(kind, payload, state)
	s.log.Debug("report",
		zap.String("source", report.Source),
		zap.String("kind", kind.String()),
		zap.String("resolution", reason),
		zap.String("payload", hex.EncodeToString(report.Payload)),
		zap.Stringers("actions", actions))

	for _, action := range actions {
		if err := s.apply(action, state); err != nil {
			return fmt.Errorf("failed to inject input event: %w", err)
		}
	}
	return nil
}

func (s *Service) apply(action hidapi.Action, state *hidapi.SourceState) error {
	switch action.Type {
	case hidapi.ActionKeyPressed:
		return s.sink.InjectKey(action.Code, true)
	case hidapi.ActionKeyReleased:
		if err := s.sink.InjectKey(action.Code, false); err != nil {
			return err
		}
		s.engine.HandleRelease(action.Code, action.Held, action.HasHold, state.Modifiers())
		return nil
	case hidapi.ActionMouseMoved:
		return s.sink.InjectMotion(action.DX, action.DY, action.Scroll, action.Buttons)
	case hidapi.ActionUnknownUsage:
		s.log.Debug("ignoring unknown usage", zap.Uint32("usage", action.Usage))
		return nil
	case hidapi.ActionUnsupported:
		s.log.Debug("ignoring unsupported report", zap.Int("length", action.Length))
		return nil
	default:
		return nil
	}
}
