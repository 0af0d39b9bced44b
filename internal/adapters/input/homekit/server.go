package homekit

import (
	"context"
	"log/slog"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
)

// Server hosts the bridged accessories over the HomeKit Accessory Protocol.
// Pairing state lives in an on-disk store under storeDir.
type Server struct {
	name     string
	pin      string
	storeDir string
	accs     []*accessory.A
	log      *slog.Logger
}

func NewServer(name, pin, storeDir string, accs []*accessory.A, log *slog.Logger) *Server {
	return &Server{
		name:     name,
		pin:      pin,
		storeDir: storeDir,
		accs:     accs,
		log:      log,
	}
}

// ListenAndServe announces the bridge over mDNS and serves HAP until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	br := accessory.NewBridge(accessory.Info{
		Name:         s.name,
		Manufacturer: "Home Assistant",
		Model:        "climate-bridge",
	})
	br.A.Id = 1

	srv, err := hap.NewServer(hap.NewFsStore(s.storeDir), br.A, s.accs...)
	if err != nil {
		return err
	}
	srv.Pin = s.pin

	s.log.Info("homekit bridge up", "name", s.name, "accessories", len(s.accs))
	return srv.ListenAndServe(ctx)
}
