package api

import (
	"os"

	"github.com/goccy/go-json"
)

// dumpFileMode keeps the dump readable by the service user only; it holds personal data.
const dumpFileMode = 0o600

// dumpUserData overwrites the configured dump file with data.
// Failures are logged and never reach the client.
func (s *Server) dumpUserData(data userData) {
	path := s.dbgCfg.DumpPath
	if path == "" {
		return
	}

	b, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		s.logger.Warn("encoding debug dump", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path, b, dumpFileMode); err != nil {
		s.logger.Warn("writing debug dump", "path", path, "error", err)
		return
	}
	s.logger.Debug("debug dump written", "path", path, "bytes", len(b))
}
