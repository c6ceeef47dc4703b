package main

import (
	"github.com/trixlive/backend/migration"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(cctx *cli.Context) error {
	if err := s.loadConfig(cctx); err != nil {
		return err
	}
	s.loadLogger()
	defer s.close()

	if err := s.loadDatabase(); err != nil {
		return err
	}

	return migration.Migrate(s.ctx)
}
