// Package app wires stores and sessions together for the CLI.
package app

import (
	"github.com/sirupsen/logrus"

	"sealbox/internal/session"
	"sealbox/internal/store"
)

// App bundles the dependency graph the CLI commands run against.
type App struct {
	Config   Config
	Identity *store.IdentityFileStore
	Sessions *store.SessionFileStore
	Manager  *session.Manager
}

// New constructs the dependency graph from cfg.
func New(cfg Config) *App {
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}
	return &App{
		Config:   cfg,
		Identity: store.NewIdentityFileStore(cfg.Home),
		Sessions: store.NewSessionFileStore(cfg.Home),
		Manager:  session.NewManager(),
	}
}
