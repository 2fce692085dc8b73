package main

import (
	"context"
	"errors"

	"sitepub/internal/adapters/localstorage"
	"sitepub/internal/adapters/notion"
	"sitepub/internal/adapters/sqlitestore"
	"sitepub/internal/adapters/wordpress"
	"sitepub/internal/config"
	"sitepub/internal/core/ports"
	"sitepub/internal/service"
)

var errNoCMS = errors.New("this command does not talk to the CMS")

// app bundles the orchestrator with the resources a command must release.
type app struct {
	orch  *service.Orchestrator
	close func() error
}

// openApp wires the configured store and, when withCMS is set, the
// configured CMS backend.
func openApp(ctx context.Context, withCMS bool) (*app, error) {
	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	var cms ports.CMS = offlineCMS{}
	if withCMS {
		cms, err = openCMS(cfg)
		if err != nil {
			_ = closeStore()
			return nil, err
		}
	}

	return &app{
		orch:  service.NewOrchestrator(cms, store, logger, cfg.Publish.Concurrency),
		close: closeStore,
	}, nil
}

func openStore(ctx context.Context, sc config.StoreConfig) (ports.ArtifactStore, func() error, error) {
	switch sc.Backend {
	case config.StoreSQLite:
		s, err := sqlitestore.Open(ctx, sc.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return localstorage.NewLocalStorage(sc.Path), func() error { return nil }, nil
	}
}

func openCMS(c *config.Config) (ports.CMS, error) {
	if err := c.ValidateCMS(); err != nil {
		return nil, err
	}

	switch c.CMS.Backend {
	case config.BackendNotion:
		client, err := notion.NewClient(notion.Config{
			Token:      c.Notion.Token,
			DatabaseID: c.Notion.DatabaseID,
			Timeout:    c.CMS.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		client, err := wordpress.NewClient(wordpress.Config{
			BaseURL:     c.WordPress.BaseURL,
			Username:    c.WordPress.Username,
			AppPassword: c.WordPress.AppPassword,
			Timeout:     c.CMS.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// offlineCMS stands in for the CMS in commands that only touch the store.
type offlineCMS struct{}

func (offlineCMS) FindPageBySlug(context.Context, string) (*ports.RemotePage, error) {
	return nil, errNoCMS
}

func (offlineCMS) CreatePage(context.Context, ports.PageDraft) (*ports.RemotePage, error) {
	return nil, errNoCMS
}

func (offlineCMS) UpdatePage(context.Context, string, ports.PageDraft) (*ports.RemotePage, error) {
	return nil, errNoCMS
}
