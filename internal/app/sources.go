package app

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/order-tracker/internal/credential"
	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/source"
	"github.com/nhle/order-tracker/internal/source/gmail"
	"github.com/nhle/order-tracker/internal/source/imap"
	"github.com/nhle/order-tracker/internal/source/mbox"
)

// sourcesRegisteredMsg is sent when all configured sources have been
// registered with the poller.
type sourcesRegisteredMsg struct {
	count int
}

// registerSources rebuilds the poller's source set from the store,
// registering each enabled source. Credentials are resolved through the
// system keyring. Safe to call again after configuration changes.
func (m *Model) registerSources() tea.Cmd {
	s := m.store
	p := m.poller

	return func() tea.Msg {
		ctx := context.Background()

		sources, err := s.GetSources(ctx)
		if err != nil {
			slog.Error("loading sources", "error", err)
			return sourcesRegisteredMsg{count: 0}
		}

		p.Reset()

		registered := 0
		for _, src := range sources {
			if !src.Enabled {
				continue
			}

			adapter := BuildAdapter(src)
			if adapter == nil {
				continue
			}
			p.RegisterSource(adapter, src)
			registered++
		}

		return sourcesRegisteredMsg{count: registered}
	}
}

// BuildAdapter constructs the matching source adapter for a stored
// configuration, or nil when the type is unknown or its credentials
// are unavailable.
func BuildAdapter(src model.SourceConfig) source.Source {
	switch src.Type {
	case string(model.SourceTypeGmail):
		return gmail.NewAdapter(
			src.ConfigValue(model.ConfigKeyCredentialsFile),
			gmail.KeyringTokenStore{},
			src.ID,
		)

	case string(model.SourceTypeIMAP):
		password, err := credential.Get(credential.PasswordKey(src.ID))
		if err != nil {
			slog.Warn("skipping IMAP source: credential not found",
				"name", src.Name, "id", src.ID, "error", err)
			return nil
		}
		return imap.NewAdapter(
			src.ConfigValue(model.ConfigKeyIMAPHost),
			src.ConfigValue(model.ConfigKeyIMAPPort),
			src.ConfigValue(model.ConfigKeyUsername),
			password,
			src.UseTLS(),
			src.ConfigValue(model.ConfigKeyMailbox),
			src.ID,
		)

	case string(model.SourceTypeMbox):
		return mbox.NewAdapter(src.ConfigValue(model.ConfigKeyFilePath), src.ID)

	default:
		slog.Warn("skipping source with unknown type",
			"type", src.Type, "id", src.ID)
		return nil
	}
}
