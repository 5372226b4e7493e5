// Package tools implements the five built-in tool handlers and their
// input schemas. Handlers enforce their own per-tool policy (directory
// allowlist, SQL denylist, domain allowlist); everything upstream of the
// handler — rate limiting, auth, schema validation — is the dispatcher's
// job.
package tools

import (
	"database/sql"

	"github.com/toolgate-ai/toolgate/internal/auth"
	"github.com/toolgate-ai/toolgate/internal/config"
	"github.com/toolgate-ai/toolgate/internal/registry"
)

// Deps carries everything the tool set needs.
type Deps struct {
	Config config.Config
	DB     *sql.DB
	Issuer *auth.Issuer
}

// RegisterAll populates the registry with the built-in tools. The
// registration order is the order tools/list reports.
func RegisterAll(reg *registry.ToolRegistry, deps Deps) error {
	descriptors := []registry.ToolDescriptor{
		NewCalculator().Descriptor(),
		NewFileTool(deps.Config.AllowedDirectories, deps.Config.MaxFileSize).Descriptor(),
		NewSQLTool(deps.DB).Descriptor(),
		NewScraper(deps.Config.AllowedDomains, deps.Config.ScrapeMaxLength, deps.Config.ScrapeTimeoutDuration()).Descriptor(),
		NewTokenTool(deps.Issuer).Descriptor(),
	}
	for _, desc := range descriptors {
		if err := reg.Register(desc); err != nil {
			return err
		}
	}
	return nil
}
