// Package resources implements the read-only resource producers: the
// sanitized config snapshot, the demo user records, and the help text.
package resources

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/toolgate-ai/toolgate/internal/config"
	"github.com/toolgate-ai/toolgate/internal/registry"
)

const helpText = `Toolgate Server Help

Available Tools:
1. calculator - Perform arithmetic operations
2. file_operations - Safe file system operations
3. database_query - Execute read-only SQL queries
4. web_scraper - Extract content from allowed websites
5. generate_auth_token - Generate JWT tokens for authentication

Available Resources:
1. resource://config - Server configuration
2. resource://users - Demo users from database
3. resource://help - This help documentation

Security Features:
- Rate limiting with a sliding window
- Domain restrictions for web scraping
- File system access controls
- SQL injection protection
- JWT authentication support`

// RegisterAll populates the resource registry. The registration order is
// the order resources/list reports.
func RegisterAll(reg *registry.ResourceRegistry, cfg config.Config, db *sql.DB) error {
	descriptors := []registry.ResourceDescriptor{
		{
			URI:         "resource://config",
			Name:        "Server Configuration",
			Description: "Current server configuration settings",
			MIMEType:    "application/json",
			Producer:    configProducer(cfg),
		},
		{
			URI:         "resource://users",
			Name:        "Demo Users",
			Description: "List of demo users in the database",
			MIMEType:    "application/json",
			Producer:    usersProducer(db),
		},
		{
			URI:         "resource://help",
			Name:        "Help Documentation",
			Description: "Help documentation for using this server",
			MIMEType:    "text/plain",
			Producer: func(context.Context) (string, error) {
				return helpText, nil
			},
		},
	}
	for _, desc := range descriptors {
		if err := reg.Register(desc); err != nil {
			return err
		}
	}
	return nil
}

func configProducer(cfg config.Config) registry.Producer {
	return func(context.Context) (string, error) {
		data, err := json.MarshalIndent(cfg.Sanitized(), "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal config: %w", err)
		}
		return string(data), nil
	}
}

type demoUser struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func usersProducer(db *sql.DB) registry.Producer {
	return func(ctx context.Context) (string, error) {
		rows, err := db.QueryContext(ctx, `SELECT id, name, email, created_at FROM users ORDER BY id`)
		if err != nil {
			return "", fmt.Errorf("query users: %w", err)
		}
		defer rows.Close()

		users := []demoUser{}
		for rows.Next() {
			var u demoUser
			var createdAt any
			if err := rows.Scan(&u.ID, &u.Name, &u.Email, &createdAt); err != nil {
				return "", fmt.Errorf("scan user: %w", err)
			}
			u.CreatedAt = fmt.Sprintf("%v", createdAt)
			users = append(users, u)
		}
		if err := rows.Err(); err != nil {
			return "", err
		}

		data, err := json.MarshalIndent(users, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal users: %w", err)
		}
		return string(data), nil
	}
}
