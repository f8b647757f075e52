package repositories

import (
	"context"
	"fmt"
	"net/url"
)

// NewRepositoryFromURL picks a backend from the URL scheme.
// sqlite://panchali.db and sqlite:///var/lib/panchali.db open SQLite files;
// postgres:// and postgresql:// URLs are passed to pgx unchanged.
func NewRepositoryFromURL(ctx context.Context, databaseURL string) (Repository, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %v", err)
	}

	switch u.Scheme {
	case "sqlite":
		path, err := SQLitePath(u)
		if err != nil {
			return nil, err
		}
		return NewSQLiteRepository(ctx, path)
	case "postgres", "postgresql":
		return NewPostgresRepository(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database scheme: %q", u.Scheme)
	}
}

// SQLitePath extracts the file path from a sqlite:// URL.
func SQLitePath(u *url.URL) (string, error) {
	path := u.Host + u.Path
	if path == "" {
		return "", fmt.Errorf("sqlite URL has no path")
	}
	return path, nil
}
