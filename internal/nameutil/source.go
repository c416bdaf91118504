package nameutil

import (
	"net/url"
	"path/filepath"
	"strings"
)

// FromTitle derives a server name from an API title (e.g. an OpenAPI
// info.title).
func FromTitle(title string) string {
	return Slugify(title)
}

// FromPath derives a server name from a file path, dropping the extension:
// "specs/petstore.yaml" → "petstore".
func FromPath(p string) string {
	base := filepath.Base(p)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return Slugify(base)
}

// FromDSN derives a server name from a database target: the database name
// for URL-style DSNs ("postgres://host/mydb" → "mydb"), the file stem for
// SQLite paths.
func FromDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err == nil {
			if db := Slugify(strings.Trim(u.Path, "/")); db != "" {
				return db
			}
			if host := Slugify(u.Hostname()); host != "" {
				return host
			}
		}
	}
	return FromPath(dsn)
}
