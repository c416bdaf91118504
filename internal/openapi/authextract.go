package openapi

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/toolforge/toolforge/internal/auth"
)

// AuthConfig derives the auth descriptor from the document's security
// schemes. The first recognized scheme in declaration order wins; documents
// without schemes get the none descriptor.
func (d *Document) AuthConfig() *auth.Config {
	schemes := d.securitySchemes()
	if schemes == nil {
		return auth.None()
	}

	for pair := schemes.Oldest(); pair != nil; pair = pair.Next() {
		scheme, ok := d.resolveRef(pair.Value).(*orderedmap.OrderedMap[string, any])
		if !ok {
			continue
		}
		if cfg := schemeConfig(pair.Key, scheme); cfg != nil {
			return cfg
		}
	}
	return auth.None()
}

func (d *Document) securitySchemes() *orderedmap.OrderedMap[string, any] {
	if components, ok := getMap(d.root, "components"); ok {
		if schemes, ok := getMap(components, "securitySchemes"); ok {
			return schemes
		}
	}
	// Swagger 2.x keeps schemes at the top level.
	if schemes, ok := getMap(d.root, "securityDefinitions"); ok {
		return schemes
	}
	return nil
}

func schemeConfig(name string, scheme *orderedmap.OrderedMap[string, any]) *auth.Config {
	typ, _ := getString(scheme, "type")
	switch typ {
	case "apiKey":
		headerName, _ := getString(scheme, "name")
		in, _ := getString(scheme, "in")
		if in == "" {
			in = "header"
		}
		return &auth.Config{
			Kind:       auth.KindAPIKey,
			SchemeName: name,
			EnvVar:     auth.EnvVarFor(name, auth.KindAPIKey),
			HeaderName: headerName,
			In:         in,
		}
	case "http":
		httpScheme, _ := getString(scheme, "scheme")
		switch httpScheme {
		case "bearer":
			return &auth.Config{
				Kind:       auth.KindBearer,
				SchemeName: name,
				EnvVar:     auth.EnvVarFor(name, auth.KindBearer),
			}
		case "basic":
			return &auth.Config{
				Kind:       auth.KindBasic,
				SchemeName: name,
				EnvVar:     auth.EnvVarFor(name, auth.KindBasic),
			}
		}
		return nil
	case "basic":
		// Swagger 2.x spelling.
		return &auth.Config{
			Kind:       auth.KindBasic,
			SchemeName: name,
			EnvVar:     auth.EnvVarFor(name, auth.KindBasic),
		}
	case "oauth2":
		return &auth.Config{
			Kind:       auth.KindOAuth2,
			SchemeName: name,
			EnvVar:     auth.EnvVarFor(name, auth.KindOAuth2),
		}
	}
	return nil
}
